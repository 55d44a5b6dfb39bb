package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/pkg/idx"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultFanoutWidth bounds how many notification writes run at once.
	DefaultFanoutWidth = 8

	// DefaultWriteTimeout caps one recipient's write so a wedged write
	// cannot stall the whole fan-out.
	DefaultWriteTimeout = 5 * time.Second
)

// Event is one domain occurrence to broadcast. The same Kind, Title,
// Message and Data go to every recipient; each recipient gets their own
// notification row.
type Event struct {
	Kind    domain.NotificationKind
	Title   string
	Message string
	Data    map[string]any
}

// FanoutResult reports per-recipient outcomes. Succeeded and Failed
// partition the input recipient set.
type FanoutResult struct {
	Succeeded []string
	Failed    map[string]error
}

// Fanout delivers one event to many recipients with per-recipient
// isolation: one failed write never aborts the others. Dispatch never
// returns an error; callers treat delivery as best-effort and decide
// what to do with partial failure from the result.
type Fanout struct {
	store        store.Store
	log          *slog.Logger
	width        int
	writeTimeout time.Duration
}

func NewFanout(st store.Store, log *slog.Logger, width int, writeTimeout time.Duration) *Fanout {
	if width <= 0 {
		width = DefaultFanoutWidth
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Fanout{
		store:        st,
		log:          log.With("service", "fanout"),
		width:        width,
		writeTimeout: writeTimeout,
	}
}

// Dispatch writes one notification per recipient, at most width at a
// time. Delivery is at-least-once: a caller that retries after a partial
// failure may duplicate rows for recipients that already succeeded.
// Writes are detached from the caller's cancellation, so a dropped HTTP
// request does not strand a fan-out half done.
func (f *Fanout) Dispatch(ctx context.Context, event Event, recipients []string) FanoutResult {
	result := FanoutResult{Failed: make(map[string]error)}
	if len(recipients) == 0 {
		return result
	}

	base := context.WithoutCancel(ctx)
	now := time.Now().UTC()

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(f.width)

	for _, recipient := range recipients {
		g.Go(func() error {
			n := domain.Notification{
				ID:        idx.New().String(),
				UserID:    recipient,
				Kind:      event.Kind,
				Title:     event.Title,
				Message:   event.Message,
				Data:      event.Data,
				CreatedAt: now,
			}

			wctx, cancel := context.WithTimeout(base, f.writeTimeout)
			defer cancel()

			err := f.store.Notifications().CreateNotification(wctx, n)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[recipient] = err
				return nil
			}
			result.Succeeded = append(result.Succeeded, recipient)
			return nil
		})
	}

	// Workers never return errors; Wait only fences completion.
	_ = g.Wait()

	if len(result.Failed) > 0 {
		f.log.WarnContext(ctx, "notification fan-out partially failed",
			"kind", event.Kind,
			"recipients", len(recipients),
			"failed", len(result.Failed),
		)
	}
	return result
}
