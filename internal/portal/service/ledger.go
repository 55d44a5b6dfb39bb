package service

import (
	"context"
	"fmt"
	"time"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/pkg/idx"
)

// ActivityLedger appends audit records for domain mutations. Unlike
// notification delivery, a ledger write is not best-effort: callers
// record inside the same transaction as the mutation, so a failed append
// rolls the whole mutation back.
type ActivityLedger struct {
	store store.Store
}

func NewActivityLedger(st store.Store) *ActivityLedger {
	return &ActivityLedger{store: st}
}

// Record appends one audit entry through st, normally the transaction
// carrying the mutation being audited, and returns the appended record.
func (l *ActivityLedger) Record(ctx context.Context, st store.Store, action, details, userID string, projectID *string) (domain.Activity, error) {
	a := domain.Activity{
		ID:        idx.New().String(),
		Action:    action,
		Details:   details,
		UserID:    userID,
		ProjectID: projectID,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.Activities().CreateActivity(ctx, a); err != nil {
		return domain.Activity{}, fmt.Errorf("append activity: %w", err)
	}
	return a, nil
}

// Feed returns one page of the audit trail plus the total matching count.
func (l *ActivityLedger) Feed(ctx context.Context, f store.ActivityFilter) ([]domain.Activity, int, error) {
	return l.store.Activities().ListActivities(ctx, f)
}
