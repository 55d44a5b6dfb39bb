package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/store"
)

// InboxService serves one user's notification inbox. Every operation is
// scoped to the owning user id taken from the authenticated identity, so
// a user can never read or mutate someone else's notifications.
type InboxService struct {
	store store.Store
}

func NewInboxService(st store.Store) *InboxService {
	return &InboxService{store: st}
}

// InboxPage is one page of the inbox plus the counters clients render
// badges from.
type InboxPage struct {
	Notifications []domain.Notification
	Total         int
	UnreadCount   int
	Page          int
	Limit         int
}

func (s *InboxService) List(ctx context.Context, f store.NotificationFilter) (InboxPage, error) {
	list, total, err := s.store.Notifications().ListNotifications(ctx, f)
	if err != nil {
		return InboxPage{}, fmt.Errorf("list notifications: %w", err)
	}

	unread, err := s.store.Notifications().CountUnread(ctx, f.UserID)
	if err != nil {
		return InboxPage{}, fmt.Errorf("count unread: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	return InboxPage{
		Notifications: list,
		Total:         total,
		UnreadCount:   unread,
		Page:          page,
		Limit:         limit,
	}, nil
}

func (s *InboxService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.Notifications().CountUnread(ctx, userID)
}

// MarkRead flips the given notifications to read, ignoring ids that do
// not exist or belong to someone else. Returns how many changed.
func (s *InboxService) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no notification ids", ErrValidation)
	}
	return s.store.Notifications().MarkRead(ctx, userID, ids)
}

func (s *InboxService) MarkAllRead(ctx context.Context, userID string) error {
	return s.store.Notifications().MarkAllRead(ctx, userID)
}

func (s *InboxService) Delete(ctx context.Context, userID, id string) error {
	err := s.store.Notifications().DeleteNotification(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
