package service_test

import (
	"context"
	"testing"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/service"
	"github.com/opsportal/portal/internal/portal/store"

	"github.com/stretchr/testify/require"
)

func TestInbox(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	inbox := service.NewInboxService(st)
	fanout := newFanout(st)

	owner := seedUser(t, st, "owner@example.com", domain.RoleUser, true)
	other := seedUser(t, st, "other@example.com", domain.RoleUser, true)

	fanout.Dispatch(ctx, service.Event{Kind: domain.NotifyProjectCreated, Title: "a", Message: "a"}, []string{owner.ID, other.ID})
	fanout.Dispatch(ctx, service.Event{Kind: domain.NotifyProjectUpdated, Title: "b", Message: "b"}, []string{owner.ID})
	fanout.Dispatch(ctx, service.Event{Kind: domain.NotifyProjectDeleted, Title: "c", Message: "c"}, []string{owner.ID})

	t.Run("lists newest first with counters", func(t *testing.T) {
		page, err := inbox.List(ctx, store.NotificationFilter{UserID: owner.ID})
		require.NoError(t, err)
		require.Equal(t, 3, page.Total)
		require.Equal(t, 3, page.UnreadCount)
		require.Len(t, page.Notifications, 3)
		require.Equal(t, domain.NotifyProjectDeleted, page.Notifications[0].Kind)
	})

	t.Run("kind filter narrows the page but not ownership", func(t *testing.T) {
		page, err := inbox.List(ctx, store.NotificationFilter{UserID: owner.ID, Kind: domain.NotifyProjectCreated})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
	})

	t.Run("mark read is scoped to the owner", func(t *testing.T) {
		ownerPage, err := inbox.List(ctx, store.NotificationFilter{UserID: owner.ID})
		require.NoError(t, err)
		otherPage, err := inbox.List(ctx, store.NotificationFilter{UserID: other.ID})
		require.NoError(t, err)

		// Mixing in someone else's notification id changes nothing for
		// them and only flips the caller's own rows.
		ids := []string{ownerPage.Notifications[0].ID, otherPage.Notifications[0].ID}
		n, err := inbox.MarkRead(ctx, owner.ID, ids)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		count, err := inbox.UnreadCount(ctx, other.ID)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("mark read with no ids is a validation error", func(t *testing.T) {
		_, err := inbox.MarkRead(ctx, owner.ID, nil)
		require.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("marking an already read notification changes nothing", func(t *testing.T) {
		page, err := inbox.List(ctx, store.NotificationFilter{UserID: owner.ID, UnreadOnly: true})
		require.NoError(t, err)
		require.NotEmpty(t, page.Notifications)

		read := page.Notifications[0].ID
		n, err := inbox.MarkRead(ctx, owner.ID, []string{read})
		require.NoError(t, err)
		require.Equal(t, 1, n)

		n, err = inbox.MarkRead(ctx, owner.ID, []string{read})
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("mark all read clears the counter", func(t *testing.T) {
		require.NoError(t, inbox.MarkAllRead(ctx, owner.ID))

		count, err := inbox.UnreadCount(ctx, owner.ID)
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("unread only filter", func(t *testing.T) {
		page, err := inbox.List(ctx, store.NotificationFilter{UserID: other.ID, UnreadOnly: true})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
	})

	t.Run("cannot delete someone else's notification", func(t *testing.T) {
		otherPage, err := inbox.List(ctx, store.NotificationFilter{UserID: other.ID})
		require.NoError(t, err)

		err = inbox.Delete(ctx, owner.ID, otherPage.Notifications[0].ID)
		require.ErrorIs(t, err, service.ErrNotFound)

		err = inbox.Delete(ctx, other.ID, otherPage.Notifications[0].ID)
		require.NoError(t, err)
	})
}
