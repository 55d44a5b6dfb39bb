package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/service"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/internal/portal/store/drivers/sqlite"
	"github.com/opsportal/portal/pkg/cryptox"
	"github.com/opsportal/portal/pkg/idx"
	"github.com/opsportal/portal/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *jwtx.Tokens {
	t.Helper()

	tokens, err := jwtx.New(
		[]byte("test-access-secret-0123456789abcdef"),
		[]byte("test-refresh-secret-0123456789abcdef"),
		"portal-test",
	)
	require.NoError(t, err)
	return tokens
}

// seedUser inserts a user with the given role and returns it. The
// password for every seeded user is "correct horse battery".
func seedUser(t *testing.T, st store.Store, email, role string, active bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword("correct horse battery")
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func identity(u domain.User) jwtx.Identity {
	return jwtx.Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func newFanout(st store.Store) *service.Fanout {
	return service.NewFanout(st, newTestLogger(), 4, time.Second)
}

func newProjectService(st store.Store) *service.ProjectService {
	log := newTestLogger()
	return service.NewProjectService(st, service.NewStakeholderResolver(st), newFanout(st), service.NewActivityLedger(st), log)
}

func newUserService(st store.Store) *service.UserService {
	log := newTestLogger()
	return service.NewUserService(st, service.NewStakeholderResolver(st), newFanout(st), service.NewActivityLedger(st), log)
}

func inboxOf(t *testing.T, st store.Store, userID string) []domain.Notification {
	t.Helper()

	list, _, err := st.Notifications().ListNotifications(context.Background(), store.NotificationFilter{UserID: userID})
	require.NoError(t, err)
	return list
}
