package service_test

import (
	"context"
	"testing"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/service"

	"github.com/stretchr/testify/require"
)

func TestSessionLogin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sessions := service.NewSessionService(st, newTestTokens(t), newTestLogger())

	user := seedUser(t, st, "alice@example.com", domain.RoleUser, true)
	seedUser(t, st, "dormant@example.com", domain.RoleUser, false)

	t.Run("valid credentials return identity and pair", func(t *testing.T) {
		ident, pair, err := sessions.Login(ctx, "alice@example.com", "correct horse battery")
		require.NoError(t, err)
		require.Equal(t, user.ID, ident.ID)
		require.Equal(t, domain.RoleUser, ident.Role)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		_, _, err := sessions.Login(ctx, "alice@example.com", "wrong")
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("unknown email gets the same error as wrong password", func(t *testing.T) {
		_, _, err := sessions.Login(ctx, "nobody@example.com", "correct horse battery")
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("deactivated account is forbidden even with valid credentials", func(t *testing.T) {
		_, _, err := sessions.Login(ctx, "dormant@example.com", "correct horse battery")
		require.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestSessionRefresh(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	tokens := newTestTokens(t)
	sessions := service.NewSessionService(st, tokens, newTestLogger())

	user := seedUser(t, st, "bob@example.com", domain.RoleUser, true)
	_, pair, err := sessions.Login(ctx, "bob@example.com", "correct horse battery")
	require.NoError(t, err)

	t.Run("valid refresh issues a new pair", func(t *testing.T) {
		ident, next, err := sessions.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, ident.ID)
		require.NotEmpty(t, next.AccessToken)
		require.NotEmpty(t, next.RefreshToken)
	})

	t.Run("access token is not accepted as a refresh token", func(t *testing.T) {
		_, _, err := sessions.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})

	t.Run("refresh reflects a role change made since login", func(t *testing.T) {
		promoted := user
		promoted.Role = domain.RoleAdmin
		require.NoError(t, st.Users().UpdateUser(ctx, promoted))

		ident, next, err := sessions.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, ident.Role)

		fromAccess, err := tokens.VerifyAccess(next.AccessToken)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, fromAccess.Role)
	})

	t.Run("refresh does not invalidate a previously issued refresh token", func(t *testing.T) {
		_, first, err := sessions.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)

		// The original token remains valid after the rotation above.
		_, second, err := sessions.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)

		_, _, err = sessions.Refresh(ctx, first.RefreshToken)
		require.NoError(t, err)
		_, _, err = sessions.Refresh(ctx, second.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("deactivation cuts refresh off", func(t *testing.T) {
		require.NoError(t, st.Users().SetUserActive(ctx, user.ID, false))

		_, _, err := sessions.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("refresh for a deleted user is unauthorized", func(t *testing.T) {
		require.NoError(t, st.Users().DeleteUser(ctx, user.ID))

		_, _, err := sessions.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, service.ErrUnauthorized)
	})
}
