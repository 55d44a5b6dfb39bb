package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/pkg/cryptox"
	"github.com/opsportal/portal/pkg/jwtx"
)

// SessionService owns login, refresh and introspection of the signed-in
// identity. Refresh tokens are stateless: a refresh re-derives the
// identity from the store, so role or name changes land in the next
// access token without a new login, and deactivation cuts the session
// off at the next refresh.
type SessionService struct {
	store  store.Store
	tokens *jwtx.Tokens
	log    *slog.Logger
}

func NewSessionService(st store.Store, tokens *jwtx.Tokens, log *slog.Logger) *SessionService {
	return &SessionService{store: st, tokens: tokens, log: log.With("service", "session")}
}

// Login verifies the credentials and mints a fresh token pair.
func (s *SessionService) Login(ctx context.Context, email, password string) (jwtx.Identity, domain.TokenPair, error) {
	user, err := s.store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a verification anyway so response timing does not
			// reveal whether the email exists.
			_ = cryptox.VerifyPassword(password, cryptox.DummyHash)
			return jwtx.Identity{}, domain.TokenPair{}, ErrUnauthorized
		}
		return jwtx.Identity{}, domain.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return jwtx.Identity{}, domain.TokenPair{}, ErrUnauthorized
		}
		return jwtx.Identity{}, domain.TokenPair{}, fmt.Errorf("verify password: %w", err)
	}

	if !user.IsActive {
		return jwtx.Identity{}, domain.TokenPair{}, ErrForbidden
	}

	ident := identityOf(user)
	access, refresh, err := s.tokens.Issue(ident)
	if err != nil {
		return jwtx.Identity{}, domain.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}

	s.log.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return ident, domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates the refresh token and issues a new pair. Identity
// claims come from the current store row, not the old token.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (jwtx.Identity, domain.TokenPair, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return jwtx.Identity{}, domain.TokenPair{}, ErrUnauthorized
	}

	user, err := s.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return jwtx.Identity{}, domain.TokenPair{}, ErrUnauthorized
		}
		return jwtx.Identity{}, domain.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return jwtx.Identity{}, domain.TokenPair{}, ErrForbidden
	}

	ident := identityOf(user)
	access, refresh, err := s.tokens.Issue(ident)
	if err != nil {
		return jwtx.Identity{}, domain.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}

	return ident, domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Me resolves the current identity to its full user record.
func (s *SessionService) Me(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func identityOf(u domain.User) jwtx.Identity {
	return jwtx.Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
