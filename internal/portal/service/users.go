package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/pkg/cryptox"
	"github.com/opsportal/portal/pkg/idx"
	"github.com/opsportal/portal/pkg/jwtx"
)

// UserService owns user management. All mutations here are admin-only,
// enforced at the HTTP layer; the service still guards the rules that
// must hold regardless of transport, such as not deleting yourself.
type UserService struct {
	store    store.Store
	resolver *StakeholderResolver
	fanout   *Fanout
	ledger   *ActivityLedger
	log      *slog.Logger
}

func NewUserService(st store.Store, resolver *StakeholderResolver, fanout *Fanout, ledger *ActivityLedger, log *slog.Logger) *UserService {
	return &UserService{
		store:    st,
		resolver: resolver,
		fanout:   fanout,
		ledger:   ledger,
		log:      log.With("service", "users"),
	}
}

type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

type UpdateUserInput struct {
	Email *string
	Name  *string
	Role  *string
}

func (s *UserService) Create(ctx context.Context, actor jwtx.Identity, in CreateUserInput) (domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return domain.User{}, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if in.Name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(in.Password) < 8 {
		return domain.User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if in.Role != domain.RoleAdmin && in.Role != domain.RoleUser {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return fmt.Errorf("%w: email already in use", ErrConflict)
			}
			return fmt.Errorf("create user: %w", err)
		}
		details := fmt.Sprintf("Created user %s", user.Email)
		_, err := s.ledger.Record(ctx, tx, domain.ActionCreate, details, actor.ID, nil)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	s.notifyUserEvent(ctx, actor, domain.NotifyUserCreated,
		"New User Created",
		fmt.Sprintf("%s created user %s (%s)", actor.Name, user.Name, user.Email),
		user, user.ID,
	)

	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	user, err := s.store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.store.Users().ListUsers(ctx)
}

func (s *UserService) Update(ctx context.Context, actor jwtx.Identity, id string, in UpdateUserInput) (domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" || !strings.Contains(email, "@") {
			return domain.User{}, fmt.Errorf("%w: a valid email is required", ErrValidation)
		}
		user.Email = email
	}
	if in.Name != nil {
		if *in.Name == "" {
			return domain.User{}, fmt.Errorf("%w: name is required", ErrValidation)
		}
		user.Name = *in.Name
	}
	if in.Role != nil {
		if *in.Role != domain.RoleAdmin && *in.Role != domain.RoleUser {
			return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, *in.Role)
		}
		// An admin demoting themselves could lock the portal out of
		// administration entirely.
		if id == actor.ID && *in.Role != domain.RoleAdmin {
			return domain.User{}, fmt.Errorf("%w: cannot change your own role", ErrValidation)
		}
		user.Role = *in.Role
	}
	user.UpdatedAt = time.Now().UTC()

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return fmt.Errorf("%w: email already in use", ErrConflict)
			}
			// The row can vanish between the read above and this write.
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("update user: %w", err)
		}
		details := fmt.Sprintf("Updated user %s", user.Email)
		_, err := s.ledger.Record(ctx, tx, domain.ActionUpdate, details, actor.ID, nil)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	s.notifyUserEvent(ctx, actor, domain.NotifyUserUpdated,
		"User Updated",
		fmt.Sprintf("%s updated user %s", actor.Name, user.Name),
		user, user.ID,
	)

	return user, nil
}

// SetActive activates or deactivates an account. Deactivation does not
// revoke live access tokens; it takes effect at the next refresh.
func (s *UserService) SetActive(ctx context.Context, actor jwtx.Identity, id string, active bool) (domain.User, error) {
	if id == actor.ID && !active {
		return domain.User{}, fmt.Errorf("%w: cannot deactivate your own account", ErrValidation)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	verb := "Deactivated"
	if active {
		verb = "Activated"
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetUserActive(ctx, id, active); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("set user active: %w", err)
		}
		details := fmt.Sprintf("%s user %s", verb, user.Email)
		_, err := s.ledger.Record(ctx, tx, domain.ActionUpdate, details, actor.ID, nil)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	user.IsActive = active

	s.notifyUserEvent(ctx, actor, domain.NotifyUserStatusChanged,
		"User Status Changed",
		fmt.Sprintf("%s %s user %s", actor.Name, strings.ToLower(verb), user.Name),
		user, user.ID,
	)

	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, actor jwtx.Identity, id, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.Users().UpdatePasswordHash(ctx, id, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.log.InfoContext(ctx, "password changed", "user_id", id, "actor_id", actor.ID)
	return nil
}

func (s *UserService) Delete(ctx context.Context, actor jwtx.Identity, id string) error {
	if id == actor.ID {
		return fmt.Errorf("%w: cannot delete your own account", ErrValidation)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().DeleteUser(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("delete user: %w", err)
		}
		details := fmt.Sprintf("Deleted user %s", user.Email)
		_, err := s.ledger.Record(ctx, tx, domain.ActionDelete, details, actor.ID, nil)
		return err
	})
	if err != nil {
		return err
	}

	// The deleted user's row is gone; only the admins hear.
	s.notifyUserEvent(ctx, actor, domain.NotifyUserDeleted,
		"User Deleted",
		fmt.Sprintf("%s deleted user %s", actor.Name, user.Name),
		user, "",
	)

	return nil
}

// notifyUserEvent broadcasts a user-management event to the admin roster
// plus the affected user, excluding the actor. affectedID is empty when
// the subject's row no longer exists. Failures are logged, never
// surfaced.
func (s *UserService) notifyUserEvent(ctx context.Context, actor jwtx.Identity, kind domain.NotificationKind, title, message string, subject domain.User, affectedID string) {
	recipients, err := s.resolver.ForUserEvent(ctx, affectedID, actor.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "resolve admin roster failed", "error", err)
		return
	}
	s.fanout.Dispatch(ctx, Event{
		Kind:    kind,
		Title:   title,
		Message: message,
		Data: map[string]any{
			"userId":    subject.ID,
			"userEmail": subject.Email,
			"actorId":   actor.ID,
			"actorName": actor.Name,
		},
	}, recipients)
}
