package app

import (
	"context"
	"fmt"
	"time"

	"github.com/opsportal/portal/internal/portal/domain"
	"github.com/opsportal/portal/pkg/cryptox"
	"github.com/opsportal/portal/pkg/idx"
)

// seedAdmin creates the first administrator when the users table is
// empty. Without at least one admin nobody can sign in to create other
// accounts, since there is no self-service registration.
func (app *Application) seedAdmin(ctx context.Context) error {
	users, err := app.db.Users().ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("check existing users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}

	if app.cfg.AdminPassword == "" {
		app.logger.Warn("no users exist and PORTAL_ADMIN_PASSWORD is unset; skipping admin seed")
		return nil
	}

	hash, err := cryptox.HashPassword(app.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := domain.User{
		ID:           idx.New().String(),
		Email:        app.cfg.AdminEmail,
		Name:         app.cfg.AdminName,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := app.db.Users().CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	app.logger.Info("seeded initial admin user", "email", admin.Email)
	return nil
}
