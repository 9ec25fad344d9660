// Package bootstrap handles one-time initialization tasks for the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/campusshop/internal/auth"
	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
	"github.com/google/uuid"
)

// AdminConfig contains configuration for the initial admin user.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// Validate checks that the admin configuration is valid.
func (c *AdminConfig) Validate() error {
	if c.Email == "" {
		return errors.New("admin email is required")
	}
	if c.Password == "" {
		return errors.New("admin password is required")
	}
	if len(c.Password) < 12 {
		return errors.New("admin password must be at least 12 characters")
	}
	return nil
}

// EnsureAdmin creates the admin account if it doesn't exist.
// This function is idempotent - safe to call on every startup.
//
// An existing account with the admin email is promoted to the admin role.
// Without a password the step is skipped; the email still receives the admin
// role when it registers.
func EnsureAdmin(ctx context.Context, users repository.UserRepository, cfg *AdminConfig, logger *slog.Logger) error {
	if cfg == nil || cfg.Email == "" || cfg.Password == "" {
		logger.Info("bootstrap: skipping admin creation - ADMIN_PASSWORD not set",
			"hint", "the admin email is granted the admin role when it registers",
		)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid admin configuration: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(cfg.Email))

	existing, err := users.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role == domain.RoleAdmin {
			logger.Info("bootstrap: admin user already exists", "email", email)
			return nil
		}
		existing.Role = domain.RoleAdmin
		if err := users.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to promote admin user: %w", err)
		}
		logger.Info("bootstrap: existing user promoted to admin", "email", email)
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}

	passwordHash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "Admin"
	}

	id := uuid.NewString()
	err = users.Create(ctx, &domain.User{
		ID:           id,
		Name:         name,
		Email:        email,
		Role:         domain.RoleAdmin,
		Avatar:       "https://i.pravatar.cc/150?u=" + id,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		// Created concurrently by another instance.
		logger.Info("bootstrap: admin user already exists (concurrent creation)", "email", email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("bootstrap: admin user created successfully", "email", email)
	return nil
}
