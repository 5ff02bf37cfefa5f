// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/oparking/internal/auth"
	"github.com/olegiv/oparking/internal/store"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 4

// IdentityService registers and authenticates accounts.
type IdentityService struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(db *sql.DB, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		db:      db,
		queries: store.New(db),
		logger:  logger,
		now:     utcNow,
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a regular (non-admin) account.
func (s *IdentityService) Register(ctx context.Context, name, email, password string) (store.User, error) {
	name = cleanText(name)
	email = NormalizeEmail(email)

	switch {
	case name == "":
		return store.User{}, invalid("name", "Name is required.")
	case email == "":
		return store.User{}, invalid("email", "Email is required.")
	case !strings.Contains(email, "@"):
		return store.User{}, invalid("email", "Email address is invalid.")
	case len(password) < MinPasswordLength:
		return store.User{}, invalid("password", fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}

	if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
		return store.User{}, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, fmt.Errorf("checking email: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if isUniqueViolation(err) {
		return store.User{}, ErrEmailTaken
	}
	if err != nil {
		return store.User{}, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Authenticate checks credentials against accounts whose admin flag equals
// wantAdmin. Every failure is ErrInvalidCredentials.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string, wantAdmin bool) (store.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, fmt.Errorf("loading user: %w", err)
	}
	if user.IsAdmin != wantAdmin {
		return store.User{}, ErrInvalidCredentials
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("unreadable password hash", "user_id", user.ID, "error", err)
		return store.User{}, ErrInvalidCredentials
	}
	if !ok {
		return store.User{}, ErrInvalidCredentials
	}

	now := s.now()
	if auth.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, password, now)
	}

	if err := s.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: now, Valid: true},
		ID:          user.ID,
	}); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = sql.NullTime{Time: now, Valid: true}

	return user, nil
}

func (s *IdentityService) rehash(ctx context.Context, userID int64, password string, now time.Time) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Warn("password rehash failed", "user_id", userID, "error", err)
		return
	}
	if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: hash,
		UpdatedAt:    now,
		ID:           userID,
	}); err != nil {
		s.logger.Warn("password rehash failed", "user_id", userID, "error", err)
		return
	}
	s.logger.Info("password hash upgraded", "user_id", userID)
}

// GetUser returns the account with id, or ErrNotFound.
func (s *IdentityService) GetUser(ctx context.Context, id int64) (store.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrNotFound
	}
	return user, err
}

// ListUsers returns all non-admin accounts.
func (s *IdentityService) ListUsers(ctx context.Context) ([]store.User, error) {
	return s.queries.ListRegularUsers(ctx)
}
