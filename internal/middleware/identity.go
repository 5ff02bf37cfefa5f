// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for identity, access control,
// CSRF protection, login throttling and security headers.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oparking/internal/service"
	"github.com/olegiv/oparking/internal/session"
	"github.com/olegiv/oparking/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyIdentity holds the *Identity of the signed-in account.
const ContextKeyIdentity ContextKey = "identity"

// Login pages that gated routes redirect to.
const (
	UserLoginPath  = "/user_login"
	AdminLoginPath = "/admin_login"
)

// Identity is the signed-in account of the current request.
type Identity struct {
	UserID  int64
	Name    string
	Email   string
	IsAdmin bool
}

// UserLoader resolves a session's user id.
type UserLoader interface {
	GetUser(ctx context.Context, id int64) (store.User, error)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// GetIdentity returns the request's identity, or nil for anonymous requests.
func GetIdentity(r *http.Request) *Identity {
	id, _ := r.Context().Value(ContextKeyIdentity).(*Identity)
	return id
}

// LoadIdentity resolves the session's user id into an Identity on the
// request context. Sessions pointing at a missing account are cleared.
func LoadIdentity(sm *scs.SessionManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), session.KeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if errors.Is(err, service.ErrNotFound) {
				sm.Remove(r.Context(), session.KeyUserID)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("failed to load session user", "user_id", userID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			ctx := WithIdentity(r.Context(), &Identity{
				UserID:  user.ID,
				Name:    user.Name,
				Email:   user.Email,
				IsAdmin: user.IsAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser admits regular (non-admin) accounts and redirects everyone
// else to the user login page.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r)
		if id == nil || id.IsAdmin {
			http.Redirect(w, r, UserLoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin admits admin accounts and redirects everyone else to the
// admin login page.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r)
		if id == nil || !id.IsAdmin {
			if id != nil {
				slog.Warn("admin route denied", "user_id", id.UserID, "path", r.URL.Path)
			}
			http.Redirect(w, r, AdminLoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
