// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the SQLite-backed session manager and the
// flash-message helpers stored in it.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	KeyUserID    = "user_id"
	KeyFlash     = "flash"
	KeyFlashType = "flash_type"
)

// Flash types.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// CleanupInterval is how often expired sessions are purged from the store.
const CleanupInterval = 10 * time.Minute

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.NewWithCleanupInterval(db, CleanupInterval)

	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev

	// __Host- cookies require Secure and Path=/ with no Domain.
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// PutFlash stores a one-shot message for the next rendered page.
func PutFlash(ctx context.Context, sm *scs.SessionManager, kind, message string) {
	sm.Put(ctx, KeyFlash, message)
	sm.Put(ctx, KeyFlashType, kind)
}

// PopFlash returns and clears the pending flash message.
func PopFlash(ctx context.Context, sm *scs.SessionManager) (message, kind string) {
	message = sm.PopString(ctx, KeyFlash)
	kind = sm.PopString(ctx, KeyFlashType)
	if message != "" && kind == "" {
		kind = FlashInfo
	}
	return message, kind
}
