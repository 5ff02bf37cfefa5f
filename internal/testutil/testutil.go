// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/olegiv/oparking/internal/auth"
	"github.com/olegiv/oparking/internal/store"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a migrated database in a temporary directory.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "oparking-test.db")

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

// CreateUser inserts an account with the given password.
func CreateUser(t *testing.T, db *sql.DB, name, email, password string, isAdmin bool) store.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	now := time.Now().UTC()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

// CreateLot inserts a lot with EMPTY spots labelled S1..SN.
func CreateLot(t *testing.T, db *sql.DB, name string, spots int) store.ParkingLot {
	t.Helper()

	ctx := context.Background()
	q := store.New(db)
	now := time.Now().UTC()

	lot, err := q.CreateLot(ctx, store.CreateLotParams{Name: name, Location: name + " street", CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreateLot: %v", err)
	}
	for i := 1; i <= spots; i++ {
		if _, err := q.CreateSpot(ctx, store.CreateSpotParams{
			LotID:     lot.ID,
			Label:     "S" + strconv.Itoa(i),
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("CreateSpot: %v", err)
		}
	}
	return lot
}
