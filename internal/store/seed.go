// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/oparking/internal/auth"
)

// SeedOptions controls what Seed creates.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
	// SampleLots adds two demo lots when the database has none.
	SampleLots bool
}

// ErrSeedAdminPassword is returned when the admin account must be created
// but no password was supplied.
var ErrSeedAdminPassword = errors.New("admin password is required to create the admin account")

// ErrSeedAdminEmailTaken is returned when the admin email belongs to a
// regular user account.
var ErrSeedAdminEmailTaken = errors.New("admin email is registered to a non-admin user")

type sampleLot struct {
	name     string
	location string
	labels   []string
}

var sampleLots = []sampleLot{
	{name: "Main Lot", location: "Front Gate", labels: []string{"A1", "A2"}},
	{name: "West Basement", location: "B2 Level", labels: []string{"B1"}},
}

// Seed creates the admin account and, optionally, sample lots. Running it
// again is a no-op for anything that already exists.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	if err := seedAdmin(ctx, db, opts); err != nil {
		return err
	}
	if opts.SampleLots {
		if err := seedSampleLots(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	queries := New(db)
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))

	existing, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin {
			return fmt.Errorf("%w: %s", ErrSeedAdminEmailTaken, email)
		}
		slog.Info("admin user already exists, skipping seed", "email", email)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	if opts.AdminPassword == "" {
		return ErrSeedAdminPassword
	}

	passwordHash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Name:         opts.AdminName,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created admin user", "id", user.ID, "email", user.Email)
	return nil
}

func seedSampleLots(ctx context.Context, db *sql.DB) error {
	return InTx(ctx, db, func(q *Queries) error {
		n, err := q.CountLots(ctx)
		if err != nil {
			return fmt.Errorf("counting lots: %w", err)
		}
		if n > 0 {
			slog.Info("lots already exist, skipping sample data", "lots", n)
			return nil
		}

		now := time.Now().UTC()
		for _, s := range sampleLots {
			lot, err := q.CreateLot(ctx, CreateLotParams{
				Name:      s.name,
				Location:  s.location,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("creating lot %q: %w", s.name, err)
			}
			for _, label := range s.labels {
				if _, err := q.CreateSpot(ctx, CreateSpotParams{
					LotID:     lot.ID,
					Label:     label,
					CreatedAt: now,
					UpdatedAt: now,
				}); err != nil {
					return fmt.Errorf("creating spot %s: %w", label, err)
				}
			}
			slog.Info("created sample lot", "id", lot.ID, "name", lot.Name, "spots", len(s.labels))
		}
		return nil
	})
}
