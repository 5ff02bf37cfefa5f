// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: stale reservation
// warnings and audit event retention.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/oparking/internal/model"
	"github.com/olegiv/oparking/internal/store"
)

// Cron schedules of the built-in jobs.
const (
	StaleCheckSchedule = "*/15 * * * *"
	EventPurgeSchedule = "0 3 * * *"
)

// jobTimeout bounds a single job run.
const jobTimeout = time.Minute

// StaleFinder lists reservations active for longer than a duration.
type StaleFinder interface {
	StaleReservations(ctx context.Context, olderThan time.Duration) ([]store.Reservation, error)
}

// EventPurger deletes audit events older than a duration.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config holds scheduler configuration.
type Config struct {
	Reservations StaleFinder
	Events       EventPurger
	// StaleAfter is how long a reservation may stay active before it is
	// reported; 0 disables the check.
	StaleAfter time.Duration
	// Retention is how long audit events are kept; 0 disables purging.
	Retention time.Duration
}

// Scheduler handles the periodic jobs.
type Scheduler struct {
	cron   *cron.Cron
	cfg    Config
	logger *slog.Logger
}

// New creates a new scheduler instance.
func New(cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the enabled jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.cfg.Reservations != nil && s.cfg.StaleAfter > 0 {
		if _, err := s.cron.AddFunc(StaleCheckSchedule, s.run("stale reservation check", func(ctx context.Context) error {
			_, err := s.CheckStaleReservations(ctx)
			return err
		})); err != nil {
			return fmt.Errorf("scheduling stale check: %w", err)
		}
	}

	if s.cfg.Events != nil && s.cfg.Retention > 0 {
		if _, err := s.cron.AddFunc(EventPurgeSchedule, s.run("event purge", func(ctx context.Context) error {
			_, err := s.PurgeEvents(ctx)
			return err
		})); err != nil {
			return fmt.Errorf("scheduling event purge: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(name string, job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	}
}

// CheckStaleReservations logs a warning for every reservation active longer
// than StaleAfter and returns how many were found.
func (s *Scheduler) CheckStaleReservations(ctx context.Context) (int, error) {
	stale, err := s.cfg.Reservations.StaleReservations(ctx, s.cfg.StaleAfter)
	if err != nil {
		return 0, fmt.Errorf("listing stale reservations: %w", err)
	}

	for _, r := range stale {
		s.logger.Warn("stale reservation",
			"category", model.EventCategoryReservation,
			"reservation_id", r.ID,
			"user_id", r.UserID,
			"lot", r.LotName,
			"spot", r.SpotLabel,
			"since", r.StartTime.Format(time.RFC3339),
		)
	}
	return len(stale), nil
}

// PurgeEvents deletes audit events older than Retention.
func (s *Scheduler) PurgeEvents(ctx context.Context) (int64, error) {
	n, err := s.cfg.Events.DeleteOldEvents(ctx, s.cfg.Retention)
	if err != nil {
		return 0, fmt.Errorf("purging events: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged old events", "count", n, "retention", s.cfg.Retention)
	}
	return n, nil
}
