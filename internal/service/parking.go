// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/oparking/internal/billing"
	"github.com/olegiv/oparking/internal/cache"
	"github.com/olegiv/oparking/internal/events"
	"github.com/olegiv/oparking/internal/model"
	"github.com/olegiv/oparking/internal/store"
)

// publishTimeout bounds how long a request waits on the broker.
const publishTimeout = 3 * time.Second

// ParkingService allocates spots to users and bills them on release.
type ParkingService struct {
	db           *sql.DB
	queries      *store.Queries
	billing      *billing.Calculator
	availability *cache.AvailabilityCache
	publisher    events.Publisher
	eventLog     *EventService
	logger       *slog.Logger
	now          func() time.Time
}

// ParkingOptions holds the optional collaborators of a ParkingService.
type ParkingOptions struct {
	Availability *cache.AvailabilityCache
	Publisher    events.Publisher
	EventLog     *EventService
}

// NewParkingService creates a new ParkingService. Nil options are replaced
// with no-op behaviour.
func NewParkingService(db *sql.DB, calc *billing.Calculator, logger *slog.Logger, opts ParkingOptions) *ParkingService {
	if calc == nil {
		calc = billing.NewCalculator(billing.DefaultHourlyRate, "")
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	return &ParkingService{
		db:           db,
		queries:      store.New(db),
		billing:      calc,
		availability: opts.Availability,
		publisher:    opts.Publisher,
		eventLog:     opts.EventLog,
		logger:       logger,
		now:          utcNow,
	}
}

// Billing returns the calculator used for fees.
func (s *ParkingService) Billing() *billing.Calculator {
	return s.billing
}

// Reserve claims the lowest-id EMPTY spot of a lot for userID and opens a
// reservation on it, atomically.
func (s *ParkingService) Reserve(ctx context.Context, userID, lotID int64) (store.Reservation, error) {
	var res store.Reservation
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		lot, err := q.GetLotByID(ctx, lotID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading lot: %w", err)
		}

		now := s.now()
		spot, err := q.ClaimEmptySpot(ctx, store.ClaimEmptySpotParams{UpdatedAt: now, LotID: lotID})
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoAvailableSpot
		}
		if err != nil {
			return fmt.Errorf("claiming spot: %w", err)
		}

		res, err = q.CreateReservation(ctx, store.CreateReservationParams{
			UserID:    userID,
			SpotID:    spot.ID,
			LotID:     lot.ID,
			SpotLabel: spot.Label,
			LotName:   lot.Name,
			StartTime: now,
		})
		if isUniqueViolation(err) {
			return ErrNoAvailableSpot
		}
		if err != nil {
			return fmt.Errorf("creating reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.Reservation{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("spot reserved", "reservation_id", res.ID, "user_id", userID, "lot_id", lotID, "spot", res.SpotLabel)
	s.audit(ctx, userID, "Spot reserved", res)
	s.publish(ctx, events.TypeReservationCreated, res)
	return res, nil
}

// Release closes userID's active reservation, stores the elapsed minutes and
// fee, and frees the spot. A reservation that is closed or owned by someone
// else yields ErrReservationNotActive without any change.
func (s *ParkingService) Release(ctx context.Context, userID, reservationID int64) (store.Reservation, error) {
	var done store.Reservation
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		r, err := q.GetReservationByID(ctx, reservationID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading reservation: %w", err)
		}
		if r.UserID != userID || !r.IsActive() {
			return ErrReservationNotActive
		}

		end := s.now()
		minutes, cost := s.billing.Charge(r.StartTime, end)

		done, err = q.CompleteReservation(ctx, store.CompleteReservationParams{
			EndTime:        end,
			ElapsedMinutes: minutes,
			Cost:           cost,
			ID:             r.ID,
			UserID:         userID,
		})
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotActive
		}
		if err != nil {
			return fmt.Errorf("completing reservation: %w", err)
		}

		if r.SpotID.Valid {
			if _, err := q.ReleaseSpot(ctx, store.ReleaseSpotParams{UpdatedAt: end, ID: r.SpotID.Int64}); err != nil {
				return fmt.Errorf("releasing spot: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return store.Reservation{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("spot released",
		"reservation_id", done.ID,
		"user_id", userID,
		"spot", done.SpotLabel,
		"minutes", done.ElapsedMinutes.Float64,
		"cost", done.Cost.Float64,
	)
	s.audit(ctx, userID, "Spot released", done)
	s.publish(ctx, events.TypeReservationReleased, done)
	return done, nil
}

// ActiveReservation returns the user's most recent active reservation, or
// ErrNotFound.
func (s *ParkingService) ActiveReservation(ctx context.Context, userID int64) (store.Reservation, error) {
	active, err := s.ActiveReservations(ctx, userID)
	if err != nil {
		return store.Reservation{}, err
	}
	if len(active) == 0 {
		return store.Reservation{}, ErrNotFound
	}
	return active[0], nil
}

// ActiveReservations returns all of the user's active reservations, newest first.
func (s *ParkingService) ActiveReservations(ctx context.Context, userID int64) ([]store.Reservation, error) {
	return s.queries.ListActiveReservationsByUser(ctx, userID)
}

// UserReservations returns the user's reservation history, newest first.
func (s *ParkingService) UserReservations(ctx context.Context, userID int64) ([]store.Reservation, error) {
	return s.queries.ListReservationsByUser(ctx, userID)
}

// AllReservations returns a page of reservations of all users, newest first.
func (s *ParkingService) AllReservations(ctx context.Context, limit, offset int64) ([]store.ReservationWithUser, error) {
	return s.queries.ListAllReservations(ctx, store.ListAllReservationsParams{Limit: limit, Offset: offset})
}

// CountReservations returns the number of reservations of all users.
func (s *ParkingService) CountReservations(ctx context.Context) (int64, error) {
	return s.queries.CountReservations(ctx)
}

// StaleReservations returns reservations still active after olderThan.
func (s *ParkingService) StaleReservations(ctx context.Context, olderThan time.Duration) ([]store.Reservation, error) {
	return s.queries.ListStaleActiveReservations(ctx, s.now().Add(-olderThan))
}

func (s *ParkingService) invalidate(ctx context.Context) {
	if s.availability != nil {
		s.availability.Invalidate(ctx)
	}
}

func (s *ParkingService) audit(ctx context.Context, userID int64, message string, r store.Reservation) {
	if s.eventLog == nil {
		return
	}
	meta := map[string]any{
		"reservation_id": r.ID,
		"lot":            r.LotName,
		"spot":           r.SpotLabel,
	}
	if r.Cost.Valid {
		meta["minutes"] = billing.Round2(r.ElapsedMinutes.Float64)
		meta["cost"] = r.Cost.Float64
	}
	_ = s.eventLog.LogInfo(ctx, model.EventCategoryReservation, message, &userID, "", meta)
}

func (s *ParkingService) publish(ctx context.Context, eventType string, r store.Reservation) {
	ev := events.ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID,
		UserID:        r.UserID,
		LotID:         r.LotID.Int64,
		LotName:       r.LotName,
		SpotLabel:     r.SpotLabel,
		StartTime:     r.StartTime,
		OccurredAt:    s.now(),
	}
	if r.EndTime.Valid {
		end := r.EndTime.Time
		minutes := r.ElapsedMinutes.Float64
		cost := r.Cost.Float64
		ev.EndTime, ev.ElapsedMinutes, ev.Cost = &end, &minutes, &cost
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, ev); err != nil {
		s.logger.Warn("failed to publish reservation event", "type", eventType, "reservation_id", r.ID, "error", err)
	}
}
