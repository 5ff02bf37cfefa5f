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

	"github.com/olegiv/oparking/internal/cache"
	"github.com/olegiv/oparking/internal/store"
)

// MaxSpotsPerLot bounds the number of spots CreateLot accepts.
const MaxSpotsPerLot = 500

// InventoryService manages lots and spots.
type InventoryService struct {
	db           *sql.DB
	queries      *store.Queries
	availability *cache.AvailabilityCache
	logger       *slog.Logger
	now          func() time.Time
}

// NewInventoryService creates a new InventoryService.
// If availability is nil, lot summaries are always read from the database.
func NewInventoryService(db *sql.DB, availability *cache.AvailabilityCache, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		db:           db,
		queries:      store.New(db),
		availability: availability,
		logger:       logger,
		now:          utcNow,
	}
}

// SpotLabel returns the label of the nth generated spot.
func SpotLabel(n int64) string {
	return fmt.Sprintf("S%d", n)
}

func validateLot(name, location string) error {
	if name == "" {
		return invalid("name", "Name is required.")
	}
	if location == "" {
		return invalid("location", "Location is required.")
	}
	return nil
}

// CreateLot creates a lot with numSpots EMPTY spots labelled S1..SN.
func (s *InventoryService) CreateLot(ctx context.Context, name, location string, numSpots int) (store.ParkingLot, error) {
	name, location = cleanText(name), cleanText(location)
	if err := validateLot(name, location); err != nil {
		return store.ParkingLot{}, err
	}
	if numSpots < 0 || numSpots > MaxSpotsPerLot {
		return store.ParkingLot{}, invalid("num_spots", fmt.Sprintf("Number of spots must be between 0 and %d.", MaxSpotsPerLot))
	}

	var lot store.ParkingLot
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		now := s.now()
		var err error
		lot, err = q.CreateLot(ctx, store.CreateLotParams{
			Name:      name,
			Location:  location,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating lot: %w", err)
		}

		for i := 1; i <= numSpots; i++ {
			if _, err := q.CreateSpot(ctx, store.CreateSpotParams{
				LotID:     lot.ID,
				Label:     SpotLabel(int64(i)),
				CreatedAt: now,
				UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("creating spot %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return store.ParkingLot{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("parking lot created", "lot_id", lot.ID, "name", lot.Name, "spots", numSpots)
	return lot, nil
}

// GetLot returns the lot with id, or ErrNotFound.
func (s *InventoryService) GetLot(ctx context.Context, id int64) (store.ParkingLot, error) {
	lot, err := s.queries.GetLotByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ParkingLot{}, ErrNotFound
	}
	return lot, err
}

// UpdateLot changes a lot's name and location.
func (s *InventoryService) UpdateLot(ctx context.Context, id int64, name, location string) (store.ParkingLot, error) {
	name, location = cleanText(name), cleanText(location)
	if err := validateLot(name, location); err != nil {
		return store.ParkingLot{}, err
	}

	lot, err := s.queries.UpdateLot(ctx, store.UpdateLotParams{
		Name:      name,
		Location:  location,
		UpdatedAt: s.now(),
		ID:        id,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return store.ParkingLot{}, ErrNotFound
	}
	if err != nil {
		return store.ParkingLot{}, fmt.Errorf("updating lot: %w", err)
	}

	s.invalidate(ctx)
	s.logger.Info("parking lot updated", "lot_id", lot.ID)
	return lot, nil
}

// DeleteLot removes a lot and its spots. It fails with ErrLotOccupied while
// any spot is OCCUPIED.
func (s *InventoryService) DeleteLot(ctx context.Context, id int64) error {
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetLotByID(ctx, id); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("loading lot: %w", err)
		}

		occupied, err := q.CountOccupiedSpotsByLot(ctx, id)
		if err != nil {
			return fmt.Errorf("counting occupied spots: %w", err)
		}
		if occupied > 0 {
			return ErrLotOccupied
		}

		if _, err := q.DeleteSpotsByLot(ctx, id); err != nil {
			return fmt.Errorf("deleting spots: %w", err)
		}
		if _, err := q.DeleteLot(ctx, id); err != nil {
			return fmt.Errorf("deleting lot: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.logger.Info("parking lot deleted", "lot_id", id)
	return nil
}

// AddSpot appends an EMPTY spot labelled S<n+1>, where n is the highest
// existing S-number in the lot.
func (s *InventoryService) AddSpot(ctx context.Context, lotID int64) (store.ParkingSpot, error) {
	var spot store.ParkingSpot
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetLotByID(ctx, lotID); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("loading lot: %w", err)
		}

		n, err := q.MaxSpotNumber(ctx, lotID)
		if err != nil {
			return fmt.Errorf("reading spot numbers: %w", err)
		}

		now := s.now()
		spot, err = q.CreateSpot(ctx, store.CreateSpotParams{
			LotID:     lotID,
			Label:     SpotLabel(n + 1),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating spot: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.ParkingSpot{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("parking spot added", "lot_id", lotID, "spot_id", spot.ID, "label", spot.Label)
	return spot, nil
}

// DeleteSpot removes an EMPTY spot. The returned spot is the one looked up,
// also on ErrSpotOccupied, so callers know its lot.
func (s *InventoryService) DeleteSpot(ctx context.Context, id int64) (store.ParkingSpot, error) {
	spot, err := s.queries.GetSpotByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ParkingSpot{}, ErrNotFound
	}
	if err != nil {
		return store.ParkingSpot{}, fmt.Errorf("loading spot: %w", err)
	}

	n, err := s.queries.DeleteEmptySpot(ctx, id)
	if err != nil {
		return spot, fmt.Errorf("deleting spot: %w", err)
	}
	if n == 0 {
		return spot, ErrSpotOccupied
	}

	s.invalidate(ctx)
	s.logger.Info("parking spot deleted", "lot_id", spot.LotID, "spot_id", spot.ID, "label", spot.Label)
	return spot, nil
}

// ListLots returns every lot with its spot counts.
func (s *InventoryService) ListLots(ctx context.Context) ([]store.LotSummary, error) {
	if s.availability == nil {
		return s.queries.ListLotSummaries(ctx)
	}
	return s.availability.LotSummaries(ctx, s.queries.ListLotSummaries)
}

// LotSpots returns a lot and its spots ordered by id.
func (s *InventoryService) LotSpots(ctx context.Context, lotID int64) (store.ParkingLot, []store.ParkingSpot, error) {
	lot, err := s.GetLot(ctx, lotID)
	if err != nil {
		return store.ParkingLot{}, nil, err
	}
	spots, err := s.queries.ListSpotsByLot(ctx, lotID)
	if err != nil {
		return store.ParkingLot{}, nil, fmt.Errorf("listing spots: %w", err)
	}
	return lot, spots, nil
}

func (s *InventoryService) invalidate(ctx context.Context) {
	if s.availability != nil {
		s.availability.Invalidate(ctx)
	}
}
