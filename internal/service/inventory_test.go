// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oparking/internal/store"
	"github.com/olegiv/oparking/internal/testutil"
)

func newInventory(t *testing.T) (*InventoryService, *ParkingService, store.User) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	inv := NewInventoryService(db, nil, testutil.TestLoggerSilent())
	parking := NewParkingService(db, nil, testutil.TestLoggerSilent(), ParkingOptions{})
	user := testutil.CreateUser(t, db, "Driver", "driver@example.com", "pass", false)
	return inv, parking, user
}

func TestCreateLot(t *testing.T) {
	inv, _, _ := newInventory(t)
	ctx := context.Background()

	lot, err := inv.CreateLot(ctx, " North ", "1 Main St", 3)
	require.NoError(t, err)
	assert.Equal(t, "North", lot.Name)

	_, spots, err := inv.LotSpots(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, spots, 3)
	for i, s := range spots {
		assert.Equal(t, SpotLabel(int64(i+1)), s.Label)
		assert.Equal(t, store.SpotEmpty, s.Status)
	}
}

func TestCreateLot_Validation(t *testing.T) {
	inv, _, _ := newInventory(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		lot      string
		location string
		spots    int
		field    string
	}{
		{"missing name", "", "Gate", 1, "name"},
		{"missing location", "Lot", " ", 1, "location"},
		{"negative spots", "Lot", "Gate", -1, "num_spots"},
		{"too many spots", "Lot", "Gate", MaxSpotsPerLot + 1, "num_spots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inv.CreateLot(ctx, tt.lot, tt.location, tt.spots)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	lots, err := inv.ListLots(ctx)
	require.NoError(t, err)
	assert.Empty(t, lots)
}

func TestCreateLot_ZeroSpots(t *testing.T) {
	inv, _, _ := newInventory(t)

	lot, err := inv.CreateLot(context.Background(), "Overflow", "Back", 0)
	require.NoError(t, err)

	_, spots, err := inv.LotSpots(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Empty(t, spots)
}

func TestUpdateLot(t *testing.T) {
	inv, _, _ := newInventory(t)
	ctx := context.Background()

	lot, err := inv.CreateLot(ctx, "Old", "Here", 1)
	require.NoError(t, err)

	updated, err := inv.UpdateLot(ctx, lot.ID, "New", "There")
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "There", updated.Location)

	_, err = inv.UpdateLot(ctx, 999, "X", "Y")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = inv.UpdateLot(ctx, lot.ID, "", "Y")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteLot(t *testing.T) {
	inv, parking, user := newInventory(t)
	ctx := context.Background()

	lot, err := inv.CreateLot(ctx, "Busy", "Gate", 2)
	require.NoError(t, err)

	res, err := parking.Reserve(ctx, user.ID, lot.ID)
	require.NoError(t, err)

	err = inv.DeleteLot(ctx, lot.ID)
	assert.ErrorIs(t, err, ErrLotOccupied)
	_, spots, err := inv.LotSpots(ctx, lot.ID)
	require.NoError(t, err)
	assert.Len(t, spots, 2, "guarded delete leaves spots in place")

	_, err = parking.Release(ctx, user.ID, res.ID)
	require.NoError(t, err)

	require.NoError(t, inv.DeleteLot(ctx, lot.ID))
	_, err = inv.GetLot(ctx, lot.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := parking.UserReservations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Busy", history[0].LotName)
	assert.False(t, history[0].LotID.Valid)

	assert.ErrorIs(t, inv.DeleteLot(ctx, lot.ID), ErrNotFound)
}

func TestAddSpot(t *testing.T) {
	inv, _, _ := newInventory(t)
	ctx := context.Background()

	lot, err := inv.CreateLot(ctx, "Main", "Gate", 2)
	require.NoError(t, err)

	_, spots, err := inv.LotSpots(ctx, lot.ID)
	require.NoError(t, err)
	_, err = inv.DeleteSpot(ctx, spots[0].ID)
	require.NoError(t, err)

	spot, err := inv.AddSpot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, "S3", spot.Label, "numbering continues after the highest label")

	_, err = inv.AddSpot(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSpot(t *testing.T) {
	inv, parking, user := newInventory(t)
	ctx := context.Background()

	lot, err := inv.CreateLot(ctx, "Main", "Gate", 2)
	require.NoError(t, err)
	res, err := parking.Reserve(ctx, user.ID, lot.ID)
	require.NoError(t, err)

	spot, err := inv.DeleteSpot(ctx, res.SpotID.Int64)
	assert.ErrorIs(t, err, ErrSpotOccupied)
	assert.Equal(t, lot.ID, spot.LotID)

	_, spots, err := inv.LotSpots(ctx, lot.ID)
	require.NoError(t, err)
	require.Len(t, spots, 2)

	deleted, err := inv.DeleteSpot(ctx, spots[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "S2", deleted.Label)

	_, err = inv.DeleteSpot(ctx, spots[1].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListLots(t *testing.T) {
	inv, parking, user := newInventory(t)
	ctx := context.Background()

	a, err := inv.CreateLot(ctx, "A", "Gate", 2)
	require.NoError(t, err)
	_, err = inv.CreateLot(ctx, "B", "Gate", 1)
	require.NoError(t, err)
	_, err = parking.Reserve(ctx, user.ID, a.ID)
	require.NoError(t, err)

	lots, err := inv.ListLots(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, int64(1), lots[0].OccupiedSpots())
	assert.Equal(t, int64(1), lots[1].EmptySpots)
}

func TestLotSpots_NotFound(t *testing.T) {
	inv, _, _ := newInventory(t)

	_, _, err := inv.LotSpots(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
