// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const spotColumns = `id, lot_id, label, status, created_at, updated_at`

func scanSpot(row interface{ Scan(...any) error }) (ParkingSpot, error) {
	var s ParkingSpot
	err := row.Scan(&s.ID, &s.LotID, &s.Label, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const createSpot = `-- name: CreateSpot :one
INSERT INTO parking_spots (lot_id, label, status, created_at, updated_at)
VALUES (?, ?, 'EMPTY', ?, ?)
RETURNING ` + spotColumns

type CreateSpotParams struct {
	LotID     int64
	Label     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateSpot(ctx context.Context, arg CreateSpotParams) (ParkingSpot, error) {
	row := q.db.QueryRowContext(ctx, createSpot, arg.LotID, arg.Label, arg.CreatedAt, arg.UpdatedAt)
	return scanSpot(row)
}

const getSpotByID = `-- name: GetSpotByID :one
SELECT ` + spotColumns + ` FROM parking_spots WHERE id = ?`

func (q *Queries) GetSpotByID(ctx context.Context, id int64) (ParkingSpot, error) {
	return scanSpot(q.db.QueryRowContext(ctx, getSpotByID, id))
}

const listSpotsByLot = `-- name: ListSpotsByLot :many
SELECT ` + spotColumns + ` FROM parking_spots WHERE lot_id = ? ORDER BY id`

func (q *Queries) ListSpotsByLot(ctx context.Context, lotID int64) ([]ParkingSpot, error) {
	rows, err := q.db.QueryContext(ctx, listSpotsByLot, lotID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ParkingSpot
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// The status predicate is repeated in the outer WHERE so the claim never
// succeeds on a spot another writer flipped between subquery and update.
const claimEmptySpot = `-- name: ClaimEmptySpot :one
UPDATE parking_spots SET status = 'OCCUPIED', updated_at = ?
WHERE id = (
    SELECT id FROM parking_spots
    WHERE lot_id = ? AND status = 'EMPTY'
    ORDER BY id
    LIMIT 1
) AND status = 'EMPTY'
RETURNING ` + spotColumns

type ClaimEmptySpotParams struct {
	UpdatedAt time.Time
	LotID     int64
}

// ClaimEmptySpot atomically marks the first EMPTY spot of a lot OCCUPIED.
// Returns sql.ErrNoRows when the lot has no EMPTY spot.
func (q *Queries) ClaimEmptySpot(ctx context.Context, arg ClaimEmptySpotParams) (ParkingSpot, error) {
	return scanSpot(q.db.QueryRowContext(ctx, claimEmptySpot, arg.UpdatedAt, arg.LotID))
}

const releaseSpot = `-- name: ReleaseSpot :execrows
UPDATE parking_spots SET status = 'EMPTY', updated_at = ?
WHERE id = ? AND status = 'OCCUPIED'`

type ReleaseSpotParams struct {
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) ReleaseSpot(ctx context.Context, arg ReleaseSpotParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, releaseSpot, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countOccupiedSpotsByLot = `-- name: CountOccupiedSpotsByLot :one
SELECT COUNT(*) FROM parking_spots WHERE lot_id = ? AND status = 'OCCUPIED'`

func (q *Queries) CountOccupiedSpotsByLot(ctx context.Context, lotID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countOccupiedSpotsByLot, lotID).Scan(&n)
	return n, err
}

const deleteEmptySpot = `-- name: DeleteEmptySpot :execrows
DELETE FROM parking_spots WHERE id = ? AND status = 'EMPTY'`

func (q *Queries) DeleteEmptySpot(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEmptySpot, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteSpotsByLot = `-- name: DeleteSpotsByLot :execrows
DELETE FROM parking_spots WHERE lot_id = ?`

func (q *Queries) DeleteSpotsByLot(ctx context.Context, lotID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSpotsByLot, lotID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const maxSpotNumber = `-- name: MaxSpotNumber :one
SELECT COALESCE(MAX(CAST(SUBSTR(label, 2) AS INTEGER)), 0)
FROM parking_spots
WHERE lot_id = ? AND label GLOB 'S[0-9]*'`

// MaxSpotNumber returns the highest n among the lot's "S<n>" labels, or 0.
func (q *Queries) MaxSpotNumber(ctx context.Context, lotID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, maxSpotNumber, lotID).Scan(&n)
	return n, err
}
