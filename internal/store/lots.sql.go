// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const lotColumns = `id, name, location, created_at, updated_at`

func scanLot(row interface{ Scan(...any) error }) (ParkingLot, error) {
	var l ParkingLot
	err := row.Scan(&l.ID, &l.Name, &l.Location, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

const createLot = `-- name: CreateLot :one
INSERT INTO parking_lots (name, location, created_at, updated_at)
VALUES (?, ?, ?, ?)
RETURNING ` + lotColumns

type CreateLotParams struct {
	Name      string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateLot(ctx context.Context, arg CreateLotParams) (ParkingLot, error) {
	row := q.db.QueryRowContext(ctx, createLot, arg.Name, arg.Location, arg.CreatedAt, arg.UpdatedAt)
	return scanLot(row)
}

const getLotByID = `-- name: GetLotByID :one
SELECT ` + lotColumns + ` FROM parking_lots WHERE id = ?`

func (q *Queries) GetLotByID(ctx context.Context, id int64) (ParkingLot, error) {
	return scanLot(q.db.QueryRowContext(ctx, getLotByID, id))
}

const updateLot = `-- name: UpdateLot :one
UPDATE parking_lots SET name = ?, location = ?, updated_at = ?
WHERE id = ?
RETURNING ` + lotColumns

type UpdateLotParams struct {
	Name      string
	Location  string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateLot(ctx context.Context, arg UpdateLotParams) (ParkingLot, error) {
	row := q.db.QueryRowContext(ctx, updateLot, arg.Name, arg.Location, arg.UpdatedAt, arg.ID)
	return scanLot(row)
}

const deleteLot = `-- name: DeleteLot :execrows
DELETE FROM parking_lots WHERE id = ?`

func (q *Queries) DeleteLot(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteLot, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listLots = `-- name: ListLots :many
SELECT ` + lotColumns + ` FROM parking_lots ORDER BY id`

func (q *Queries) ListLots(ctx context.Context) ([]ParkingLot, error) {
	rows, err := q.db.QueryContext(ctx, listLots)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ParkingLot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const listLotSummaries = `-- name: ListLotSummaries :many
SELECT l.id, l.name, l.location,
       COUNT(s.id) AS total_spots,
       COALESCE(SUM(CASE WHEN s.status = 'EMPTY' THEN 1 ELSE 0 END), 0) AS empty_spots
FROM parking_lots l
LEFT JOIN parking_spots s ON s.lot_id = l.id
GROUP BY l.id, l.name, l.location
ORDER BY l.id`

func (q *Queries) ListLotSummaries(ctx context.Context) ([]LotSummary, error) {
	rows, err := q.db.QueryContext(ctx, listLotSummaries)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []LotSummary
	for rows.Next() {
		var s LotSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Location, &s.TotalSpots, &s.EmptySpots); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const countLots = `-- name: CountLots :one
SELECT COUNT(*) FROM parking_lots`

func (q *Queries) CountLots(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countLots).Scan(&n)
	return n, err
}
