// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const reservationColumns = `id, user_id, spot_id, lot_id, spot_label, lot_name, start_time, end_time, elapsed_minutes, cost`

func scanReservation(row interface{ Scan(...any) error }) (Reservation, error) {
	var r Reservation
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.SpotID,
		&r.LotID,
		&r.SpotLabel,
		&r.LotName,
		&r.StartTime,
		&r.EndTime,
		&r.ElapsedMinutes,
		&r.Cost,
	)
	return r, err
}

func collectReservations(rows *sql.Rows) ([]Reservation, error) {
	defer func() { _ = rows.Close() }()

	var items []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const createReservation = `-- name: CreateReservation :one
INSERT INTO reservations (user_id, spot_id, lot_id, spot_label, lot_name, start_time)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + reservationColumns

type CreateReservationParams struct {
	UserID    int64
	SpotID    int64
	LotID     int64
	SpotLabel string
	LotName   string
	StartTime time.Time
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, createReservation,
		arg.UserID,
		arg.SpotID,
		arg.LotID,
		arg.SpotLabel,
		arg.LotName,
		arg.StartTime,
	)
	return scanReservation(row)
}

const getReservationByID = `-- name: GetReservationByID :one
SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`

func (q *Queries) GetReservationByID(ctx context.Context, id int64) (Reservation, error) {
	return scanReservation(q.db.QueryRowContext(ctx, getReservationByID, id))
}

const completeReservation = `-- name: CompleteReservation :one
UPDATE reservations SET end_time = ?, elapsed_minutes = ?, cost = ?
WHERE id = ? AND user_id = ? AND end_time IS NULL
RETURNING ` + reservationColumns

type CompleteReservationParams struct {
	EndTime        time.Time
	ElapsedMinutes float64
	Cost           float64
	ID             int64
	UserID         int64
}

// CompleteReservation closes an active reservation owned by UserID.
// Returns sql.ErrNoRows if the reservation is missing, owned by someone
// else or already closed.
func (q *Queries) CompleteReservation(ctx context.Context, arg CompleteReservationParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, completeReservation,
		arg.EndTime,
		arg.ElapsedMinutes,
		arg.Cost,
		arg.ID,
		arg.UserID,
	)
	return scanReservation(row)
}

const listActiveReservationsByUser = `-- name: ListActiveReservationsByUser :many
SELECT ` + reservationColumns + ` FROM reservations
WHERE user_id = ? AND end_time IS NULL
ORDER BY start_time DESC, id DESC`

func (q *Queries) ListActiveReservationsByUser(ctx context.Context, userID int64) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, listActiveReservationsByUser, userID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

const listReservationsByUser = `-- name: ListReservationsByUser :many
SELECT ` + reservationColumns + ` FROM reservations
WHERE user_id = ?
ORDER BY start_time DESC, id DESC`

func (q *Queries) ListReservationsByUser(ctx context.Context, userID int64) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, listReservationsByUser, userID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

const listStaleActiveReservations = `-- name: ListStaleActiveReservations :many
SELECT ` + reservationColumns + ` FROM reservations
WHERE end_time IS NULL AND start_time < ?
ORDER BY start_time`

// ListStaleActiveReservations returns active reservations started before cutoff.
func (q *Queries) ListStaleActiveReservations(ctx context.Context, cutoff time.Time) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, listStaleActiveReservations, cutoff)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

const countReservations = `-- name: CountReservations :one
SELECT COUNT(*) FROM reservations`

func (q *Queries) CountReservations(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countReservations)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listAllReservations = `-- name: ListAllReservations :many
SELECT r.id, r.user_id, r.spot_id, r.lot_id, r.spot_label, r.lot_name,
       r.start_time, r.end_time, r.elapsed_minutes, r.cost,
       u.name, u.email
FROM reservations r
JOIN users u ON u.id = r.user_id
ORDER BY r.start_time DESC, r.id DESC
LIMIT ? OFFSET ?`

type ListAllReservationsParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListAllReservations(ctx context.Context, arg ListAllReservationsParams) ([]ReservationWithUser, error) {
	rows, err := q.db.QueryContext(ctx, listAllReservations, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ReservationWithUser
	for rows.Next() {
		var i ReservationWithUser
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.SpotID,
			&i.LotID,
			&i.SpotLabel,
			&i.LotName,
			&i.StartTime,
			&i.EndTime,
			&i.ElapsedMinutes,
			&i.Cost,
			&i.UserName,
			&i.UserEmail,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
