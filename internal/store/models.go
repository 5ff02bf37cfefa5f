// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// Spot statuses.
const (
	SpotEmpty    = "EMPTY"
	SpotOccupied = "OCCUPIED"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

type ParkingLot struct {
	ID        int64
	Name      string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ParkingSpot struct {
	ID        int64
	LotID     int64
	Label     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEmpty reports whether the spot can be reserved or deleted.
func (s ParkingSpot) IsEmpty() bool {
	return s.Status == SpotEmpty
}

// Reservation binds a user to a spot. EndTime, ElapsedMinutes and Cost stay
// NULL while the reservation is active.
type Reservation struct {
	ID             int64
	UserID         int64
	SpotID         sql.NullInt64
	LotID          sql.NullInt64
	SpotLabel      string
	LotName        string
	StartTime      time.Time
	EndTime        sql.NullTime
	ElapsedMinutes sql.NullFloat64
	Cost           sql.NullFloat64
}

// IsActive reports whether the reservation has not been released yet.
func (r Reservation) IsActive() bool {
	return !r.EndTime.Valid
}

type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	IpAddress string
	CreatedAt time.Time
}

// LotSummary is a lot with its spot counts.
type LotSummary struct {
	ID         int64
	Name       string
	Location   string
	TotalSpots int64
	EmptySpots int64
}

// OccupiedSpots returns the number of spots currently in use.
func (l LotSummary) OccupiedSpots() int64 {
	return l.TotalSpots - l.EmptySpots
}

// ReservationWithUser is a reservation joined with its owner.
type ReservationWithUser struct {
	Reservation
	UserName  string
	UserEmail string
}
