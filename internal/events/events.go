// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package events publishes reservation domain events to a message broker.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeReservationCreated  = "reservation.created"
	TypeReservationReleased = "reservation.released"
)

// ReservationEvent is the JSON payload published for reservation changes.
type ReservationEvent struct {
	Type           string     `json:"type"`
	ReservationID  int64      `json:"reservation_id"`
	UserID         int64      `json:"user_id"`
	LotID          int64      `json:"lot_id"`
	LotName        string     `json:"lot_name"`
	SpotLabel      string     `json:"spot_label"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	ElapsedMinutes *float64   `json:"elapsed_minutes,omitempty"`
	Cost           *float64   `json:"cost,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// Publisher delivers domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ReservationEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
