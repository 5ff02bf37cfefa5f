// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"strings"
)

// Domain errors returned by the services. Handlers map them to flash
// messages or status codes with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrNoAvailableSpot      = errors.New("no available spot in lot")
	ErrReservationNotActive = errors.New("no active reservation")
	ErrLotOccupied          = errors.New("lot has occupied spots")
	ErrSpotOccupied         = errors.New("spot is occupied")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrValidation           = errors.New("validation failed")
)

// ValidationError describes a rejected input field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
// Both SQLite drivers in use surface the engine message verbatim.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
