// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds shared constants for audit events.
package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth        = "auth"
	EventCategoryLot         = "lot"
	EventCategorySpot        = "spot"
	EventCategoryReservation = "reservation"
	EventCategorySystem      = "system"
)
