// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route patterns for chi router registration.
const (
	RouteRoot       = "/"
	RouteRegister   = "/register"
	RouteUserLogin  = "/user_login"
	RouteAdminLogin = "/admin_login"
	RouteLogout     = "/logout"

	RouteAdminDashboard = "/admin_dashboard"
	RouteCreateLot      = "/create_parking_lot"
	RouteEditLot        = "/edit_parking_lot/{id}"
	RouteDeleteLot      = "/delete_parking_lot/{id}"
	RouteLotSpots       = "/parking_spots/{lot_id}"
	RouteAddSpot        = "/add_parking_spot/{lot_id}"
	RouteDeleteSpot     = "/delete_parking_spot/{id}"
	RouteAdminEvents    = "/admin_events"

	RouteUserDashboard = "/user_dashboard"
	RouteReserve       = "/reserve_parking_spot"
	RouteRelease       = "/release_parking_spot/{id}"
	RouteHistory       = "/parking_history"

	RouteHealth      = "/health"
	RouteHealthLive  = "/health/live"
	RouteHealthReady = "/health/ready"
	RouteStatic      = "/static/*"
)

// URL parameter names.
const (
	paramID    = "id"
	paramLotID = "lot_id"
)

const redirectLotSpots = "/parking_spots/%d"

// Flash messages shown to users.
const (
	msgEmailTaken         = "Email already exists!"
	msgRegistered         = "Registration successful. Please login."
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidAdmin       = "Invalid admin credentials"
	msgLoggedOut          = "You have logged out."
	msgInvalidForm        = "Invalid form data"

	msgLotCreated      = "Parking lot created."
	msgLotUpdated      = "Parking lot updated!"
	msgLotDeleted      = "Parking lot deleted."
	msgLotOccupied     = "Can only delete lot if all spots are EMPTY."
	msgSpotOccupied    = "Can only delete spot if EMPTY."
	msgSpotDeleted     = "Spot deleted."
	msgSpotAdded       = "Spot added."
	msgNumSpotsInvalid = "Number of spots must be a whole number."

	msgNoSpot        = "No available spots in this lot!"
	msgChooseLot     = "Please choose a parking lot."
	msgReserved      = "Spot %s reserved. Park your vehicle!"
	msgNoReservation = "No active reservation found!"
	msgReleased      = "Spot released! Time used: %s min. Amount due: %s"
)

// Page sizes of the admin tables.
const (
	ReservationsPerPage = 25
	EventsPerPage       = 25
)
