// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oparking/internal/middleware"
	"github.com/olegiv/oparking/internal/render"
	"github.com/olegiv/oparking/internal/service"
	"github.com/olegiv/oparking/internal/store"
)

// UserHandler serves the reservation pages of regular users.
type UserHandler struct {
	inventory      *service.InventoryService
	parking        *service.ParkingService
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(inventory *service.InventoryService, parking *service.ParkingService, renderer *render.Renderer, sm *scs.SessionManager) *UserHandler {
	return &UserHandler{
		inventory:      inventory,
		parking:        parking,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// UserDashboardData holds data for the user dashboard.
type UserDashboardData struct {
	Active  []store.Reservation
	History []store.Reservation
}

// ReserveData holds data for the reserve page.
type ReserveData struct {
	Lots []store.LotSummary
}

// HistoryData holds data for the history page.
type HistoryData struct {
	Reservations []store.Reservation
	Total        float64
}

// Dashboard renders the user's active and past reservations.
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)

	all, err := h.parking.UserReservations(r.Context(), id.UserID)
	if err != nil {
		logAndInternalError(w, "failed to list reservations", "user_id", id.UserID, "error", err)
		return
	}

	var data UserDashboardData
	data.History = all
	for _, res := range all {
		if res.IsActive() {
			data.Active = append(data.Active, res)
		}
	}

	renderPage(w, r, h.renderer, "user_dashboard", render.TemplateData{
		Title: "Dashboard",
		Data:  data,
	})
}

// ReserveForm lists lots with their free spot counts.
func (h *UserHandler) ReserveForm(w http.ResponseWriter, r *http.Request) {
	lots, err := h.inventory.ListLots(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list lots", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "reserve_parking_spot", render.TemplateData{
		Title: "Reserve a parking spot",
		Data:  ReserveData{Lots: lots},
	})
}

// Reserve claims a spot in the chosen lot.
func (h *UserHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.sessionManager, RouteReserve, msgInvalidForm)
		return
	}
	lotID, err := strconv.ParseInt(r.FormValue("lot_id"), 10, 64)
	if err != nil || lotID <= 0 {
		flashError(w, r, h.sessionManager, RouteReserve, msgChooseLot)
		return
	}

	res, err := h.parking.Reserve(r.Context(), id.UserID, lotID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		renderNotFound(w, r, h.renderer)
	case errors.Is(err, service.ErrNoAvailableSpot):
		flashError(w, r, h.sessionManager, RouteReserve, msgNoSpot)
	case err != nil:
		logAndInternalError(w, "failed to reserve spot", "user_id", id.UserID, "lot_id", lotID, "error", err)
	default:
		flashSuccess(w, r, h.sessionManager, RouteUserDashboard, fmt.Sprintf(msgReserved, res.SpotLabel))
	}
}

// Release ends one of the user's active reservations.
func (h *UserHandler) Release(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)

	resID, ok := urlID(r, paramID)
	if !ok {
		renderNotFound(w, r, h.renderer)
		return
	}

	res, err := h.parking.Release(r.Context(), id.UserID, resID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		renderNotFound(w, r, h.renderer)
	case errors.Is(err, service.ErrReservationNotActive):
		flashError(w, r, h.sessionManager, RouteUserDashboard, msgNoReservation)
	case err != nil:
		logAndInternalError(w, "failed to release spot", "user_id", id.UserID, "reservation_id", resID, "error", err)
	default:
		calc := h.parking.Billing()
		flashSuccess(w, r, h.sessionManager, RouteUserDashboard, fmt.Sprintf(msgReleased,
			calc.FormatMinutes(res.ElapsedMinutes.Float64), calc.Format(res.Cost.Float64)))
	}
}

// History lists all of the user's reservations, newest first.
func (h *UserHandler) History(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)

	reservations, err := h.parking.UserReservations(r.Context(), id.UserID)
	if err != nil {
		logAndInternalError(w, "failed to list reservations", "user_id", id.UserID, "error", err)
		return
	}

	var total float64
	for _, res := range reservations {
		if res.Cost.Valid {
			total += res.Cost.Float64
		}
	}

	renderPage(w, r, h.renderer, "parking_history", render.TemplateData{
		Title: "Parking history",
		Data:  HistoryData{Reservations: reservations, Total: total},
	})
}
