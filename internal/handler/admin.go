// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oparking/internal/middleware"
	"github.com/olegiv/oparking/internal/model"
	"github.com/olegiv/oparking/internal/render"
	"github.com/olegiv/oparking/internal/service"
	"github.com/olegiv/oparking/internal/session"
	"github.com/olegiv/oparking/internal/store"
)

// AdminHandler serves the admin dashboard and lot/spot management.
type AdminHandler struct {
	identity       *service.IdentityService
	inventory      *service.InventoryService
	parking        *service.ParkingService
	events         *service.EventService
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	identity *service.IdentityService,
	inventory *service.InventoryService,
	parking *service.ParkingService,
	events *service.EventService,
	renderer *render.Renderer,
	sm *scs.SessionManager,
) *AdminHandler {
	return &AdminHandler{
		identity:       identity,
		inventory:      inventory,
		parking:        parking,
		events:         events,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// DashboardData holds data for the admin dashboard.
type DashboardData struct {
	Users        []store.User
	Lots         []store.LotSummary
	Reservations []store.ReservationWithUser
	Pagination   Pagination
}

// LotForm holds lot form values.
type LotForm struct {
	ID       int64
	Name     string
	Location string
	NumSpots int
}

// LotSpotsData holds data for a lot's spot page.
type LotSpotsData struct {
	Lot   store.ParkingLot
	Spots []store.ParkingSpot
}

// Dashboard renders users, lots and reservations.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.identity.ListUsers(ctx)
	if err != nil {
		logAndInternalError(w, "failed to list users", "error", err)
		return
	}
	lots, err := h.inventory.ListLots(ctx)
	if err != nil {
		logAndInternalError(w, "failed to list lots", "error", err)
		return
	}
	total, err := h.parking.CountReservations(ctx)
	if err != nil {
		logAndInternalError(w, "failed to count reservations", "error", err)
		return
	}
	pagination := buildPagination(parsePage(r), total, ReservationsPerPage, RouteAdminDashboard)
	reservations, err := h.parking.AllReservations(ctx, ReservationsPerPage, pagination.Offset())
	if err != nil {
		logAndInternalError(w, "failed to list reservations", "error", err)
		return
	}

	renderPage(w, r, h.renderer, "admin_dashboard", render.TemplateData{
		Title: "Admin dashboard",
		Data: DashboardData{
			Users:        users,
			Lots:         lots,
			Reservations: reservations,
			Pagination:   pagination,
		},
	})
}

// NewLotForm renders the create lot form.
func (h *AdminHandler) NewLotForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, "create_parking_lot", render.TemplateData{
		Title: "Create parking lot",
		Data:  LotForm{},
	})
}

// CreateLot handles the create lot form submission.
func (h *AdminHandler) CreateLot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.sessionManager, RouteCreateLot, msgInvalidForm)
		return
	}

	form := LotForm{
		Name:     r.FormValue("name"),
		Location: r.FormValue("location"),
	}
	rerender := func(message string) {
		renderPage(w, r, h.renderer, "create_parking_lot", render.TemplateData{
			Title:     "Create parking lot",
			Data:      form,
			Flash:     message,
			FlashType: session.FlashError,
		})
	}

	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue("num_spots")))
	if err != nil {
		rerender(msgNumSpotsInvalid)
		return
	}
	form.NumSpots = n

	lot, err := h.inventory.CreateLot(r.Context(), form.Name, form.Location, n)
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			rerender(msg)
			return
		}
		logAndInternalError(w, "failed to create lot", "error", err)
		return
	}

	h.audit(r, model.EventCategoryLot, "Parking lot created", map[string]any{"lot_id": lot.ID, "name": lot.Name, "spots": n})
	flashSuccess(w, r, h.sessionManager, RouteAdminDashboard, msgLotCreated)
}

// EditLotForm renders the edit lot form.
func (h *AdminHandler) EditLotForm(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, paramID)
	if !ok {
		renderNotFound(w, r, h.renderer)
		return
	}

	lot, err := h.inventory.GetLot(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		renderNotFound(w, r, h.renderer)
		return
	}
	if err != nil {
		logAndInternalError(w, "failed to load lot", "lot_id", id, "error", err)
		return
	}

	renderPage(w, r, h.renderer, "edit_parking_lot", render.TemplateData{
		Title: "Edit parking lot",
		Data:  LotForm{ID: lot.ID, Name: lot.Name, Location: lot.Location},
	})
}

// UpdateLot handles the edit lot form submission.
func (h *AdminHandler) UpdateLot(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, paramID)
	if !ok {
		renderNotFound(w, r, h.renderer)
		return
	}
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.sessionManager, RouteAdminDashboard, msgInvalidForm)
		return
	}

	form := LotForm{ID: id, Name: r.FormValue("name"), Location: r.FormValue("location")}
	_, err := h.inventory.UpdateLot(r.Context(), id, form.Name, form.Location)
	switch {
	case errors.Is(err, service.ErrNotFound):
		renderNotFound(w, r, h.renderer)
		return
	case err != nil:
		if msg, ok := validationMessage(err); ok {
			renderPage(w, r, h.renderer, "edit_parking_lot", render.TemplateData{
				Title:     "Edit parking lot",
				Data:      form,
				Flash:     msg,
				FlashType: session.FlashError,
			})
			return
		}
		logAndInternalError(w, "failed to update lot", "lot_id", id, "error", err)
		return
	}

	h.audit(r, model.EventCategoryLot, "Parking lot updated", map[string]any{"lot_id": id})
	flashSuccess(w, r, h.sessionManager, RouteAdminDashboard, msgLotUpdated)
}

// DeleteLot removes a lot whose spots are all EMPTY.
func (h *AdminHandler) DeleteLot(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, paramID)
	if !ok {
		renderNotFound(w, r, h.renderer)
		return
	}

	err := h.inventory.DeleteLot(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		renderNotFound(w, r, h.renderer)
	case errors.Is(err, service.ErrLotOccupied):
		h.warn(r, model.EventCategoryLot, "Parking lot delete refused: spots occupied", map[string]any{"lot_id": id})
		flashError(w, r, h.sessionManager, RouteAdminDashboard, msgLotOccupied)
	case err != nil:
		logAndInternalError(w, "failed to delete lot", "lot_id", id, "error", err)
	default:
		h.audit(r, model.EventCategoryLot, "Parking lot deleted", map[string]any{"lot_id": id})
		flashSuccess(w, r, h.sessionManager, RouteAdminDashboard, msgLotDeleted)
	}
}

// LotSpots lists the spots of a lot.
func (h *AdminHandler) LotSpots(w http.ResponseWriter, r *http.Request) {
	lotID, ok := urlID(r, paramLotID)
	if !ok {
		renderNotFound(w, r, h.renderer)
		return
	}

	lot, spots, err := h.inventory.LotSpots(r.Context(), lotID)
	if errors.Is(err, service.ErrNotFound) {
		renderNotFound(w, r, h.renderer)
		return
	}
	if err != nil {
		logAndInternalError(w, "failed to load spots", "lot_id", lotID, "error", err)
		return
	}

	renderPage(w, r, h.renderer, "view_parking_spots", render.TemplateData{
		Title: lot.Name,
		Data:  LotSpotsData{Lot: lot, Spots: spots},
	})
}

// AddSpot appends a spot to a lot.
func (h *AdminHandler) AddSpot(w http.ResponseWriter, r *http.Request) {
	lotID, ok := urlID(r, paramLotID)
	if !ok {
		renderNotFound(w, r, h.renderer)
		return
	}

	spot, err := h.inventory.AddSpot(r.Context(), lotID)
	if errors.Is(err, service.ErrNotFound) {
		renderNotFound(w, r, h.renderer)
		return
	}
	if err != nil {
		logAndInternalError(w, "failed to add spot", "lot_id", lotID, "error", err)
		return
	}

	h.audit(r, model.EventCategorySpot, "Parking spot added", map[string]any{"lot_id": lotID, "spot_id": spot.ID, "label": spot.Label})
	flashSuccess(w, r, h.sessionManager, fmt.Sprintf(redirectLotSpots, lotID), msgSpotAdded)
}

// DeleteSpot removes an EMPTY spot and returns to its lot.
func (h *AdminHandler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, paramID)
	if !ok {
		renderNotFound(w, r, h.renderer)
		return
	}

	spot, err := h.inventory.DeleteSpot(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		renderNotFound(w, r, h.renderer)
	case errors.Is(err, service.ErrSpotOccupied):
		h.warn(r, model.EventCategorySpot, "Parking spot delete refused: spot occupied", map[string]any{"lot_id": spot.LotID, "spot_id": id})
		flashError(w, r, h.sessionManager, fmt.Sprintf(redirectLotSpots, spot.LotID), msgSpotOccupied)
	case err != nil:
		logAndInternalError(w, "failed to delete spot", "spot_id", id, "error", err)
	default:
		h.audit(r, model.EventCategorySpot, "Parking spot deleted", map[string]any{"lot_id": spot.LotID, "spot_id": spot.ID, "label": spot.Label})
		flashSuccess(w, r, h.sessionManager, fmt.Sprintf(redirectLotSpots, spot.LotID), msgSpotDeleted)
	}
}

func (h *AdminHandler) audit(r *http.Request, category, message string, metadata map[string]any) {
	_ = h.events.LogInfo(r.Context(), category, message, identityUserID(r), middleware.ClientIP(r), metadata)
}

func (h *AdminHandler) warn(r *http.Request, category, message string, metadata map[string]any) {
	_ = h.events.LogWarning(r.Context(), category, message, identityUserID(r), middleware.ClientIP(r), metadata)
}

func identityUserID(r *http.Request) *int64 {
	if id := middleware.GetIdentity(r); id != nil {
		return &id.UserID
	}
	return nil
}
