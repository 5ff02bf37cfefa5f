// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/olegiv/oparking/internal/store"
	"github.com/olegiv/oparking/internal/testutil"
)

func newUserApp(t *testing.T) (*testApp, store.User) {
	t.Helper()
	app := newTestApp(t)
	user := testutil.CreateUser(t, app.db, "Asha", "asha@example.com", "pass1234", false)
	app.login(t, "asha@example.com", "pass1234", false)
	return app, user
}

func TestUserRoutes_RequireUser(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateUser(t, app.db, "Admin", "admin@parking.com", "admin-pass", true)

	for _, p := range []string{RouteUserDashboard, RouteReserve, RouteHistory} {
		resp, _ := app.get(t, p)
		assertStatus(t, resp.StatusCode, http.StatusSeeOther)
		assertLocation(t, resp, RouteUserLogin)
	}

	// admins are not users
	app.login(t, "admin@parking.com", "admin-pass", true)
	resp, _ := app.get(t, RouteUserDashboard)
	assertLocation(t, resp, RouteUserLogin)
}

func TestReserveAndRelease(t *testing.T) {
	app, user := newUserApp(t)
	lot := testutil.CreateLot(t, app.db, "Main Lot", 2)

	resp, body := app.get(t, RouteReserve)
	assertStatus(t, resp.StatusCode, http.StatusOK)
	assertContains(t, body, "Main Lot")

	resp, _ = app.post(t, RouteReserve, url.Values{"lot_id": {strconv.FormatInt(lot.ID, 10)}})
	assertLocation(t, resp, RouteUserDashboard)
	_, body = app.follow(t, resp)
	assertContains(t, body, fmt.Sprintf(msgReserved, "S1"))

	active, err := app.parking.ActiveReservation(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ActiveReservation: %v", err)
	}

	releasePath := fmt.Sprintf("/release_parking_spot/%d", active.ID)
	resp, _ = app.post(t, releasePath, nil)
	assertLocation(t, resp, RouteUserDashboard)
	_, body = app.follow(t, resp)
	assertContains(t, body, "Spot released! Time used: ")
	assertContains(t, body, "Amount due: Rs 0.00")

	// second release is refused
	resp, _ = app.post(t, releasePath, nil)
	_, body = app.follow(t, resp)
	assertContains(t, body, msgNoReservation)

	spot, err := store.New(app.db).GetSpotByID(context.Background(), active.SpotID.Int64)
	if err != nil {
		t.Fatalf("GetSpotByID: %v", err)
	}
	if !spot.IsEmpty() {
		t.Errorf("spot status = %s, want EMPTY", spot.Status)
	}

	resp, body = app.get(t, RouteHistory)
	assertStatus(t, resp.StatusCode, http.StatusOK)
	assertContains(t, body, "Main Lot")
	assertContains(t, body, "Total paid: Rs 0.00")
}

func TestReserve_FullLot(t *testing.T) {
	app, _ := newUserApp(t)
	lot := testutil.CreateLot(t, app.db, "Tiny Lot", 0)

	resp, _ := app.post(t, RouteReserve, url.Values{"lot_id": {strconv.FormatInt(lot.ID, 10)}})
	assertLocation(t, resp, RouteReserve)
	_, body := app.follow(t, resp)
	assertContains(t, body, msgNoSpot)

	all, err := store.New(app.db).ListAllReservations(context.Background(), store.ListAllReservationsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListAllReservations: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d reservations, want 0", len(all))
	}
}

func TestReserve_BadInput(t *testing.T) {
	app, _ := newUserApp(t)

	resp, _ := app.post(t, RouteReserve, url.Values{"lot_id": {"abc"}})
	assertLocation(t, resp, RouteReserve)
	_, body := app.follow(t, resp)
	assertContains(t, body, msgChooseLot)

	resp, _ = app.post(t, RouteReserve, url.Values{"lot_id": {"999"}})
	assertStatus(t, resp.StatusCode, http.StatusNotFound)
}

func TestRelease_ForeignReservation(t *testing.T) {
	app, _ := newUserApp(t)
	other := testutil.CreateUser(t, app.db, "Ben", "ben@example.com", "pass1234", false)
	lot := testutil.CreateLot(t, app.db, "Main Lot", 1)

	res, err := app.parking.Reserve(context.Background(), other.ID, lot.ID)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	resp, _ := app.post(t, fmt.Sprintf("/release_parking_spot/%d", res.ID), nil)
	assertLocation(t, resp, RouteUserDashboard)
	_, body := app.follow(t, resp)
	assertContains(t, body, msgNoReservation)

	got, err := store.New(app.db).GetReservationByID(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if !got.IsActive() {
		t.Error("foreign reservation should still be active")
	}

	resp, _ = app.post(t, "/release_parking_spot/999", nil)
	assertStatus(t, resp.StatusCode, http.StatusNotFound)
}
