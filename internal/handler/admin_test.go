// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/oparking/internal/store"
	"github.com/olegiv/oparking/internal/testutil"
)

func newAdminApp(t *testing.T) *testApp {
	t.Helper()
	app := newTestApp(t)
	testutil.CreateUser(t, app.db, "Admin", "admin@parking.com", "admin-pass", true)
	app.login(t, "admin@parking.com", "admin-pass", true)
	return app
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateUser(t, app.db, "Asha", "asha@example.com", "pass1234", false)

	paths := []string{RouteAdminDashboard, RouteCreateLot, "/edit_parking_lot/1", "/parking_spots/1", RouteAdminEvents}

	for _, p := range paths {
		resp, _ := app.get(t, p)
		assertStatus(t, resp.StatusCode, http.StatusSeeOther)
		assertLocation(t, resp, RouteAdminLogin)
	}

	app.login(t, "asha@example.com", "pass1234", false)
	resp, _ := app.post(t, "/delete_parking_lot/1", nil)
	assertStatus(t, resp.StatusCode, http.StatusSeeOther)
	assertLocation(t, resp, RouteAdminLogin)
}

func TestAdminDashboard(t *testing.T) {
	app := newAdminApp(t)
	testutil.CreateUser(t, app.db, "Asha", "asha@example.com", "pass1234", false)
	testutil.CreateLot(t, app.db, "Main Lot", 2)

	resp, body := app.get(t, RouteAdminDashboard)
	assertStatus(t, resp.StatusCode, http.StatusOK)
	assertContains(t, body, "Main Lot")
	assertContains(t, body, "asha@example.com")
}

func TestCreateLot(t *testing.T) {
	app := newAdminApp(t)

	resp, _ := app.post(t, RouteCreateLot, url.Values{
		"name":      {"North Lot"},
		"location":  {"North Gate"},
		"num_spots": {"3"},
	})
	assertLocation(t, resp, RouteAdminDashboard)

	_, body := app.follow(t, resp)
	assertContains(t, body, msgLotCreated)
	assertContains(t, body, "North Lot")

	lots, err := store.New(app.db).ListLotSummaries(context.Background())
	if err != nil {
		t.Fatalf("ListLotSummaries: %v", err)
	}
	if len(lots) != 1 || lots[0].TotalSpots != 3 || lots[0].EmptySpots != 3 {
		t.Errorf("lots = %+v, want one lot with 3 empty spots", lots)
	}
}

func TestCreateLot_Invalid(t *testing.T) {
	app := newAdminApp(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"non numeric spots", url.Values{"name": {"A"}, "location": {"B"}, "num_spots": {"many"}}},
		{"too many spots", url.Values{"name": {"A"}, "location": {"B"}, "num_spots": {"501"}}},
		{"missing name", url.Values{"name": {""}, "location": {"B"}, "num_spots": {"1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := app.post(t, RouteCreateLot, tt.form)
			assertStatus(t, resp.StatusCode, http.StatusOK)
			assertContains(t, body, "flash-error")
		})
	}

	n, err := store.New(app.db).CountLots(context.Background())
	if err != nil {
		t.Fatalf("CountLots: %v", err)
	}
	if n != 0 {
		t.Errorf("CountLots = %d, want 0", n)
	}
}

func TestEditLot(t *testing.T) {
	app := newAdminApp(t)
	lot := testutil.CreateLot(t, app.db, "Main Lot", 1)
	path := fmt.Sprintf("/edit_parking_lot/%d", lot.ID)

	resp, body := app.get(t, path)
	assertStatus(t, resp.StatusCode, http.StatusOK)
	assertContains(t, body, `value="Main Lot"`)

	resp, _ = app.post(t, path, url.Values{"name": {"Renamed"}, "location": {"South"}})
	assertLocation(t, resp, RouteAdminDashboard)
	_, body = app.follow(t, resp)
	assertContains(t, body, msgLotUpdated)

	got, err := store.New(app.db).GetLotByID(context.Background(), lot.ID)
	if err != nil {
		t.Fatalf("GetLotByID: %v", err)
	}
	if got.Name != "Renamed" || got.Location != "South" {
		t.Errorf("lot = %+v", got)
	}
}

func TestAdmin_NotFound(t *testing.T) {
	app := newAdminApp(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/edit_parking_lot/999"},
		{http.MethodGet, "/edit_parking_lot/abc"},
		{http.MethodGet, "/parking_spots/999"},
		{http.MethodPost, "/delete_parking_lot/999"},
		{http.MethodPost, "/delete_parking_spot/999"},
		{http.MethodPost, "/add_parking_spot/999"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var resp *http.Response
			if tt.method == http.MethodGet {
				resp, _ = app.get(t, tt.path)
			} else {
				resp, _ = app.post(t, tt.path, nil)
			}
			assertStatus(t, resp.StatusCode, http.StatusNotFound)
		})
	}
}

func TestDeleteLot(t *testing.T) {
	app := newAdminApp(t)
	user := testutil.CreateUser(t, app.db, "Asha", "asha@example.com", "pass1234", false)
	busy := testutil.CreateLot(t, app.db, "Busy Lot", 2)
	idle := testutil.CreateLot(t, app.db, "Idle Lot", 2)

	if _, err := app.parking.Reserve(context.Background(), user.ID, busy.ID); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	resp, _ := app.post(t, fmt.Sprintf("/delete_parking_lot/%d", busy.ID), nil)
	assertLocation(t, resp, RouteAdminDashboard)
	_, body := app.follow(t, resp)
	assertContains(t, body, msgLotOccupied)

	resp, _ = app.post(t, fmt.Sprintf("/delete_parking_lot/%d", idle.ID), nil)
	_, body = app.follow(t, resp)
	assertContains(t, body, msgLotDeleted)

	q := store.New(app.db)
	if _, err := q.GetLotByID(context.Background(), busy.ID); err != nil {
		t.Errorf("busy lot should remain: %v", err)
	}
	spots, err := q.ListSpotsByLot(context.Background(), idle.ID)
	if err != nil {
		t.Fatalf("ListSpotsByLot: %v", err)
	}
	if len(spots) != 0 {
		t.Errorf("idle lot still has %d spots", len(spots))
	}

	_, body = app.get(t, RouteAdminEvents)
	assertContains(t, body, "Parking lot delete refused: spots occupied")
}

func TestSpots_AddAndDelete(t *testing.T) {
	app := newAdminApp(t)
	user := testutil.CreateUser(t, app.db, "Asha", "asha@example.com", "pass1234", false)
	lot := testutil.CreateLot(t, app.db, "Main Lot", 1)
	spotsPath := fmt.Sprintf("/parking_spots/%d", lot.ID)

	resp, _ := app.post(t, fmt.Sprintf("/add_parking_spot/%d", lot.ID), nil)
	assertLocation(t, resp, spotsPath)
	_, body := app.follow(t, resp)
	assertContains(t, body, msgSpotAdded)
	assertContains(t, body, "S2")

	res, err := app.parking.Reserve(context.Background(), user.ID, lot.ID)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	resp, _ = app.post(t, fmt.Sprintf("/delete_parking_spot/%d", res.SpotID.Int64), nil)
	assertLocation(t, resp, spotsPath)
	_, body = app.follow(t, resp)
	assertContains(t, body, msgSpotOccupied)

	spots, err := store.New(app.db).ListSpotsByLot(context.Background(), lot.ID)
	if err != nil {
		t.Fatalf("ListSpotsByLot: %v", err)
	}
	var emptyID int64
	for _, s := range spots {
		if s.IsEmpty() {
			emptyID = s.ID
		}
	}

	resp, _ = app.post(t, fmt.Sprintf("/delete_parking_spot/%d", emptyID), nil)
	assertLocation(t, resp, spotsPath)
	_, body = app.follow(t, resp)
	assertContains(t, body, msgSpotDeleted)
}

func TestAdminDashboard_ReservationPages(t *testing.T) {
	app := newAdminApp(t)
	driver := testutil.CreateUser(t, app.db, "Asha", "asha@example.com", "pass1234", false)
	lot := testutil.CreateLot(t, app.db, "Main Lot", 1)

	ctx := context.Background()
	q := store.New(app.db)
	spots, err := q.ListSpotsByLot(ctx, lot.ID)
	if err != nil || len(spots) != 1 {
		t.Fatalf("ListSpotsByLot: %v (%d spots)", err, len(spots))
	}

	total := ReservationsPerPage + 5
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < total; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		res, err := q.CreateReservation(ctx, store.CreateReservationParams{
			UserID:    driver.ID,
			SpotID:    spots[0].ID,
			LotID:     lot.ID,
			SpotLabel: fmt.Sprintf("P%03d", i),
			LotName:   lot.Name,
			StartTime: start,
		})
		if err != nil {
			t.Fatalf("CreateReservation %d: %v", i, err)
		}
		if _, err := q.CompleteReservation(ctx, store.CompleteReservationParams{
			EndTime:        start.Add(30 * time.Minute),
			ElapsedMinutes: 30,
			Cost:           5,
			ID:             res.ID,
			UserID:         driver.ID,
		}); err != nil {
			t.Fatalf("CompleteReservation %d: %v", i, err)
		}
	}

	_, first := app.get(t, RouteAdminDashboard)
	assertContains(t, first, fmt.Sprintf("P%03d", total-1))
	if strings.Contains(first, "P000") {
		t.Error("oldest reservation rendered on the first page")
	}
	assertContains(t, first, RouteAdminDashboard+"?page=2")

	_, second := app.get(t, RouteAdminDashboard+"?page=2")
	assertContains(t, second, "P000")
	if strings.Contains(second, fmt.Sprintf("P%03d", total-1)) {
		t.Error("newest reservation rendered on the second page")
	}

	// Out-of-range pages clamp to the last page.
	_, last := app.get(t, RouteAdminDashboard+"?page=99")
	assertContains(t, last, "P000")
}

func TestAdminEvents(t *testing.T) {
	app := newAdminApp(t)
	lot := testutil.CreateLot(t, app.db, "Main Lot", 1)

	resp, _ := app.post(t, fmt.Sprintf("/edit_parking_lot/%d", lot.ID), url.Values{
		"name":     {"Renamed Lot"},
		"location": {"Front Gate"},
	})
	assertLocation(t, resp, RouteAdminDashboard)

	resp, body := app.get(t, RouteAdminEvents)
	assertStatus(t, resp.StatusCode, http.StatusOK)
	assertContains(t, body, "Parking lot updated")
	assertContains(t, body, "User logged in")
	assertContains(t, body, fmt.Sprintf("lot_id: %d", lot.ID))
}

func TestFormatMetadata(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"{}", ""},
		{`{"spot":"S1","lot_id":3,"ok":true}`, "lot_id: 3, ok: true, spot: S1"},
		{"not json", "not json"},
	}
	for _, tt := range tests {
		if got := formatMetadata(tt.in); got != tt.want {
			t.Errorf("formatMetadata(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
