// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/oparking/internal/cache"
	"github.com/olegiv/oparking/internal/middleware"
	"github.com/olegiv/oparking/internal/testutil"
	"github.com/olegiv/oparking/internal/version"
)

type staticStats cache.Stats

func (s staticStats) Stats() cache.Stats { return cache.Stats(s) }

func TestHealth(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	h := NewHealthHandler(db, version.Info{Version: "v1.2.3"}, "memory").
		WithCacheStats(staticStats{Hits: 4, Misses: 1, Sets: 1})

	t.Run("anonymous gets status only", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Health(rr, httptest.NewRequest(http.MethodGet, RouteHealth, nil))

		assertStatus(t, rr.Code, http.StatusOK)
		var got map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got["status"] != statusHealthy {
			t.Errorf("status = %v", got["status"])
		}
		if _, ok := got["checks"]; ok {
			t.Error("anonymous response should not include checks")
		}
	})

	t.Run("admin gets details", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, RouteHealth+"?verbose=true", nil)
		req = req.WithContext(middleware.WithIdentity(req.Context(), &middleware.Identity{UserID: 1, IsAdmin: true}))
		rr := httptest.NewRecorder()
		h.Health(rr, req)

		assertStatus(t, rr.Code, http.StatusOK)
		var got HealthStatus
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Version != "v1.2.3" || got.Cache != "memory" {
			t.Errorf("version/cache = %q/%q", got.Version, got.Cache)
		}
		if got.Checks["database"].Status != statusHealthy || got.Checks["schema"].Status != statusHealthy {
			t.Errorf("checks = %+v", got.Checks)
		}
		if got.System == nil {
			t.Error("verbose response should include system info")
		}
		if got.CacheStats == nil || got.CacheStats.Hits != 4 || got.CacheStats.Misses != 1 {
			t.Errorf("cache stats = %+v, want 4 hits and 1 miss", got.CacheStats)
		}
	})
}

func TestHealth_DatabaseDown(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	cleanup()
	h := NewHealthHandler(db, version.Info{}, "memory")

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, RouteHealth, nil))
	assertStatus(t, rr.Code, http.StatusServiceUnavailable)

	rr = httptest.NewRecorder()
	h.Readiness(rr, httptest.NewRequest(http.MethodGet, RouteHealthReady, nil))
	assertStatus(t, rr.Code, http.StatusServiceUnavailable)
}

func TestLivenessAndReadiness(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	h := NewHealthHandler(db, version.Info{}, "memory")

	rr := httptest.NewRecorder()
	h.Liveness(rr, httptest.NewRequest(http.MethodGet, RouteHealthLive, nil))
	assertStatus(t, rr.Code, http.StatusOK)

	rr = httptest.NewRecorder()
	h.Readiness(rr, httptest.NewRequest(http.MethodGet, RouteHealthReady, nil))
	assertStatus(t, rr.Code, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}
