// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/oparking/internal/cache"
	"github.com/olegiv/oparking/internal/middleware"
	"github.com/olegiv/oparking/internal/store"
	"github.com/olegiv/oparking/internal/version"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
	statusFailed   = "unhealthy"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db          *sql.DB
	version     version.Info
	cacheName   string
	cacheStats  interface{ Stats() cache.Stats }
	startTime   time.Time
	pingTimeout time.Duration
}

// NewHealthHandler creates a new health handler. cacheName is the active
// cache backend and is reported to admins.
func NewHealthHandler(db *sql.DB, info version.Info, cacheName string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		version:     info,
		cacheName:   cacheName,
		startTime:   time.Now(),
		pingTimeout: 2 * time.Second,
	}
}

// WithCacheStats reports the availability cache counters to admins.
func (h *HealthHandler) WithCacheStats(src interface{ Stats() cache.Stats }) *HealthHandler {
	h.cacheStats = src
	return h
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the full response for signed-in admins.
type HealthStatus struct {
	Status     string           `json:"status"`
	Timestamp  time.Time        `json:"timestamp"`
	Uptime     string           `json:"uptime"`
	Version    string           `json:"version"`
	Cache      string           `json:"cache"`
	CacheStats *CacheStats      `json:"cache_stats,omitempty"`
	Checks     map[string]Check `json:"checks"`
	System     *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// CacheStats contains availability cache counters.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// SystemInfo contains runtime information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
}

// Health handles GET /health. Only admins see check details.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	schemaCheck := h.checkSchema()

	overall := statusHealthy
	if dbCheck.Status != statusHealthy || schemaCheck.Status != statusHealthy {
		overall = statusDegraded
	}

	statusCode := http.StatusOK
	if overall != statusHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	id := middleware.GetIdentity(r)
	if id == nil || !id.IsAdmin {
		writeJSON(w, statusCode, HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.String(),
		Cache:     h.cacheName,
		Checks: map[string]Check{
			"database": dbCheck,
			"schema":   schemaCheck,
		},
	}
	if h.cacheStats != nil {
		st := h.cacheStats.Stats()
		status.CacheStats = &CacheStats{Hits: st.Hits, Misses: st.Misses, Sets: st.Sets}
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
		}
	}

	writeJSON(w, statusCode, status)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if dbCheck := h.checkDatabase(r.Context()); dbCheck.Status != statusHealthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, h.pingTimeout)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{Status: statusFailed, Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: statusHealthy, Latency: latency.String()}
}

func (h *HealthHandler) checkSchema() Check {
	if err := store.CheckSchema(h.db); err != nil {
		return Check{Status: statusFailed, Message: err.Error()}
	}
	return Check{Status: statusHealthy}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
