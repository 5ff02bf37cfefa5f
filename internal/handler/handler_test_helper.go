// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oparking/internal/billing"
	"github.com/olegiv/oparking/internal/cache"
	"github.com/olegiv/oparking/internal/middleware"
	"github.com/olegiv/oparking/internal/render"
	"github.com/olegiv/oparking/internal/service"
	"github.com/olegiv/oparking/internal/testutil"
	"github.com/olegiv/oparking/internal/version"
	"github.com/olegiv/oparking/web"
)

// testApp is the full router running against a temporary database.
type testApp struct {
	db        *sql.DB
	srv       *httptest.Server
	client    *http.Client
	parking   *service.ParkingService
	inventory *service.InventoryService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	t.Cleanup(func() { _ = mem.Close() })
	availability := cache.NewAvailabilityCache(mem, time.Minute, logger)

	events := service.NewEventService(db)
	identity := service.NewIdentityService(db, logger)
	inventory := service.NewInventoryService(db, availability, logger)
	parking := service.NewParkingService(db, billing.NewCalculator(10, "Rs"), logger, service.ParkingOptions{
		Availability: availability,
		EventLog:     events,
	})

	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}

	sm := scs.New()
	renderer, err := render.New(render.Config{TemplatesFS: templates, SessionManager: sm, Billing: parking.Billing()})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
	t.Cleanup(lp.Stop)

	router := NewRouter(RouterConfig{
		Auth:            NewAuthHandler(identity, events, renderer, sm, lp),
		Home:            NewHomeHandler(renderer),
		Admin:           NewAdminHandler(identity, inventory, parking, events, renderer, sm),
		Events:          NewEventsHandler(events, renderer),
		User:            NewUserHandler(inventory, parking, renderer, sm),
		Health:          NewHealthHandler(db, version.Info{Version: "v0.0.0-test"}, cache.BackendMemory).WithCacheStats(availability),
		Renderer:        renderer,
		SessionManager:  sm,
		Users:           identity,
		LoginProtection: lp,
		CSRF:            middleware.CSRF(middleware.DefaultCSRFConfig([]byte("0123456789abcdef0123456789abcdef"), false)),
		Security:        middleware.DefaultSecurityHeadersConfig(true),
		Static:          static,
		RequestTimeout:  10 * time.Second,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}

	return &testApp{
		db:  db,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		parking:   parking,
		inventory: inventory,
	}
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+path, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return a.do(t, req)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

// follow issues a GET for the redirect target of resp.
func (a *testApp) follow(t *testing.T, resp *http.Response) (*http.Response, string) {
	t.Helper()
	assertStatus(t, resp.StatusCode, http.StatusSeeOther)
	return a.get(t, resp.Header.Get("Location"))
}

func (a *testApp) login(t *testing.T, email, password string, admin bool) {
	t.Helper()
	path := RouteUserLogin
	if admin {
		path = RouteAdminLogin
	}
	resp, _ := a.post(t, path, url.Values{"email": {email}, "password": {password}})
	assertStatus(t, resp.StatusCode, http.StatusSeeOther)
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// assertLocation checks the redirect target of a response.
func assertLocation(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	if got := resp.Header.Get("Location"); got != want {
		t.Errorf("Location = %q; want %q", got, want)
	}
}

// assertContains checks that body contains substr.
func assertContains(t *testing.T, body, substr string) {
	t.Helper()
	if !strings.Contains(body, substr) {
		t.Errorf("body does not contain %q", substr)
	}
}
