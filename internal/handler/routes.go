// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/oparking/internal/middleware"
	"github.com/olegiv/oparking/internal/render"
)

// RouterConfig wires handlers and middleware into the router.
type RouterConfig struct {
	Auth   *AuthHandler
	Home   *HomeHandler
	Admin  *AdminHandler
	Events *EventsHandler
	User   *UserHandler
	Health *HealthHandler

	Renderer        *render.Renderer
	SessionManager  *scs.SessionManager
	Users           middleware.UserLoader
	LoginProtection *middleware.LoginProtection

	// CSRF wraps the whole router when set.
	CSRF func(http.Handler) http.Handler
	// Security headers applied to every response.
	Security middleware.SecurityHeadersConfig
	// Static is served under /static/ when set.
	Static fs.FS

	RequestTimeout time.Duration
	// RequestLogging enables chi's request logger.
	RequestLogging bool
}

// NewRouter builds the application's HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.RequestLogging {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	r.Use(chimw.RedirectSlashes)
	r.Use(middleware.SecurityHeaders(cfg.Security))
	if cfg.CSRF != nil {
		r.Use(cfg.CSRF)
	}

	if cfg.Static != nil {
		r.Handle(RouteStatic, http.StripPrefix("/static/", http.FileServerFS(cfg.Static)))
	}

	r.Get(RouteHealthLive, cfg.Health.Liveness)
	r.Get(RouteHealthReady, cfg.Health.Readiness)

	sessions := func(next http.Handler) http.Handler {
		return cfg.SessionManager.LoadAndSave(middleware.LoadIdentity(cfg.SessionManager, cfg.Users)(next))
	}

	r.Group(func(r chi.Router) {
		r.Use(sessions)

		r.Get(RouteRoot, cfg.Home.Home)
		r.Get(RouteHealth, cfg.Health.Health)
		r.Get(RouteLogout, cfg.Auth.Logout)

		r.Group(func(r chi.Router) {
			if cfg.LoginProtection != nil {
				r.Use(cfg.LoginProtection.Middleware())
			}
			r.Get(RouteRegister, cfg.Auth.RegisterForm)
			r.Post(RouteRegister, cfg.Auth.Register)
			r.Get(RouteUserLogin, cfg.Auth.UserLoginForm)
			r.Post(RouteUserLogin, cfg.Auth.UserLogin)
			r.Get(RouteAdminLogin, cfg.Auth.AdminLoginForm)
			r.Post(RouteAdminLogin, cfg.Auth.AdminLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get(RouteAdminDashboard, cfg.Admin.Dashboard)
			r.Get(RouteCreateLot, cfg.Admin.NewLotForm)
			r.Post(RouteCreateLot, cfg.Admin.CreateLot)
			r.Get(RouteEditLot, cfg.Admin.EditLotForm)
			r.Post(RouteEditLot, cfg.Admin.UpdateLot)
			r.Post(RouteDeleteLot, cfg.Admin.DeleteLot)
			r.Get(RouteLotSpots, cfg.Admin.LotSpots)
			r.Post(RouteAddSpot, cfg.Admin.AddSpot)
			r.Post(RouteDeleteSpot, cfg.Admin.DeleteSpot)
			r.Get(RouteAdminEvents, cfg.Events.List)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get(RouteUserDashboard, cfg.User.Dashboard)
			r.Get(RouteReserve, cfg.User.ReserveForm)
			r.Post(RouteReserve, cfg.User.Reserve)
			r.Post(RouteRelease, cfg.User.Release)
			r.Get(RouteHistory, cfg.User.History)
		})
	})

	r.NotFound(sessions(NotFound(cfg.Renderer)).ServeHTTP)

	return r
}
