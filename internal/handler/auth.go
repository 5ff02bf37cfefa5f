// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oparking/internal/middleware"
	"github.com/olegiv/oparking/internal/model"
	"github.com/olegiv/oparking/internal/render"
	"github.com/olegiv/oparking/internal/service"
	"github.com/olegiv/oparking/internal/session"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	identity        *service.IdentityService
	events          *service.EventService
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil to disable lockout.
func NewAuthHandler(identity *service.IdentityService, events *service.EventService, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		identity:        identity,
		events:          events,
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// authForm carries submitted values back into the form.
type authForm struct {
	Name  string
	Email string
}

// RegisterForm renders the registration form.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, "register", render.TemplateData{
		Title: "Register",
		Data:  authForm{},
	})
}

// Register handles the registration form submission.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.sessionManager, RouteRegister, msgInvalidForm)
		return
	}

	user, err := h.identity.Register(r.Context(),
		r.FormValue("name"), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			flashError(w, r, h.sessionManager, RouteRegister, msgEmailTaken)
			return
		}
		if msg, ok := validationMessage(err); ok {
			renderPage(w, r, h.renderer, "register", render.TemplateData{
				Title:     "Register",
				Data:      authForm{Name: r.FormValue("name"), Email: r.FormValue("email")},
				Flash:     msg,
				FlashType: session.FlashError,
			})
			return
		}
		logAndInternalError(w, "registration failed", "error", err)
		return
	}

	_ = h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, "User registered", &user.ID,
		middleware.ClientIP(r), map[string]any{"email": user.Email})

	flashSuccess(w, r, h.sessionManager, RouteUserLogin, msgRegistered)
}

// UserLoginForm renders the user login form.
func (h *AuthHandler) UserLoginForm(w http.ResponseWriter, r *http.Request) {
	h.loginForm(w, r, false)
}

// UserLogin handles the user login form submission.
func (h *AuthHandler) UserLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

// AdminLoginForm renders the admin login form.
func (h *AuthHandler) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	h.loginForm(w, r, true)
}

// AdminLogin handles the admin login form submission.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

type loginKind struct {
	page      string
	title     string
	dashboard string
	failure   string
}

func kindOf(admin bool) loginKind {
	if admin {
		return loginKind{"admin_login", "Admin login", RouteAdminDashboard, msgInvalidAdmin}
	}
	return loginKind{"user_login", "User login", RouteUserDashboard, msgInvalidCredentials}
}

func (h *AuthHandler) loginForm(w http.ResponseWriter, r *http.Request, admin bool) {
	k := kindOf(admin)

	if id := middleware.GetIdentity(r); id != nil && id.IsAdmin == admin {
		http.Redirect(w, r, k.dashboard, http.StatusSeeOther)
		return
	}

	renderPage(w, r, h.renderer, k.page, render.TemplateData{
		Title: k.title,
		Data:  authForm{},
	})
}

// login authenticates against accounts of the requested kind and
// re-renders the form with a flash on failure.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, admin bool) {
	k := kindOf(admin)

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.sessionManager, "/"+k.page, msgInvalidForm)
		return
	}

	email := service.NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")
	clientIP := middleware.ClientIP(r)
	client := parseUserAgent(r.UserAgent())

	fail := func(message string) {
		renderPage(w, r, h.renderer, k.page, render.TemplateData{
			Title:     k.title,
			Data:      authForm{Email: email},
			Flash:     message,
			FlashType: session.FlashError,
		})
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			_ = h.events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login attempt on locked account", nil, clientIP, client.metadata(email))
			fail(fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	user, err := h.identity.Authenticate(r.Context(), email, password, admin)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			logAndInternalError(w, "login failed", "error", err)
			return
		}

		_ = h.events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login failed", nil, clientIP, client.metadata(email))

		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
				fail(fmt.Sprintf("Too many failed attempts. Account locked for %s.", formatDuration(lockDuration)))
				return
			}
		}
		fail(k.failure)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// new token against session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "admin", user.IsAdmin)
	_ = h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged in", &user.ID, clientIP, client.metadata(user.Email))

	http.Redirect(w, r, k.dashboard, http.StatusSeeOther)
}

// Logout destroys the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id := middleware.GetIdentity(r); id != nil {
		_ = h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged out", &id.UserID, middleware.ClientIP(r), nil)
		slog.Info("user logged out", "user_id", id.UserID)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	// Destroy leaves an empty session in the context, so the flash is
	// committed under a fresh token.
	flashAndRedirect(w, r, h.sessionManager, RouteRoot, msgLoggedOut, session.FlashInfo)
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
