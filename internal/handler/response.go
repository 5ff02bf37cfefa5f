// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the parking web application.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oparking/internal/render"
	"github.com/olegiv/oparking/internal/service"
	"github.com/olegiv/oparking/internal/session"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) so POSTs are followed by a GET.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message, kind string) {
	session.PutFlash(r.Context(), sm, kind, message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message string) {
	flashAndRedirect(w, r, sm, url, message, session.FlashError)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message string) {
	flashAndRedirect(w, r, sm, url, message, session.FlashSuccess)
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}

// renderPage renders a page, answering 500 when the template fails.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		logAndInternalError(w, "failed to render page", "template", name, "error", err)
	}
}

// renderNotFound renders the 404 page.
func renderNotFound(w http.ResponseWriter, r *http.Request, renderer *render.Renderer) {
	err := renderer.RenderStatus(w, r, http.StatusNotFound, "error", render.TemplateData{
		Title: "Page not found",
		Data:  "The page you requested could not be found.",
	})
	if err != nil {
		slog.Error("failed to render 404 page", "error", err)
		http.NotFound(w, r)
	}
}

// NotFound returns a handler rendering the 404 page, for the router's fallback.
func NotFound(renderer *render.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderNotFound(w, r, renderer)
	}
}

// urlID parses a positive integer URL parameter.
func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// validationMessage returns the field message of a validation error.
func validationMessage(err error) (string, bool) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	return "", false
}
