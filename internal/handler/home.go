// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/oparking/internal/render"
)

// HomeHandler serves the landing page.
type HomeHandler struct {
	renderer *render.Renderer
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(renderer *render.Renderer) *HomeHandler {
	return &HomeHandler{renderer: renderer}
}

// Home renders the landing page.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, "home", render.TemplateData{Title: "Welcome"})
}
