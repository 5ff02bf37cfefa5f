// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/oparking/internal/render"
	"github.com/olegiv/oparking/internal/service"
)

// EventsHandler shows the audit event log to admins.
type EventsHandler struct {
	events   *service.EventService
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *service.EventService, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{events: events, renderer: renderer}
}

// EventRow is an event prepared for display.
type EventRow struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Details   string
	IPAddress string
	CreatedAt time.Time
	UserName  string
	UserEmail string
}

// EventsListData holds data for the events page.
type EventsListData struct {
	Events     []EventRow
	Pagination Pagination
}

// formatMetadata turns JSON metadata into "key: value" pairs sorted by key.
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var value string
		switch v := data[key].(type) {
		case string:
			value = v
		case float64:
			value = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			value = strconv.FormatBool(v)
		default:
			if b, err := json.Marshal(v); err == nil {
				value = string(b)
			}
		}
		parts = append(parts, key+": "+value)
	}
	return strings.Join(parts, ", ")
}

// List handles GET /admin_events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.events.Count(ctx)
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}
	pagination := buildPagination(parsePage(r), total, EventsPerPage, RouteAdminEvents)

	rows, err := h.events.List(ctx, EventsPerPage, pagination.Offset())
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	events := make([]EventRow, 0, len(rows))
	for _, e := range rows {
		events = append(events, EventRow{
			ID:        e.ID,
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			Details:   formatMetadata(e.Metadata),
			IPAddress: e.IpAddress,
			CreatedAt: e.CreatedAt,
			UserName:  e.UserName,
			UserEmail: e.UserEmail,
		})
	}

	renderPage(w, r, h.renderer, "admin_events", render.TemplateData{
		Title: "Event log",
		Data:  EventsListData{Events: events, Pagination: pagination},
	})
}
