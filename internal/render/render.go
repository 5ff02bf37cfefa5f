// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the embedded page templates and renders them with
// the request's identity and flash message.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oparking/internal/billing"
	"github.com/olegiv/oparking/internal/middleware"
	"github.com/olegiv/oparking/internal/session"
)

const (
	baseLayout  = "layouts/base.html"
	partialsDir = "partials"
	pagesDir    = "pages"
)

// blankLinesRegex matches runs of blank lines left behind by template actions.
var blankLinesRegex = regexp.MustCompile(`(\r?\n[ \t]*)+\r?\n`)

// Renderer handles template rendering with caching.
type Renderer struct {
	templates      map[string]*template.Template
	sessionManager *scs.SessionManager
	billing        *billing.Calculator
	now            func() time.Time
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
	Billing        *billing.Calculator
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	calc := cfg.Billing
	if calc == nil {
		calc = billing.NewCalculator(billing.DefaultHourlyRate, "")
	}

	r := &Renderer{
		templates:      make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
		billing:        calc,
		now:            time.Now,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates builds one template set per page: base layout, partials, page.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := templateFiles(templatesFS, partialsDir)
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	pages, err := templateFiles(templatesFS, pagesDir)
	if err != nil {
		return fmt.Errorf("getting pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found in %s", pagesDir)
	}

	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")

		files := []string{baseLayout}
		files = append(files, partials...)
		files = append(files, page)

		tmpl, err := template.New("").Funcs(r.templateFuncs()).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return nil
}

// templateFiles returns all .html files in a directory; a missing directory
// yields no files.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":   r.billing.Format,
		"minutes": r.billing.FormatMinutes,
		"formatDateTime": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006 3:04 PM")
		},
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Data        any
	Flash       string
	FlashType   string
	CurrentYear int
	Identity    *middleware.Identity
	Currency    string
	HourlyRate  float64
}

// Render renders a page with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a page with the given status code. Nothing is written
// when execution fails, so the caller can still send an error response.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.CurrentYear = r.now().Year()
	data.Identity = middleware.GetIdentity(req)
	data.Currency = r.billing.Currency
	data.HourlyRate = r.billing.RatePerHour

	if r.sessionManager != nil && data.Flash == "" {
		data.Flash, data.FlashType = session.PopFlash(req.Context(), r.sessionManager)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	out := blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(out)
	return nil
}

// Has reports whether a page template is registered.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}
