// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public catalog
// pages. Templates are embedded in the binary; each page is parsed together
// with the shared layout.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rulehub/internal/markdown"
)

//go:embed templates/public/*.html
var publicFS embed.FS

// PageData holds all data passed to public templates.
type PageData struct {
	Title   string         // Page title for <title> tag
	Section string         // Active nav section ("home", "categories", "search")
	Query   string         // Prefills the header search box
	Data    map[string]any // Page-specific data
}

// Renderer handles template parsing and execution for public pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// New creates a Renderer by parsing every page template from the embedded
// filesystem paired with layout.html.
func New() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"markdown": func(src string) template.HTML {
				out, err := markdown.Render(src)
				if err != nil {
					slog.Error("markdown render failed", "error", err)
					return template.HTML(template.HTMLEscapeString(src))
				}
				return out
			},
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			"date": func(t time.Time) string {
				return t.Format("2 Jan 2006")
			},
			"add": func(a, b int) int { return a + b },
			"sub": func(a, b int) int { return a - b },
			"navClass": func(current, target string) string {
				if current == target {
					return "active"
				}
				return ""
			},
		},
	}

	entries, err := publicFS.ReadDir("templates/public")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "layout.html" {
			continue
		}
		tmpl, err := template.New("layout.html").Funcs(r.funcMap).ParseFS(
			publicFS, "templates/public/layout.html", "templates/public/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

// Render executes a page into a byte slice. Rendering to a buffer first
// means a template error never leaves a half-written response, and the
// result can be stored in the page cache.
func (rn *Renderer) Render(name string, data *PageData) ([]byte, error) {
	tmpl, ok := rn.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Page renders a full page with the given status code.
func (rn *Renderer) Page(w http.ResponseWriter, status int, name string, data *PageData) {
	body, err := rn.Render(name, data)
	if err != nil {
		slog.Error("render page failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	HTML(w, status, body)
}

// HTML writes pre-rendered page bytes, for example from the page cache.
func HTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
