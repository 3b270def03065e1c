// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fibersite/internal/middleware"
	"fibersite/internal/pagepath"
	"fibersite/internal/pages"
	"fibersite/internal/regions"
	"fibersite/internal/render"
)

// Public renders the site's declared pages in view mode. Each request
// builds a fresh registry, hydrates it with saved content (falling back to
// the local mirror, then the static defaults), and renders the shared page
// template.
type Public struct {
	renderer *render.Renderer
	hydrator *regions.Hydrator
}

// NewPublic creates a new Public handler group.
func NewPublic(renderer *render.Renderer, hydrator *regions.Hydrator) *Public {
	return &Public{renderer: renderer, hydrator: hydrator}
}

// Page renders a declared page. Routes for both "/" and "/{page}" land
// here; an undeclared path is a 404 no matter what content claims to exist
// for it.
func (p *Public) Page(w http.ResponseWriter, r *http.Request) {
	page := pagepath.Normalize(chi.URLParam(r, "page"))

	def, ok := pages.Lookup(page)
	if !ok {
		http.NotFound(w, r)
		return
	}

	reg, err := def.NewRegistry()
	if err != nil {
		slog.Error("registry build failed", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.hydrator.Hydrate(r.Context(), reg, middleware.IdentityFromCtx(r.Context()))

	p.renderer.Page(w, r, "page", &render.PageData{
		Title:   def.Title,
		Page:    page,
		Regions: render.RegionViews(reg),
		Flashes: noticeFlashes(r),
	})
}

// Health reports process liveness for load balancer checks.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
