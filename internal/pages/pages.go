// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pages declares the site's pages and the editable regions each
// one exposes. The declarations here are the single source of truth for
// what can be edited: a region not listed for a page does not exist, no
// matter what a save or an imported snapshot claims.
package pages

import (
	"fmt"

	"fibersite/internal/markdown"
	"fibersite/internal/pagepath"
	"fibersite/internal/regions"
)

// Definition describes one page: its normalized path, the title shown in
// the browser tab, and its editable regions with statically-authored
// defaults.
type Definition struct {
	Path    string
	Title   string
	Regions []regions.Region
}

// longform converts Markdown-authored default copy to HTML at startup.
// goldmark only fails on writer errors, which a bytes.Buffer never
// produces, so the source passes through on the impossible path.
func longform(src string) string {
	out, err := markdown.ToHTML(src)
	if err != nil {
		return src
	}
	return out
}

var site = []Definition{
	{
		Path:  pagepath.Index,
		Title: "Lightway Networks — Fiber & Low-Voltage Contracting",
		Regions: []regions.Region{
			{ID: "hero-title", Kind: regions.KindText, Default: "Connecting communities, one strand at a time"},
			{ID: "hero-subtitle", Kind: regions.KindText, Default: "Fiber optic and low-voltage infrastructure for homes, businesses, and municipalities."},
			{ID: "hero-image", Kind: regions.KindImage, Default: "/static/img/splice-van.jpg"},
			{ID: "intro", Kind: regions.KindText, Default: longform(`
We design, build, and certify fiber optic networks across the region.
From a single drop to a **full FTTH build-out**, our crews handle
trenching, aerial runs, splicing, and testing end to end.`)},
			{ID: "highlights", Kind: regions.KindText, Default: longform(`
- OSP and ISP fiber construction
- Structured cabling for offices and data rooms
- Access control and camera systems
- Emergency splice response, day or night`)},
			{ID: "cta", Kind: regions.KindText, Default: "Ready to build? Request a free site survey today."},
		},
	},
	{
		Path:  "about",
		Title: "About — Lightway Networks",
		Regions: []regions.Region{
			{ID: "hero-title", Kind: regions.KindText, Default: "Two decades in the field"},
			{ID: "hero-image", Kind: regions.KindImage, Default: "/static/img/crew.jpg"},
			{ID: "story", Kind: regions.KindText, Default: longform(`
Lightway started in 2004 with one bucket truck and a fusion splicer.
Today our certified crews run fiber for carriers, school districts, and
industrial campuses — and we still answer the phone on the first ring.`)},
			{ID: "team", Kind: regions.KindText, Default: longform(`
Every technician on our payroll is **BICSI-trained** and OSHA 30
certified. We do not subcontract splicing. Ever.`)},
		},
	},
	{
		Path:  "services",
		Title: "Services — Lightway Networks",
		Regions: []regions.Region{
			{ID: "hero-title", Kind: regions.KindText, Default: "What we build"},
			{ID: "intro", Kind: regions.KindText, Default: "Full-service design, construction, and certification."},
			{ID: "fiber", Kind: regions.KindText, Default: longform(`
### Fiber construction

Aerial and underground OSP, FTTH drops, backbone splicing, OTDR
certification with full documentation.`)},
			{ID: "cabling", Kind: regions.KindText, Default: longform(`
### Structured cabling

Cat6/Cat6A horizontal runs, fiber risers, rack and patch-panel
build-outs, labeled and test-reported to TIA-568 standards.`)},
			{ID: "security", Kind: regions.KindText, Default: longform(`
### Low-voltage security

IP camera systems, access control, intercoms, and cabling for alarm
panels — installed and commissioned by our own crews.`)},
			{ID: "cta", Kind: regions.KindText, Default: "Tell us about your project and we'll scope it within 48 hours."},
		},
	},
	{
		Path:  "contact",
		Title: "Contact — Lightway Networks",
		Regions: []regions.Region{
			{ID: "hero-title", Kind: regions.KindText, Default: "Get in touch"},
			{ID: "intro", Kind: regions.KindText, Default: "Call, write, or stop by the shop — we're in the field by 7am."},
			{ID: "address", Kind: regions.KindText, Default: "4120 Industrial Parkway, Suite B"},
			{ID: "phone", Kind: regions.KindText, Default: "(555) 014-2800"},
			{ID: "email", Kind: regions.KindText, Default: "dispatch@lightway.example"},
			{ID: "hours", Kind: regions.KindText, Default: "Mon–Fri 7:00–17:00, emergency splicing 24/7"},
		},
	},
}

// Lookup returns the definition for a normalized page path.
func Lookup(page string) (*Definition, bool) {
	for i := range site {
		if site[i].Path == page {
			return &site[i], true
		}
	}
	return nil, false
}

// Paths lists every declared page path in site order.
func Paths() []string {
	out := make([]string, len(site))
	for i, d := range site {
		out[i] = d.Path
	}
	return out
}

// NewRegistry builds a fresh region registry for this page. Each page
// view gets its own registry so live edit values never bleed between
// sessions.
func (d *Definition) NewRegistry() (*regions.Registry, error) {
	r := regions.NewRegistry(d.Path)
	for _, reg := range d.Regions {
		if err := r.Register(reg); err != nil {
			return nil, fmt.Errorf("page %s: %w", d.Path, err)
		}
	}
	return r, nil
}
