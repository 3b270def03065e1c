// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package regions models the named, typed slots a page exposes for
// editing. Regions register with a page-scoped registry; the editor
// iterates the registry rather than scanning rendered output, so "what can
// be edited" is an explicit declaration, not a side effect of rendering.
package regions

import (
	"fmt"
	"sync"
)

// Kind is the content type of a region.
type Kind string

const (
	KindText  Kind = "text"  // HTML-bearing string
	KindImage Kind = "image" // URL or data URI
)

// Region declares one editable slot: a stable author-chosen identifier,
// a kind, and the statically-authored default shown when no saved value
// exists.
type Region struct {
	ID      string
	Kind    Kind
	Default string
}

// Registry holds the regions of a single page view and their current live
// values. One registry exists per rendered page; the editor controller for
// that page owns its mutations.
type Registry struct {
	mu       sync.Mutex
	page     string
	order    []string
	regions  map[string]Region
	values   map[string]string // overrides; absent id falls back to Default
	hydrated bool
}

// NewRegistry creates an empty registry for the given normalized page path.
func NewRegistry(page string) *Registry {
	return &Registry{
		page:    page,
		regions: make(map[string]Region),
		values:  make(map[string]string),
	}
}

// Page returns the normalized page path this registry belongs to.
func (r *Registry) Page() string {
	return r.page
}

// Register adds a region to the registry. Region IDs are unique within a
// page; a duplicate registration is an authoring error.
func (r *Registry) Register(reg Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reg.ID == "" {
		return fmt.Errorf("register region: empty id")
	}
	if _, exists := r.regions[reg.ID]; exists {
		return fmt.Errorf("register region: duplicate id %q", reg.ID)
	}
	r.regions[reg.ID] = reg
	r.order = append(r.order, reg.ID)
	return nil
}

// Deregister removes a region. Its live value goes with it.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.regions[id]; !exists {
		return
	}
	delete(r.regions, id)
	delete(r.values, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Regions returns the registered regions in registration order.
func (r *Registry) Regions() []Region {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Region, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.regions[id])
	}
	return out
}

// Lookup returns the region declared under id.
func (r *Registry) Lookup(id string) (Region, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regions[id]
	return reg, ok
}

// Value returns the current live value of a region — the applied override
// if one exists, the static default otherwise.
func (r *Registry) Value(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.regions[id]
	if !ok {
		return "", false
	}
	if v, ok := r.values[id]; ok {
		return v, true
	}
	return reg.Default, true
}

// Set overwrites a region's live value. Unknown IDs are rejected so a
// typo'd import cannot invent regions the page never declared.
func (r *Registry) Set(id, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.regions[id]; !ok {
		return fmt.Errorf("set region: unknown id %q", id)
	}
	r.values[id] = value
	return nil
}

// Apply copies matching values from a content map onto the registry.
// IDs the page does not declare are ignored.
func (r *Registry) Apply(content map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, value := range content {
		if _, ok := r.regions[id]; ok {
			r.values[id] = value
		}
	}
}

// Values returns a copy of every region's current live value, defaults
// included. This is what a save persists.
func (r *Registry) Values() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]string, len(r.order))
	for id, reg := range r.regions {
		if v, ok := r.values[id]; ok {
			out[id] = v
		} else {
			out[id] = reg.Default
		}
	}
	return out
}

// Hydrated reports whether the registry has already been hydrated.
func (r *Registry) Hydrated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hydrated
}

// markHydrated flips the hydration guard; returns false if already set.
func (r *Registry) markHydrated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hydrated {
		return false
	}
	r.hydrated = true
	return true
}
