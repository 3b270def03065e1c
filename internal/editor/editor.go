// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor drives the in-place editing session for one page view:
// the state machine that turns view mode into edit mode, tracks the dirty
// flag, persists region values through the content service, and prepares
// the snapshot export that follows every successful save.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"fibersite/internal/access"
	"fibersite/internal/models"
	"fibersite/internal/regions"
	"fibersite/internal/snapshot"
)

// State is the editor's position in its lifecycle.
type State string

const (
	StateDisabled     State = "disabled"
	StateAwaitingAuth State = "awaiting_auth"
	StateViewing      State = "viewing"
	StateEditing      State = "editing"
	StateSaving       State = "saving"
	StateExporting    State = "exporting"
)

var (
	// ErrDenied means the identity may not edit this page. Callers
	// redirect to the non-edit route with an explanation.
	ErrDenied = errors.New("edit access denied")

	// ErrNotEditing guards operations that only make sense mid-edit.
	ErrNotEditing = errors.New("editor is not in editing state")

	// ErrNotDirty blocks saves when nothing changed.
	ErrNotDirty = errors.New("no changes to save")

	// ErrNotExporting guards the export step.
	ErrNotExporting = errors.New("no export pending")

	// ErrImportDenied means the identity lacks manage_media.
	ErrImportDenied = errors.New("import requires media management access")
)

// ValidationError carries the named reason an imported snapshot was
// rejected. It never reflects a persistence problem — those wrap the
// underlying save error instead.
type ValidationError struct {
	Reason snapshot.Reason
}

func (e *ValidationError) Error() string {
	return "invalid snapshot: " + string(e.Reason)
}

// ContentService is the save/load surface the controller talks to.
// Implemented by content.Service.
type ContentService interface {
	GetPageContent(ctx context.Context, pagePath string, id *access.Identity) (map[string]string, error)
	SavePageContent(ctx context.Context, pagePath string, content map[string]string, id *access.Identity, expectedVersion int) (*models.ContentRecord, error)
	LatestVersion(ctx context.Context, pagePath string) (int, error)
}

// ContentMirror is the locally cached full-page content map — the merge
// base before a save and the hydration fallback after one. Implemented by
// cache.ContentCache; may be absent.
type ContentMirror interface {
	GetContentMap(ctx context.Context, pagePath string) (map[string]string, bool)
	SetContentMap(ctx context.Context, pagePath string, content map[string]string)
	Invalidate(ctx context.Context, pagePath string)
}

// SaveOutcome reports what a save produced, so the UI can tell the author
// whether their work went live or landed as a draft.
type SaveOutcome struct {
	Published bool
	Version   int
}

// Message renders the user-facing save notice.
func (o *SaveOutcome) Message() string {
	if o.Published {
		return fmt.Sprintf("Content published (version %d).", o.Version)
	}
	return fmt.Sprintf("Content saved as draft (version %d) — awaiting publication.", o.Version)
}

// ImportOutcome reports where an imported snapshot landed.
type ImportOutcome struct {
	SamePage bool
	PagePath string
	Version  int
}

// Message renders the user-facing import notice.
func (o *ImportOutcome) Message() string {
	if o.SamePage {
		return "Snapshot merged into the current page. Save to persist."
	}
	return fmt.Sprintf("Snapshot imported for page %q (version %d). The current view is unchanged.", o.PagePath, o.Version)
}

// Controller owns one page view's editing session. The dirty flag and the
// live region values are exclusively its concern — there is no cross-tab
// or cross-session coordination.
type Controller struct {
	mu sync.Mutex

	resolver *access.Resolver
	svc      ContentService
	mirror   ContentMirror

	reg      *regions.Registry
	state    State
	identity *access.Identity

	dirty         bool
	preEdit       map[string]string
	loadedVersion int
	pending       *snapshot.Snapshot
}

// NewController creates a controller for the given page registry, starting
// Disabled. mirror may be nil.
func NewController(resolver *access.Resolver, svc ContentService, mirror ContentMirror, reg *regions.Registry) *Controller {
	return &Controller{
		resolver: resolver,
		svc:      svc,
		mirror:   mirror,
		reg:      reg,
		state:    StateDisabled,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dirty reports whether any region changed since editing began.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Page returns the normalized page path under edit.
func (c *Controller) Page() string {
	return c.reg.Page()
}

// Registry exposes the live region registry for rendering.
func (c *Controller) Registry() *regions.Registry {
	return c.reg
}

// Activate handles the edit-variant route being requested. An
// unauthenticated visitor moves to AwaitingAuth for a credential prompt;
// an authenticated one either lands directly in Editing or is denied.
func (c *Controller) Activate(ctx context.Context, id *access.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDisabled && c.state != StateViewing {
		return nil // already activated
	}

	if id == nil {
		c.state = StateAwaitingAuth
		return nil
	}
	return c.tryEnterEditing(ctx, id)
}

// Authenticate completes the AwaitingAuth step after a successful login.
// Granted identities skip Viewing and land directly in Editing; denied
// ones settle in Viewing with ErrDenied for the caller to surface.
func (c *Controller) Authenticate(ctx context.Context, id *access.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAwaitingAuth {
		return fmt.Errorf("authenticate: editor is %s, not awaiting auth", c.state)
	}
	return c.tryEnterEditing(ctx, id)
}

// tryEnterEditing re-checks page permission and enters Editing on grant.
// Callers hold c.mu.
func (c *Controller) tryEnterEditing(ctx context.Context, id *access.Identity) error {
	if id == nil || !c.resolver.CanEditPage(ctx, id, c.reg.Page()) {
		c.state = StateViewing
		return ErrDenied
	}

	version, err := c.svc.LatestVersion(ctx, c.reg.Page())
	if err != nil {
		// Version unknown — save on top of whatever is current rather
		// than refusing to edit.
		slog.Warn("could not read latest version at edit entry",
			"page", c.reg.Page(), "error", err)
		version = -1
	}

	c.identity = id
	c.loadedVersion = version
	c.preEdit = c.reg.Values()
	c.dirty = false
	c.pending = nil
	c.state = StateEditing
	return nil
}

// SetValue applies an edit to one region and arms the dirty flag. Image
// regions only accept URLs or data URIs; text regions take anything.
func (c *Controller) SetValue(id, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEditing {
		return ErrNotEditing
	}

	reg, ok := c.reg.Lookup(id)
	if !ok {
		return fmt.Errorf("set value: unknown region %q", id)
	}
	if reg.Kind == regions.KindImage && !validImageSource(value) {
		return fmt.Errorf("set value: region %q needs a URL or data URI", id)
	}

	// Writing back the value a region already holds is not an edit.
	if cur, ok := c.reg.Value(id); ok && cur == value {
		return nil
	}

	if err := c.reg.Set(id, value); err != nil {
		return err
	}
	c.dirty = true
	return nil
}

// validImageSource accepts http(s) URLs, site-relative paths, and data URIs.
func validImageSource(v string) bool {
	return strings.HasPrefix(v, "http://") ||
		strings.HasPrefix(v, "https://") ||
		strings.HasPrefix(v, "/") ||
		strings.HasPrefix(v, "data:")
}

// Save persists every region's current live value, merged over the
// mirrored full-page map so regions not rendered on this view survive.
// Requires the dirty flag. On failure the controller returns to Editing
// with all edits intact; on success it moves to Exporting with a prepared
// snapshot — export is never skipped, it is the author's recovery path if
// the save silently fails to reach production.
func (c *Controller) Save(ctx context.Context) (*SaveOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEditing {
		return nil, ErrNotEditing
	}
	if !c.dirty {
		return nil, ErrNotDirty
	}

	c.state = StateSaving

	merged := make(map[string]string)
	if c.mirror != nil {
		if base, ok := c.mirror.GetContentMap(ctx, c.reg.Page()); ok {
			for k, v := range base {
				merged[k] = v
			}
		}
	}
	for k, v := range c.reg.Values() {
		merged[k] = v
	}

	rec, err := c.svc.SavePageContent(ctx, c.reg.Page(), merged, c.identity, c.loadedVersion)
	if err != nil {
		// Edits stay live so the author can retry or export by hand.
		c.state = StateEditing
		return nil, err
	}

	if c.mirror != nil {
		c.mirror.SetContentMap(ctx, c.reg.Page(), merged)
	}

	c.loadedVersion = rec.Version
	c.pending = snapshot.Export(merged, c.reg.Page())
	c.state = StateExporting

	return &SaveOutcome{Published: rec.Published, Version: rec.Version}, nil
}

// Export hands out the snapshot prepared by the last save.
func (c *Controller) Export() (*snapshot.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateExporting || c.pending == nil {
		return nil, ErrNotExporting
	}
	return c.pending, nil
}

// Done leaves edit mode after the export step, clearing the dirty flag.
// The caller navigates to the non-edit route.
func (c *Controller) Done() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateExporting {
		return fmt.Errorf("done: editor is %s, not exporting", c.state)
	}
	c.state = StateViewing
	c.dirty = false
	c.pending = nil
	return nil
}

// Cancel abandons the editing session, restoring every region to the
// value it held when editing began.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEditing {
		return ErrNotEditing
	}
	c.reg.Apply(c.preEdit)
	c.dirty = false
	c.state = StateViewing
	return nil
}

// Edit re-enters editing from Viewing — the primary Viewing ⇄ Editing cycle.
func (c *Controller) Edit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateViewing {
		return fmt.Errorf("edit: editor is %s, not viewing", c.state)
	}
	return c.tryEnterEditing(ctx, c.identity)
}

// Import accepts a snapshot document while editing, gated by manage_media.
// A snapshot for the current page merges into the live regions and arms
// the dirty flag; one targeting another page persists directly against
// that page's path without touching the current view.
func (c *Controller) Import(ctx context.Context, raw []byte) (*ImportOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEditing {
		return nil, ErrNotEditing
	}
	if !access.HasCapability(c.identity, access.CapManageMedia) {
		return nil, ErrImportDenied
	}

	res := snapshot.Validate(raw)
	if !res.Valid {
		return nil, &ValidationError{Reason: res.Reason}
	}

	target := res.Data.PagePath()
	if target == c.reg.Page() {
		c.reg.Apply(res.Data.Content)
		c.dirty = true
		return &ImportOutcome{SamePage: true, PagePath: target}, nil
	}

	rec, err := c.svc.SavePageContent(ctx, target, res.Data.Content, c.identity, -1)
	if err != nil {
		return nil, fmt.Errorf("import persist for %q: %w", target, err)
	}
	// The target page's mirror predates the import; drop it so the next
	// hydration reads the record just written.
	if c.mirror != nil {
		c.mirror.Invalidate(ctx, target)
	}
	return &ImportOutcome{PagePath: target, Version: rec.Version}, nil
}
