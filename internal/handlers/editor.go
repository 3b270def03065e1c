// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fibersite/internal/access"
	"fibersite/internal/content"
	"fibersite/internal/editor"
	"fibersite/internal/middleware"
	"fibersite/internal/models"
	"fibersite/internal/pagepath"
	"fibersite/internal/pages"
	"fibersite/internal/regions"
	"fibersite/internal/render"
	"fibersite/internal/session"
	"fibersite/internal/snapshot"
	"fibersite/internal/storage"
	"fibersite/internal/store"
)

// maxSnapshotBytes bounds uploaded snapshot documents.
const maxSnapshotBytes = 1 << 20

// maxMediaBytes bounds media uploads placed into image regions.
const maxMediaBytes = 10 << 20

// allowedImageTypes maps accepted upload content types to file extensions.
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Editor serves the edit variant of every page and the endpoints its
// toolbar targets. Each authenticated session gets one controller per page,
// held by the manager across requests.
type Editor struct {
	renderer *render.Renderer
	manager  *editor.Manager
	resolver *access.Resolver
	content  *content.Service
	mirror   editor.ContentMirror
	hydrator *regions.Hydrator

	// Media upload dependencies; storageClient may be nil when S3 is not
	// configured.
	mediaStore    *store.MediaStore
	storageClient *storage.Client
}

// NewEditor creates a new Editor handler group.
func NewEditor(renderer *render.Renderer, manager *editor.Manager, resolver *access.Resolver, svc *content.Service, mirror editor.ContentMirror, hydrator *regions.Hydrator, mediaStore *store.MediaStore, storageClient *storage.Client) *Editor {
	return &Editor{
		renderer:      renderer,
		manager:       manager,
		resolver:      resolver,
		content:       svc,
		mirror:        mirror,
		hydrator:      hydrator,
		mediaStore:    mediaStore,
		storageClient: storageClient,
	}
}

// EditPage serves the edit variant of a page. A fresh visit builds and
// activates a controller; a return visit resumes the held one, re-checking
// permission when it had settled back into viewing.
func (e *Editor) EditPage(w http.ResponseWriter, r *http.Request) {
	page := pagepath.Normalize(chi.URLParam(r, "page"))

	def, ok := pages.Lookup(page)
	if !ok {
		http.NotFound(w, r)
		return
	}

	identity := middleware.IdentityFromCtx(r.Context())
	if identity == nil {
		// RequireAuth normally intercepts first; kept as a belt.
		http.Redirect(w, r, "/login?next="+url.QueryEscape(pagepath.EditVariant(page)), http.StatusSeeOther)
		return
	}
	sessionID := session.ID(r)

	ctrl, held := e.manager.Get(sessionID, page)
	if !held {
		reg, err := def.NewRegistry()
		if err != nil {
			slog.Error("registry build failed", "page", page, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		e.hydrator.Hydrate(r.Context(), reg, identity)

		ctrl = editor.NewController(e.resolver, e.content, e.mirror, reg)
		e.manager.Put(sessionID, page, ctrl)
	}

	// Activate is a no-op mid-edit; from disabled or viewing it re-checks
	// permission against the request's identity, so a grant made since the
	// last denial takes effect immediately.
	switch ctrl.State() {
	case editor.StateDisabled, editor.StateViewing:
		if err := ctrl.Activate(r.Context(), identity); err != nil {
			e.redirectDenied(w, r, page, err)
			return
		}
	}

	state := ctrl.State()
	e.renderer.Page(w, r, "page", &render.PageData{
		Title:       def.Title,
		Page:        page,
		Editing:     state == editor.StateEditing,
		EditorState: string(state),
		Regions:     render.RegionViews(ctrl.Registry()),
		Flashes:     noticeFlashes(r),
	})
}

func (e *Editor) redirectDenied(w http.ResponseWriter, r *http.Request, page string, err error) {
	if !errors.Is(err, editor.ErrDenied) {
		slog.Error("edit activation failed", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, pagepath.ViewVariant(page)+"?notice=denied", http.StatusSeeOther)
}

// saveRequest is the JSON body the edit chrome posts: every region's
// current value, keyed by region ID.
type saveRequest struct {
	Content map[string]string `json:"content"`
}

// saveResponse reports the outcome back to the edit chrome.
type saveResponse struct {
	State   string `json:"state"`
	Message string `json:"message"`
	Version int    `json:"version,omitempty"`
}

// Save applies the posted region values and persists them as a new content
// version. A version conflict comes back as 409 with the edits still live
// in the controller, so the author can review and retry.
func (e *Editor) Save(w http.ResponseWriter, r *http.Request) {
	page := pagepath.Normalize(chi.URLParam(r, "page"))

	ctrl, ok := e.manager.Get(session.ID(r), page)
	if !ok {
		writeJSON(w, http.StatusConflict, saveResponse{Message: "No active edit session for this page. Reload the editor."})
		return
	}

	var req saveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnapshotBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, saveResponse{State: string(ctrl.State()), Message: "Malformed save request."})
		return
	}

	for id, value := range req.Content {
		if err := ctrl.SetValue(id, value); err != nil {
			writeJSON(w, http.StatusBadRequest, saveResponse{State: string(ctrl.State()), Message: err.Error()})
			return
		}
	}

	outcome, err := ctrl.Save(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, saveResponse{
			State:   string(ctrl.State()),
			Message: outcome.Message() + " Download the snapshot to keep an offline copy.",
			Version: outcome.Version,
		})
	case errors.Is(err, editor.ErrNotDirty):
		writeJSON(w, http.StatusBadRequest, saveResponse{State: string(ctrl.State()), Message: "No changes to save."})
	case errors.Is(err, editor.ErrNotEditing):
		writeJSON(w, http.StatusConflict, saveResponse{State: string(ctrl.State()), Message: "The editor is not in editing mode."})
	case errors.Is(err, store.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, saveResponse{
			State:   string(ctrl.State()),
			Message: "Someone else saved this page while you were editing. Your changes are still here — review and save again.",
		})
	default:
		slog.Error("content save failed", "page", page, "error", err)
		writeJSON(w, http.StatusInternalServerError, saveResponse{
			State:   string(ctrl.State()),
			Message: "Saving failed. Your changes are still in the editor — export a snapshot to keep them safe.",
		})
	}
}

// Export serves the snapshot prepared by the last save as a JSON download.
func (e *Editor) Export(w http.ResponseWriter, r *http.Request) {
	page := pagepath.Normalize(chi.URLParam(r, "page"))

	ctrl, ok := e.manager.Get(session.ID(r), page)
	if !ok {
		http.Error(w, "no active edit session", http.StatusConflict)
		return
	}

	snap, err := ctrl.Export()
	if err != nil {
		http.Error(w, "save before exporting", http.StatusConflict)
		return
	}

	raw, err := snap.Encode()
	if err != nil {
		slog.Error("snapshot encode failed", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", snapshot.Filename(page, time.Now())))
	w.Write(raw)
}

// Done closes the edit session after the export step and returns to the
// published view.
func (e *Editor) Done(w http.ResponseWriter, r *http.Request) {
	page := pagepath.Normalize(chi.URLParam(r, "page"))
	sessionID := session.ID(r)

	if ctrl, ok := e.manager.Get(sessionID, page); ok {
		if err := ctrl.Done(); err != nil {
			http.Redirect(w, r, pagepath.EditVariant(page), http.StatusSeeOther)
			return
		}
		e.manager.Remove(sessionID, page)
	}
	http.Redirect(w, r, pagepath.ViewVariant(page)+"?notice=done", http.StatusSeeOther)
}

// Cancel abandons the edit session, restoring every region to its
// entry value, and returns to the published view.
func (e *Editor) Cancel(w http.ResponseWriter, r *http.Request) {
	page := pagepath.Normalize(chi.URLParam(r, "page"))

	if ctrl, ok := e.manager.Get(session.ID(r), page); ok {
		if err := ctrl.Cancel(); err != nil && !errors.Is(err, editor.ErrNotEditing) {
			slog.Warn("editor cancel failed", "page", page, "error", err)
		}
	}
	http.Redirect(w, r, pagepath.ViewVariant(page)+"?notice=cancelled", http.StatusSeeOther)
}

// Import accepts an uploaded snapshot file mid-edit. A snapshot for the
// current page merges into the live regions; one for another page persists
// directly against that page.
func (e *Editor) Import(w http.ResponseWriter, r *http.Request) {
	page := pagepath.Normalize(chi.URLParam(r, "page"))
	editURL := pagepath.EditVariant(page)

	ctrl, ok := e.manager.Get(session.ID(r), page)
	if !ok {
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(maxSnapshotBytes); err != nil {
		http.Redirect(w, r, editURL+"?notice=invalid-snapshot", http.StatusSeeOther)
		return
	}
	file, _, err := r.FormFile("snapshot")
	if err != nil {
		http.Redirect(w, r, editURL+"?notice=invalid-snapshot", http.StatusSeeOther)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxSnapshotBytes))
	if err != nil {
		http.Redirect(w, r, editURL+"?notice=invalid-snapshot", http.StatusSeeOther)
		return
	}

	outcome, err := ctrl.Import(r.Context(), raw)
	var vErr *editor.ValidationError
	switch {
	case err == nil:
		notice := "imported"
		if outcome.SamePage {
			notice = "merged"
		}
		http.Redirect(w, r, editURL+"?notice="+notice, http.StatusSeeOther)
	case errors.As(err, &vErr):
		http.Redirect(w, r, editURL+"?notice=invalid-snapshot", http.StatusSeeOther)
	case errors.Is(err, editor.ErrImportDenied):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, editor.ErrNotEditing):
		http.Redirect(w, r, editURL, http.StatusSeeOther)
	default:
		slog.Error("snapshot import failed", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// mediaResponse reports an upload's public URL back to the edit chrome,
// which places it into an image region.
type mediaResponse struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
	Err string `json:"error,omitempty"`
}

// MediaUpload stores an image in the media bucket and records it, replying
// with the public URL for the image region. Gated by manage_media in the
// router.
func (e *Editor) MediaUpload(w http.ResponseWriter, r *http.Request) {
	if e.storageClient == nil {
		writeJSON(w, http.StatusServiceUnavailable, mediaResponse{Err: "media storage is not configured"})
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, mediaResponse{Err: "authentication required"})
		return
	}

	if err := r.ParseMultipartForm(maxMediaBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, mediaResponse{Err: "upload too large or malformed"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, mediaResponse{Err: "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxMediaBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, mediaResponse{Err: "could not read upload"})
		return
	}

	// Sniff the real content type; the client-declared one is advisory.
	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		writeJSON(w, http.StatusUnsupportedMediaType, mediaResponse{Err: "only PNG, JPEG, GIF, and WebP images are accepted"})
		return
	}

	key := "media/" + uuid.New().String() + ext
	if err := e.storageClient.Upload(r.Context(), key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		slog.Error("media upload to storage failed", "key", key, "error", err)
		writeJSON(w, http.StatusBadGateway, mediaResponse{Err: "storage upload failed"})
		return
	}

	media, err := e.mediaStore.Create(r.Context(), &models.Media{
		Filename:    header.Filename,
		ContentType: contentType,
		Bucket:      e.storageClient.Bucket(),
		S3Key:       key,
		SizeBytes:   int64(len(data)),
		UploadedBy:  sess.UserID,
	})
	if err != nil {
		slog.Error("media record create failed", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, mediaResponse{Err: "could not record upload"})
		return
	}

	writeJSON(w, http.StatusCreated, mediaResponse{
		ID:  media.ID.String(),
		URL: e.storageClient.FileURL(key),
	})
}

// MediaDelete removes an uploaded image the author replaced or discarded.
// The edit chrome posts back the public URL it was handed at upload time;
// only URLs belonging to the media bucket are accepted.
func (e *Editor) MediaDelete(w http.ResponseWriter, r *http.Request) {
	if e.storageClient == nil {
		writeJSON(w, http.StatusServiceUnavailable, mediaResponse{Err: "media storage is not configured"})
		return
	}

	rawURL := r.PostFormValue("url")
	key, ok := e.storageClient.ExtractS3Key(rawURL)
	if !ok {
		writeJSON(w, http.StatusBadRequest, mediaResponse{Err: "url does not belong to media storage"})
		return
	}

	if err := e.storageClient.Delete(r.Context(), key); err != nil {
		slog.Error("media delete from storage failed", "key", key, "error", err)
		writeJSON(w, http.StatusBadGateway, mediaResponse{Err: "storage delete failed"})
		return
	}

	if err := e.mediaStore.DeleteByKey(r.Context(), key); err != nil {
		slog.Error("media record delete failed", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, mediaResponse{Err: "could not remove upload record"})
		return
	}

	writeJSON(w, http.StatusOK, mediaResponse{URL: rawURL})
}
