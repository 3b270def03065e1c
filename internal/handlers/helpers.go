// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains all HTTP handlers, grouped by concern: public
// page rendering, authentication, the in-place editor endpoints, and the
// admin screens.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"fibersite/internal/render"
)

// noticeMessages maps the one-shot notice codes carried across redirects
// to their user-facing text. Codes keep URLs clean and stop redirect
// targets from echoing arbitrary query text back into the page.
var noticeMessages = map[string]render.Flash{
	"denied":           {Type: "error", Message: "You do not have permission to edit this page."},
	"cancelled":        {Type: "info", Message: "Editing cancelled. Your changes were discarded."},
	"done":             {Type: "success", Message: "Editing session closed."},
	"merged":           {Type: "success", Message: "Snapshot merged into the current page. Save to persist."},
	"imported":         {Type: "success", Message: "Snapshot imported for its target page. The current view is unchanged."},
	"invalid-snapshot": {Type: "error", Message: "The uploaded file is not a valid content snapshot."},
	"user-created":     {Type: "success", Message: "User created."},
	"user-deleted":     {Type: "success", Message: "User deleted."},
	"self-delete":      {Type: "error", Message: "You cannot delete your own account."},
	"role-updated":     {Type: "success", Message: "Role updated."},
	"assigned":         {Type: "success", Message: "Page assigned."},
	"unassigned":       {Type: "success", Message: "Assignment removed."},
	"unknown-page":     {Type: "error", Message: "That page does not exist."},
}

// noticeFlashes resolves the notice query parameter into flash messages.
func noticeFlashes(r *http.Request) []render.Flash {
	code := r.URL.Query().Get("notice")
	if code == "" {
		return nil
	}
	if f, ok := noticeMessages[code]; ok {
		return []render.Flash{f}
	}
	return nil
}

// writeJSON serializes v with the given status. Used by the editor's
// fetch-driven endpoints.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json response encode failed", "error", err)
	}
}

// safeNext restricts post-login redirect targets to site-relative paths,
// so the next parameter can never bounce a user to another origin.
func safeNext(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	return raw
}
