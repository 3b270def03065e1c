// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fibersite/internal/middleware"
	"fibersite/internal/models"
	"fibersite/internal/pagepath"
	"fibersite/internal/pages"
	"fibersite/internal/render"
	"fibersite/internal/store"
)

// Admin groups the user, page-assignment, and version-history handlers.
// Every route in this group sits behind the manage_users capability in the
// router.
type Admin struct {
	renderer    *render.Renderer
	userStore   *store.UserStore
	assignments *store.AssignmentStore
	records     *store.RecordStore
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(renderer *render.Renderer, userStore *store.UserStore, assignments *store.AssignmentStore, records *store.RecordStore) *Admin {
	return &Admin{
		renderer:    renderer,
		userStore:   userStore,
		assignments: assignments,
		records:     records,
	}
}

// userRow pairs a user with their page assignments for the users screen.
type userRow struct {
	User        models.User
	Assignments []models.PageAssignment
}

// UsersPage renders the user management screen.
func (a *Admin) UsersPage(w http.ResponseWriter, r *http.Request) {
	a.renderUsers(w, r, noticeFlashes(r))
}

// renderUsers builds the user rows and renders the users screen with the
// given flashes.
func (a *Admin) renderUsers(w http.ResponseWriter, r *http.Request, flashes []render.Flash) {
	users, err := a.userStore.List(r.Context())
	if err != nil {
		slog.Error("list users failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		assigned, err := a.assignments.ListForUser(r.Context(), u.ID)
		if err != nil {
			slog.Error("list assignments failed", "user_id", u.ID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		rows = append(rows, userRow{User: u, Assignments: assigned})
	}

	a.renderer.Page(w, r, "users", &render.PageData{
		Title:   "Users — Lightway Networks",
		Flashes: flashes,
		Data: map[string]any{
			"users": rows,
			"roles": []models.Role{models.RoleAdmin, models.RoleEditor, models.RoleContributor, models.RoleViewer},
			"pages": pages.Paths(),
		},
	})
}

// UserCreate processes the add-user form.
func (a *Admin) UserCreate(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")
	displayName := r.FormValue("display_name")
	role := models.Role(r.FormValue("role"))

	if msg := validateNewUser(email, password, displayName); msg != "" {
		a.usersPageWithError(w, r, msg)
		return
	}
	if !role.Valid() {
		a.usersPageWithError(w, r, "Unknown role.")
		return
	}

	if _, err := a.userStore.Create(r.Context(), email, password, displayName, role); err != nil {
		slog.Error("create user failed", "error", err)
		a.usersPageWithError(w, r, "Could not create the user. Is the email already in use?")
		return
	}

	http.Redirect(w, r, "/admin/users?notice=user-created", http.StatusSeeOther)
}

// UserSetRole changes a user's role.
func (a *Admin) UserSetRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	role := models.Role(r.FormValue("role"))
	if !role.Valid() {
		a.usersPageWithError(w, r, "Unknown role.")
		return
	}

	if err := a.userStore.SetRole(r.Context(), id, role); err != nil {
		slog.Error("set role failed", "user_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/users?notice=role-updated", http.StatusSeeOther)
}

// UserDelete removes a user. Assignments go with them via the foreign key
// cascade; deleting your own account is refused.
func (a *Admin) UserDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && sess.UserID == id {
		http.Redirect(w, r, "/admin/users?notice=self-delete", http.StatusSeeOther)
		return
	}

	if err := a.userStore.Delete(r.Context(), id); err != nil {
		slog.Error("delete user failed", "user_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/users?notice=user-deleted", http.StatusSeeOther)
}

// AssignmentCreate grants a user edit access to one declared page.
func (a *Admin) AssignmentCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	page := pagepath.Normalize(r.FormValue("page_path"))
	if _, ok := pages.Lookup(page); !ok {
		http.Redirect(w, r, "/admin/users?notice=unknown-page", http.StatusSeeOther)
		return
	}

	if _, err := a.assignments.Create(r.Context(), userID, page); err != nil {
		slog.Error("create assignment failed", "user_id", userID, "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/users?notice=assigned", http.StatusSeeOther)
}

// AssignmentDelete revokes one page assignment.
func (a *Admin) AssignmentDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid assignment id", http.StatusBadRequest)
		return
	}

	if err := a.assignments.DeleteByID(r.Context(), id); err != nil {
		slog.Error("delete assignment failed", "assignment_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/users?notice=unassigned", http.StatusSeeOther)
}

// PageVersions renders a page's full content history, newest first, so an
// admin can see who saved what and which versions went live.
func (a *Admin) PageVersions(w http.ResponseWriter, r *http.Request) {
	page := pagepath.Normalize(chi.URLParam(r, "page"))

	def, ok := pages.Lookup(page)
	if !ok {
		http.NotFound(w, r)
		return
	}

	history, err := a.records.History(r.Context(), page)
	if err != nil {
		slog.Error("record history failed", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "versions", &render.PageData{
		Title: def.Title + " — Versions",
		Page:  page,
		Data: map[string]any{
			"versions": history,
		},
	})
}

// usersPageWithError re-renders the users screen with an inline error.
func (a *Admin) usersPageWithError(w http.ResponseWriter, r *http.Request, msg string) {
	a.renderUsers(w, r, []render.Flash{{Type: "error", Message: msg}})
}
