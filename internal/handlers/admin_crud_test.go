// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"fibersite/internal/middleware"
	"fibersite/internal/models"
	"fibersite/internal/session"
)

// adminRequest builds a form POST carrying a chi id parameter and an admin
// session in the context.
func adminRequest(target, idParam string, values url.Values, sess *session.Data) *http.Request {
	req := formRequest(target, values)
	rctx := chi.NewRouteContext()
	if idParam != "" {
		rctx.URLParams.Add("id", idParam)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if sess != nil {
		ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	}
	return req.WithContext(ctx)
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@lightway.example", prefix, time.Now().UnixNano())
}

func TestAdminUserCreateAndList(t *testing.T) {
	env := newTestEnv(t)

	email := uniqueEmail("crud-create")
	cleanUsers(t, env.DB, email)
	t.Cleanup(func() { cleanUsers(t, env.DB, email) })

	req := adminRequest("/admin/users", "", url.Values{
		"email":        {email},
		"password":     {"a-long-enough-password"},
		"display_name": {"Crud Create"},
		"role":         {"contributor"},
	}, nil)
	w := httptest.NewRecorder()
	env.Admin.UserCreate(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d (%s)", w.Code, w.Body.String())
	}

	user, err := env.UserStore.FindByEmail(context.Background(), email)
	if err != nil || user == nil {
		t.Fatalf("created user not found: %v", err)
	}
	if user.Role != models.RoleContributor {
		t.Errorf("role: got %s, want contributor", user.Role)
	}

	// The users screen lists the new user.
	listReq := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	listW := httptest.NewRecorder()
	env.Admin.UsersPage(listW, listReq)
	if listW.Code != http.StatusOK {
		t.Fatalf("users page: expected 200, got %d", listW.Code)
	}
	if !strings.Contains(listW.Body.String(), email) {
		t.Error("users page should list the created user")
	}
}

func TestAdminUserCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		values  url.Values
		wantMsg string
	}{
		{
			name: "bad email",
			values: url.Values{
				"email": {"not-an-email"}, "password": {"a-long-enough-password"},
				"display_name": {"X"}, "role": {"viewer"},
			},
			wantMsg: "Email address is not valid",
		},
		{
			name: "short password",
			values: url.Values{
				"email": {uniqueEmail("crud-shortpw")}, "password": {"short"},
				"display_name": {"X"}, "role": {"viewer"},
			},
			wantMsg: "at least 10 characters",
		},
		{
			name: "missing name",
			values: url.Values{
				"email": {uniqueEmail("crud-noname")}, "password": {"a-long-enough-password"},
				"display_name": {"  "}, "role": {"viewer"},
			},
			wantMsg: "Name is required",
		},
		{
			name: "unknown role",
			values: url.Values{
				"email": {uniqueEmail("crud-badrole")}, "password": {"a-long-enough-password"},
				"display_name": {"X"}, "role": {"owner"},
			},
			wantMsg: "Unknown role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := adminRequest("/admin/users", "", tt.values, nil)
			w := httptest.NewRecorder()
			env.Admin.UserCreate(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected re-rendered form, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantMsg) {
				t.Errorf("expected message containing %q", tt.wantMsg)
			}
		})
	}
}

func TestAdminUserSetRole(t *testing.T) {
	env := newTestEnv(t)

	email := uniqueEmail("crud-role")
	cleanUsers(t, env.DB, email)
	t.Cleanup(func() { cleanUsers(t, env.DB, email) })

	user, err := env.UserStore.Create(context.Background(), email, "a-long-enough-password", "Crud Role", models.RoleViewer)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	req := adminRequest("/admin/users/"+user.ID.String()+"/role", user.ID.String(),
		url.Values{"role": {"editor"}}, nil)
	w := httptest.NewRecorder()
	env.Admin.UserSetRole(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	updated, _ := env.UserStore.FindByID(context.Background(), user.ID)
	if updated.Role != models.RoleEditor {
		t.Errorf("role: got %s, want editor", updated.Role)
	}
}

func TestAdminUserDeleteRefusesSelf(t *testing.T) {
	env := newTestEnv(t)

	email := uniqueEmail("crud-self")
	cleanUsers(t, env.DB, email)
	t.Cleanup(func() { cleanUsers(t, env.DB, email) })

	user, err := env.UserStore.Create(context.Background(), email, "a-long-enough-password", "Crud Self", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sess := testSession(user.ID, email, "admin")
	req := adminRequest("/admin/users/"+user.ID.String()+"/delete", user.ID.String(), url.Values{}, sess)
	w := httptest.NewRecorder()
	env.Admin.UserDelete(w, req)

	if loc := w.Header().Get("Location"); !strings.Contains(loc, "notice=self-delete") {
		t.Errorf("expected self-delete notice, got %q", loc)
	}
	if still, _ := env.UserStore.FindByID(context.Background(), user.ID); still == nil {
		t.Error("self-delete must not remove the account")
	}
}

func TestAdminAssignmentLifecycle(t *testing.T) {
	env := newTestEnv(t)

	email := uniqueEmail("crud-assign")
	cleanUsers(t, env.DB, email)
	t.Cleanup(func() { cleanUsers(t, env.DB, email) })

	user, err := env.UserStore.Create(context.Background(), email, "a-long-enough-password", "Crud Assign", models.RoleContributor)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	// Assign a declared page; the form value arrives as a route path.
	req := adminRequest("/admin/users/"+user.ID.String()+"/assignments", user.ID.String(),
		url.Values{"page_path": {"/about/"}}, nil)
	w := httptest.NewRecorder()
	env.Admin.AssignmentCreate(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	exists, err := env.Assignments.Exists(context.Background(), user.ID, "about")
	if err != nil || !exists {
		t.Fatalf("expected normalized assignment to exist: %v", err)
	}

	// An undeclared page is refused.
	req = adminRequest("/admin/users/"+user.ID.String()+"/assignments", user.ID.String(),
		url.Values{"page_path": {"pricing"}}, nil)
	w = httptest.NewRecorder()
	env.Admin.AssignmentCreate(w, req)
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "notice=unknown-page") {
		t.Errorf("expected unknown-page notice, got %q", loc)
	}

	// Revoke by row ID.
	assigned, err := env.Assignments.ListForUser(context.Background(), user.ID)
	if err != nil || len(assigned) != 1 {
		t.Fatalf("expected one assignment, got %d (%v)", len(assigned), err)
	}

	req = adminRequest("/admin/assignments/"+assigned[0].ID.String()+"/delete",
		assigned[0].ID.String(), url.Values{}, nil)
	w = httptest.NewRecorder()
	env.Admin.AssignmentDelete(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	exists, _ = env.Assignments.Exists(context.Background(), user.ID, "about")
	if exists {
		t.Error("assignment should be revoked")
	}
}

func TestAdminBadIDs(t *testing.T) {
	env := newTestEnv(t)

	for _, call := range []struct {
		name string
		run  func(w http.ResponseWriter, r *http.Request)
	}{
		{"set role", env.Admin.UserSetRole},
		{"delete user", env.Admin.UserDelete},
		{"create assignment", env.Admin.AssignmentCreate},
		{"delete assignment", env.Admin.AssignmentDelete},
	} {
		t.Run(call.name, func(t *testing.T) {
			req := adminRequest("/admin/x/not-a-uuid", "not-a-uuid", url.Values{}, nil)
			w := httptest.NewRecorder()
			call.run(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400 for malformed id, got %d", w.Code)
			}
		})
	}
}

func TestAdminPageVersions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Append a published and a draft version on top of whatever the page
	// already holds; the history view must show both, newest first.
	base, err := env.Records.MaxVersion(ctx, "services")
	if err != nil {
		t.Fatalf("max version: %v", err)
	}
	for i, published := range []bool{true, false} {
		_, err := env.Records.Insert(ctx, &models.ContentRecord{
			PagePath:  "services",
			Version:   base + 1 + i,
			Content:   map[string]string{"hero-title": fmt.Sprintf("copy %d", i)},
			Published: published,
		})
		if err != nil {
			t.Fatalf("insert version %d: %v", base+1+i, err)
		}
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM content_records WHERE page_path = 'services' AND version > $1", base)
	})

	req := pageRequest(http.MethodGet, "/admin/pages/services/versions", "services", "", nil)
	w := httptest.NewRecorder()
	env.Admin.PageVersions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		fmt.Sprintf("v%d", base+1),
		fmt.Sprintf("v%d", base+2),
		"Published",
		"Draft",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("versions page should contain %q", want)
		}
	}
}

func TestAdminPageVersionsUnknownPage(t *testing.T) {
	env := newTestEnv(t)

	req := pageRequest(http.MethodGet, "/admin/pages/pricing/versions", "pricing", "", nil)
	w := httptest.NewRecorder()
	env.Admin.PageVersions(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for undeclared page, got %d", w.Code)
	}
}
