// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure. The editor and
// public handlers run against in-memory stores; the auth and admin tests
// need PostgreSQL and Valkey and are skipped when either is unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"fibersite/internal/access"
	"fibersite/internal/content"
	"fibersite/internal/database"
	"fibersite/internal/editor"
	"fibersite/internal/middleware"
	"fibersite/internal/models"
	"fibersite/internal/regions"
	"fibersite/internal/render"
	"fibersite/internal/session"
	"fibersite/internal/store"
)

// memRecordStore is an in-memory content.RecordStore with the same
// version-conflict semantics as the database store.
type memRecordStore struct {
	mu   sync.Mutex
	recs map[string][]*models.ContentRecord
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{recs: make(map[string][]*models.ContentRecord)}
}

func (m *memRecordStore) FindLatest(_ context.Context, pagePath string, publishedOnly bool) (*models.ContentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.recs[pagePath]
	for i := len(recs) - 1; i >= 0; i-- {
		if !publishedOnly || recs[i].Published {
			return recs[i], nil
		}
	}
	return nil, nil
}

func (m *memRecordStore) MaxVersion(_ context.Context, pagePath string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, r := range m.recs[pagePath] {
		if r.Version > max {
			max = r.Version
		}
	}
	return max, nil
}

func (m *memRecordStore) Insert(_ context.Context, rec *models.ContentRecord) (*models.ContentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs[rec.PagePath] {
		if r.Version == rec.Version {
			return nil, store.ErrVersionConflict
		}
	}
	saved := *rec
	saved.ID = uuid.New()
	saved.CreatedAt = time.Now()
	m.recs[rec.PagePath] = append(m.recs[rec.PagePath], &saved)
	return &saved, nil
}

// memAssignments is an in-memory access.AssignmentLookup.
type memAssignments struct {
	granted map[uuid.UUID]map[string]bool
}

func newMemAssignments() *memAssignments {
	return &memAssignments{granted: make(map[uuid.UUID]map[string]bool)}
}

func (m *memAssignments) grant(userID uuid.UUID, page string) {
	if m.granted[userID] == nil {
		m.granted[userID] = make(map[string]bool)
	}
	m.granted[userID][page] = true
}

func (m *memAssignments) Exists(_ context.Context, userID uuid.UUID, pagePath string) (bool, error) {
	return m.granted[userID][pagePath], nil
}

// memMirror is an in-memory content mirror implementing both the editor's
// merge base and the hydrator's fallback.
type memMirror struct {
	mu   sync.Mutex
	maps map[string]map[string]string
}

func newMemMirror() *memMirror {
	return &memMirror{maps: make(map[string]map[string]string)}
}

func (m *memMirror) GetContentMap(_ context.Context, pagePath string) (map[string]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.maps[pagePath]
	return content, ok
}

func (m *memMirror) SetContentMap(_ context.Context, pagePath string, content map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maps[pagePath] = content
}

func (m *memMirror) Invalidate(_ context.Context, pagePath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.maps, pagePath)
}

// editorEnv wires the editor and public handlers over in-memory stores.
type editorEnv struct {
	Records     *memRecordStore
	Assignments *memAssignments
	Mirror      *memMirror
	Manager     *editor.Manager
	Service     *content.Service
	Editor      *Editor
	Public      *Public
}

func newEditorEnv(t *testing.T) *editorEnv {
	t.Helper()

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	records := newMemRecordStore()
	assignments := newMemAssignments()
	mirror := newMemMirror()
	svc := content.NewService(records)
	resolver := access.NewResolver(assignments)
	hydrator := regions.NewHydrator(svc, mirror, 0)
	manager := editor.NewManager()

	return &editorEnv{
		Records:     records,
		Assignments: assignments,
		Mirror:      mirror,
		Manager:     manager,
		Service:     svc,
		Editor:      NewEditor(renderer, manager, resolver, svc, mirror, hydrator, nil, nil),
		Public:      NewPublic(renderer, hydrator),
	}
}

// testIdentityFor builds an access identity with a fresh user ID.
func testIdentityFor(role string) *access.Identity {
	return &access.Identity{UserID: uuid.New(), Role: models.Role(role)}
}

// testSession creates session data for a fully authenticated user.
func testSession(userID uuid.UUID, email, role string) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   true,
	}
}

// pageRequest builds a request carrying the chi page parameter, the
// session cookie, and (optionally) session data in the context.
func pageRequest(method, target, page, sessionID string, sess *session.Data) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return decorateRequest(req, page, sessionID, sess)
}

func decorateRequest(req *http.Request, page, sessionID string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("page", page)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if sess != nil {
		ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	}
	req = req.WithContext(ctx)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})
	}
	return req
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "fibersite")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "fibersite")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "page_content:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds the DB-backed dependencies for auth and admin tests.
type testEnv struct {
	DB          *sql.DB
	Valkey      *redis.Client
	Renderer    *render.Renderer
	Sessions    *session.Store
	UserStore   *store.UserStore
	Assignments *store.AssignmentStore
	Records     *store.RecordStore
	Editors     *editor.Manager
	Auth        *Auth
	Admin       *Admin
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(db)
	assignments := store.NewAssignmentStore(db)
	records := store.NewRecordStore(db)
	editors := editor.NewManager()

	return &testEnv{
		DB:          db,
		Valkey:      vk,
		Renderer:    renderer,
		Sessions:    sessions,
		UserStore:   userStore,
		Assignments: assignments,
		Records:     records,
		Editors:     editors,
		Auth:        NewAuth(renderer, sessions, userStore, editors),
		Admin:       NewAdmin(renderer, userStore, assignments, records),
	}
}

// cleanUsers removes test users by email.
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, e := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", e)
	}
}
