// store_test.go provides shared test infrastructure for store integration
// tests. Tests are skipped when PostgreSQL is unavailable.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"fibersite/internal/database"
	"fibersite/internal/models"
)

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

// testUser creates a throwaway user with the given role and removes it
// when the test finishes.
func testUser(t *testing.T, db *sql.DB, role models.Role) *models.User {
	t.Helper()
	s := NewUserStore(db)
	email := "test-" + uuid.NewString()[:8] + "@fibersite.test"
	u, err := s.Create(context.Background(), email, "password", "Test User", role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { s.Delete(context.Background(), u.ID) })
	return u
}

// cleanRecords removes test content records by page path.
func cleanRecords(t *testing.T, db *sql.DB, paths ...string) {
	t.Helper()
	for _, p := range paths {
		db.Exec("DELETE FROM content_records WHERE page_path = $1", p)
	}
}

// testPagePath returns a unique page path so parallel test runs don't
// collide on the (page_path, version) index.
func testPagePath(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
