// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"fibersite/internal/models"
)

// ErrVersionConflict is returned when an insert targets a (page_path,
// version) pair that already exists — a concurrent editor saved first.
// Distinct from generic save errors so the UI can offer a re-load instead
// of a blind retry.
var ErrVersionConflict = errors.New("content version conflict")

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// RecordStore handles the append-only content_records table. Records are
// inserted, never updated; each page's history is the ordered set of its
// versions.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore creates a new RecordStore with the given database connection.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// FindLatest returns the highest-version record for a page, optionally
// restricted to published records. Returns nil if none exists.
func (s *RecordStore) FindLatest(ctx context.Context, pagePath string, publishedOnly bool) (*models.ContentRecord, error) {
	query := `
		SELECT id, page_path, version, content, published, created_by, created_at
		FROM content_records
		WHERE page_path = $1
		ORDER BY version DESC
		LIMIT 1
	`
	if publishedOnly {
		query = `
			SELECT id, page_path, version, content, published, created_by, created_at
			FROM content_records
			WHERE page_path = $1 AND published = TRUE
			ORDER BY version DESC
			LIMIT 1
		`
	}

	rec := &models.ContentRecord{}
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, pagePath).Scan(
		&rec.ID, &rec.PagePath, &rec.Version, &raw,
		&rec.Published, &rec.CreatedBy, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest record: %w", err)
	}

	if err := json.Unmarshal(raw, &rec.Content); err != nil {
		return nil, fmt.Errorf("decode record content: %w", err)
	}
	return rec, nil
}

// MaxVersion returns the highest version stored for a page, or 0 if the
// page has no records yet.
func (s *RecordStore) MaxVersion(ctx context.Context, pagePath string) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM content_records WHERE page_path = $1
	`, pagePath).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("max version: %w", err)
	}
	return v, nil
}

// Insert appends a new content record. The caller supplies the version;
// the unique (page_path, version) index is the arbiter under concurrency —
// a duplicate insert returns ErrVersionConflict rather than silently
// reordering history.
func (s *RecordStore) Insert(ctx context.Context, rec *models.ContentRecord) (*models.ContentRecord, error) {
	raw, err := json.Marshal(rec.Content)
	if err != nil {
		return nil, fmt.Errorf("encode record content: %w", err)
	}

	out := &models.ContentRecord{Content: rec.Content}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO content_records (page_path, version, content, published, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, page_path, version, published, created_by, created_at
	`, rec.PagePath, rec.Version, raw, rec.Published, rec.CreatedBy).Scan(
		&out.ID, &out.PagePath, &out.Version, &out.Published, &out.CreatedBy, &out.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("insert record %s v%d: %w", rec.PagePath, rec.Version, ErrVersionConflict)
		}
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return out, nil
}

// History returns all versions for a page, newest first.
func (s *RecordStore) History(ctx context.Context, pagePath string) ([]models.ContentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_path, version, content, published, created_by, created_at
		FROM content_records
		WHERE page_path = $1
		ORDER BY version DESC
	`, pagePath)
	if err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}
	defer rows.Close()

	var records []models.ContentRecord
	for rows.Next() {
		var rec models.ContentRecord
		var raw []byte
		if err := rows.Scan(
			&rec.ID, &rec.PagePath, &rec.Version, &raw,
			&rec.Published, &rec.CreatedBy, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal(raw, &rec.Content); err != nil {
			return nil, fmt.Errorf("decode record content: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
