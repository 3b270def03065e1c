package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"fibersite/internal/models"
)

// MediaStore tracks uploaded images referenced by image regions.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

// FindByID retrieves a media record by its UUID. Returns nil if not found.
func (s *MediaStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	m := &models.Media{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, content_type, bucket, s3_key, size_bytes, uploaded_by, created_at
		FROM media WHERE id = $1
	`, id).Scan(
		&m.ID, &m.Filename, &m.ContentType, &m.Bucket, &m.S3Key,
		&m.SizeBytes, &m.UploadedBy, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media by id: %w", err)
	}
	return m, nil
}

// Create inserts a new media record and returns it with the generated ID.
func (s *MediaStore) Create(ctx context.Context, m *models.Media) (*models.Media, error) {
	out := &models.Media{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO media (filename, content_type, bucket, s3_key, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, filename, content_type, bucket, s3_key, size_bytes, uploaded_by, created_at
	`, m.Filename, m.ContentType, m.Bucket, m.S3Key, m.SizeBytes, m.UploadedBy).Scan(
		&out.ID, &out.Filename, &out.ContentType, &out.Bucket, &out.S3Key,
		&out.SizeBytes, &out.UploadedBy, &out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return out, nil
}

// List returns all media records, newest first.
func (s *MediaStore) List(ctx context.Context) ([]models.Media, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, content_type, bucket, s3_key, size_bytes, uploaded_by, created_at
		FROM media ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		var m models.Media
		if err := rows.Scan(
			&m.ID, &m.Filename, &m.ContentType, &m.Bucket, &m.S3Key,
			&m.SizeBytes, &m.UploadedBy, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Delete removes a media record by ID.
func (s *MediaStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}

// DeleteByKey removes a media record by its object key — the handle the
// edit chrome holds after extracting it from the file URL.
func (s *MediaStore) DeleteByKey(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE s3_key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete media by key: %w", err)
	}
	return nil
}
