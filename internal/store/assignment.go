// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"fibersite/internal/models"
)

// AssignmentStore handles page assignments — the rows that let a
// contributor edit one specific page. Only admins create or remove them.
type AssignmentStore struct {
	db *sql.DB
}

// NewAssignmentStore creates a new AssignmentStore with the given database connection.
func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// Exists reports whether an assignment exists for (user, page). This is
// the lookup the access resolver runs on every contributor edit check.
func (s *AssignmentStore) Exists(ctx context.Context, userID uuid.UUID, pagePath string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM page_assignments WHERE user_id = $1 AND page_path = $2
	`, userID, pagePath).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("assignment exists: %w", err)
	}
	return n > 0, nil
}

// ListForUser returns all assignments held by a user.
func (s *AssignmentStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.PageAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, page_path, created_at
		FROM page_assignments WHERE user_id = $1 ORDER BY page_path ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assignments for user: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// ListForPage returns all assignments granting access to a page.
func (s *AssignmentStore) ListForPage(ctx context.Context, pagePath string) ([]models.PageAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, page_path, created_at
		FROM page_assignments WHERE page_path = $1 ORDER BY created_at ASC
	`, pagePath)
	if err != nil {
		return nil, fmt.Errorf("list assignments for page: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// Create grants a user edit access to a page. Granting the same pair
// twice is a no-op thanks to the unique index.
func (s *AssignmentStore) Create(ctx context.Context, userID uuid.UUID, pagePath string) (*models.PageAssignment, error) {
	a := &models.PageAssignment{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO page_assignments (user_id, page_path)
		VALUES ($1, $2)
		ON CONFLICT (user_id, page_path) DO UPDATE SET page_path = EXCLUDED.page_path
		RETURNING id, user_id, page_path, created_at
	`, userID, pagePath).Scan(&a.ID, &a.UserID, &a.PagePath, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	return a, nil
}

// DeleteByID revokes an assignment by its row ID. The admin screen works
// with IDs because it lists assignments, not (user, page) pairs.
func (s *AssignmentStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM page_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment by id: %w", err)
	}
	return nil
}

// Delete revokes a user's access to a page.
func (s *AssignmentStore) Delete(ctx context.Context, userID uuid.UUID, pagePath string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM page_assignments WHERE user_id = $1 AND page_path = $2
	`, userID, pagePath)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

func scanAssignments(rows *sql.Rows) ([]models.PageAssignment, error) {
	var assignments []models.PageAssignment
	for rows.Next() {
		var a models.PageAssignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.PagePath, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
