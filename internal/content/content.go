// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content is the client the rest of the system reads and writes
// page content through. It enforces the visibility rule — anonymous
// readers see the latest published record, identities with edit_content
// preview their latest draft — and the append-only save discipline.
package content

import (
	"context"
	"errors"
	"fmt"

	"fibersite/internal/access"
	"fibersite/internal/models"
)

// ErrNoContent is returned when a page has no visible saved content.
// Distinct from an empty content map, which is a real (if vacuous) save.
var ErrNoContent = errors.New("no content for page")

// RecordStore is the persistence surface the service needs. Implemented
// by store.RecordStore; tests substitute an in-memory version.
type RecordStore interface {
	FindLatest(ctx context.Context, pagePath string, publishedOnly bool) (*models.ContentRecord, error)
	MaxVersion(ctx context.Context, pagePath string) (int, error)
	Insert(ctx context.Context, rec *models.ContentRecord) (*models.ContentRecord, error)
}

// Service reads and persists versioned page content.
type Service struct {
	records RecordStore
}

// NewService creates a content service over the given record store.
func NewService(records RecordStore) *Service {
	return &Service{records: records}
}

// GetPageContent returns the content map visible to the given identity.
// Anonymous readers get the latest published record. Identities holding
// edit_content read the highest version regardless of state, so their
// newest draft is never shadowed by an older published record.
// ErrNoContent when nothing visible exists.
func (s *Service) GetPageContent(ctx context.Context, pagePath string, id *access.Identity) (map[string]string, error) {
	publishedOnly := !access.HasCapability(id, access.CapEditContent)

	rec, err := s.records.FindLatest(ctx, pagePath, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("get page content: %w", err)
	}
	if rec == nil {
		return nil, ErrNoContent
	}
	return rec.Content, nil
}

// LatestVersion returns the highest stored version for a page (0 if the
// page has never been saved). Editors carry this through to save so
// concurrent edits are detected instead of silently interleaved.
func (s *Service) LatestVersion(ctx context.Context, pagePath string) (int, error) {
	v, err := s.records.MaxVersion(ctx, pagePath)
	if err != nil {
		return 0, fmt.Errorf("latest version: %w", err)
	}
	return v, nil
}

// SavePageContent appends a new content record for the page. The record is
// published immediately when the author holds publish_content, otherwise
// saved as a draft. expectedVersion is the version the author loaded; pass
// a negative value to save on top of whatever is current (import flows).
// A store.ErrVersionConflict surfaces unchanged so callers can distinguish
// it from other save failures.
func (s *Service) SavePageContent(ctx context.Context, pagePath string, content map[string]string, id *access.Identity, expectedVersion int) (*models.ContentRecord, error) {
	if expectedVersion < 0 {
		max, err := s.records.MaxVersion(ctx, pagePath)
		if err != nil {
			return nil, fmt.Errorf("save page content: %w", err)
		}
		expectedVersion = max
	}

	rec := &models.ContentRecord{
		PagePath:  pagePath,
		Version:   expectedVersion + 1,
		Content:   cloneContent(content),
		Published: access.HasCapability(id, access.CapPublishContent),
	}
	if id != nil {
		createdBy := id.UserID
		rec.CreatedBy = &createdBy
	}

	saved, err := s.records.Insert(ctx, rec)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// cloneContent copies the map so a saved record never aliases the live
// region values the editor keeps mutating.
func cloneContent(content map[string]string) map[string]string {
	out := make(map[string]string, len(content))
	for k, v := range content {
		out[k] = v
	}
	return out
}
