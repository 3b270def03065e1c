// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentRecord is one immutable snapshot of every editable region on a
// page. Saving a page always inserts a new record with the next version
// number; prior versions are never modified, which keeps the full edit
// history recoverable.
type ContentRecord struct {
	ID        uuid.UUID         `json:"id"`
	PagePath  string            `json:"page_path"`
	Version   int               `json:"version"`
	Content   map[string]string `json:"content"` // region id → value
	Published bool              `json:"published"`
	CreatedBy *uuid.UUID        `json:"created_by,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// PageAssignment grants a contributor-role user edit access to a single
// page. Admins and editors do not need assignments; viewers cannot hold
// them to any effect.
type PageAssignment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	PagePath  string    `json:"page_path"`
	CreatedAt time.Time `json:"created_at"`
}
