// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package access derives capabilities from user roles and answers whether
// an identity may edit a given page. All queries fail closed: an unknown
// identity or a failed assignment lookup resolves to denial, never to an
// error surfaced to the caller.
package access

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"fibersite/internal/models"
)

// Capability is a named permission derived from a role.
type Capability string

const (
	CapManageUsers    Capability = "manage_users"
	CapEditContent    Capability = "edit_content"
	CapPublishContent Capability = "publish_content"
	CapViewContent    Capability = "view_content"
	CapManageMedia    Capability = "manage_media"
)

// Capabilities lists every capability the system defines.
var Capabilities = []Capability{
	CapManageUsers,
	CapEditContent,
	CapPublishContent,
	CapViewContent,
	CapManageMedia,
}

// roleCapabilities is the fixed role → capability table. Admin rows are
// all true; the table is kept explicit (rather than special-casing admin)
// so it can be audited and exhaustively tested.
var roleCapabilities = map[models.Role]map[Capability]bool{
	models.RoleAdmin: {
		CapManageUsers:    true,
		CapEditContent:    true,
		CapPublishContent: true,
		CapViewContent:    true,
		CapManageMedia:    true,
	},
	models.RoleEditor: {
		CapManageUsers:    false,
		CapEditContent:    true,
		CapPublishContent: true,
		CapViewContent:    true,
		CapManageMedia:    true,
	},
	models.RoleContributor: {
		CapManageUsers:    false,
		CapEditContent:    true,
		CapPublishContent: false,
		CapViewContent:    true,
		CapManageMedia:    false,
	},
	models.RoleViewer: {
		CapManageUsers:    false,
		CapEditContent:    false,
		CapPublishContent: false,
		CapViewContent:    true,
		CapManageMedia:    false,
	},
}

// Identity is the authenticated principal capability checks run against.
// A nil *Identity means "not authenticated" and holds no capabilities.
type Identity struct {
	UserID uuid.UUID
	Role   models.Role
}

// HasCapability reports whether the identity's role grants the capability.
// Derived fresh from the role table on every call; nothing is cached.
func HasCapability(id *Identity, c Capability) bool {
	if id == nil {
		return false
	}
	caps, ok := roleCapabilities[id.Role]
	if !ok {
		return false
	}
	return caps[c]
}

// AssignmentLookup answers whether a page assignment exists for a user.
// Implemented by store.AssignmentStore.
type AssignmentLookup interface {
	Exists(ctx context.Context, userID uuid.UUID, pagePath string) (bool, error)
}

// Resolver gates page editing. Capability checks are pure; the contributor
// path additionally consults the assignment store.
type Resolver struct {
	assignments AssignmentLookup
}

// NewResolver creates a Resolver backed by the given assignment lookup.
func NewResolver(assignments AssignmentLookup) *Resolver {
	return &Resolver{assignments: assignments}
}

// CanEditPage reports whether the identity may edit the page at the given
// normalized path. Admins and editors may edit any page; contributors only
// pages they are assigned to. A lookup error is logged and treated as "no
// assignment" — denial over accidental exposure.
func (r *Resolver) CanEditPage(ctx context.Context, id *Identity, pagePath string) bool {
	if !HasCapability(id, CapEditContent) {
		return false
	}

	switch id.Role {
	case models.RoleAdmin, models.RoleEditor:
		return true
	case models.RoleContributor:
		ok, err := r.assignments.Exists(ctx, id.UserID, pagePath)
		if err != nil {
			slog.Warn("assignment lookup failed, denying edit",
				"user_id", id.UserID,
				"page", pagePath,
				"error", err,
			)
			return false
		}
		return ok
	}
	return false
}
