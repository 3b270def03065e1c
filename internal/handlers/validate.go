// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validation limits for user form fields.
const (
	maxEmailLen       = 254
	maxDisplayNameLen = 200
	minPasswordLen    = 10
	maxPasswordLen    = 200
)

// validateNewUser checks the create-user form inputs and returns the first
// error found, or "" when all fields pass.
func validateNewUser(email, password, displayName string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required."
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return "Email is too long (max 254 characters)."
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Email address is not valid."
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return "Name is too long (max 200 characters)."
	}

	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 10 characters."
	}
	if utf8.RuneCountInString(password) > maxPasswordLen {
		return "Password is too long (max 200 characters)."
	}

	return ""
}
