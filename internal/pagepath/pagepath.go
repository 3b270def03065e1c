// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pagepath canonicalizes route paths into the identifiers used as
// content storage keys. "/about/", "about" and "/about" all refer to the
// same page; the site root maps to the "index" sentinel.
package pagepath

import "strings"

// Index is the sentinel path for the site root. An empty or "/" route
// normalizes to this value so the homepage has a storable key.
const Index = "index"

// EditSuffix is the reserved route suffix that requests the edit variant
// of a page. The root's edit variant is "/edit" itself.
const EditSuffix = "/edit"

// Normalize converts a raw route path into its canonical storage form.
// Leading and trailing slashes are stripped; the empty result becomes the
// index sentinel.
func Normalize(raw string) string {
	p := strings.Trim(strings.TrimSpace(raw), "/")
	if p == "" {
		return Index
	}
	return p
}

// EditVariant returns the edit-mode route for a normalized page path.
// The index page's edit variant is "/edit" — there is no suffix to append
// to an empty base.
func EditVariant(page string) string {
	if page == Index || page == "" {
		return EditSuffix
	}
	return "/" + page + EditSuffix
}

// ViewVariant returns the non-edit route for a normalized page path.
func ViewVariant(page string) string {
	if page == Index || page == "" {
		return "/"
	}
	return "/" + page
}
