// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// SecureHeaders sets the response headers every page — public or edit
// variant — goes out with. Pages carrying contenteditable regions and the
// editor's fetch endpoints must never be framed by another origin or have
// their content types second-guessed by the browser.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		// Snapshot downloads are served with an explicit JSON content
		// type; keep the browser from sniffing past it.
		h.Set("X-Content-Type-Options", "nosniff")

		// The edit chrome must not be framable from elsewhere.
		h.Set("X-Frame-Options", "SAMEORIGIN")

		// Legacy XSS filter off; it mangles contenteditable round-trips.
		h.Set("X-XSS-Protection", "0")

		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "interest-cohort=()")

		next.ServeHTTP(w, r)
	})
}
