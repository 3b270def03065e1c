// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains: the public
// pages and their edit variants, the editor endpoints, the auth flow, and
// the admin screens.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fibersite/internal/access"
	"fibersite/internal/handlers"
	"fibersite/internal/middleware"
	"fibersite/internal/session"
	"fibersite/web"
)

// Options configures the router.
type Options struct {
	// SecureCookies enables the Secure attribute on the CSRF cookie.
	SecureCookies bool
}

// New creates and returns the configured chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, auth *handlers.Auth, public *handlers.Public, edit *handlers.Editor, admin *handlers.Admin, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.NewCSRF(opts.SecureCookies))
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no session.
	r.Get("/health", handlers.Health)

	// Embedded static assets.
	staticFS, _ := fs.Sub(web.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Auth flow. Login submissions are rate limited per client IP.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	r.Get("/login", auth.LoginPage)
	r.With(loginLimiter.Middleware).Post("/login", auth.LoginSubmit)
	r.Post("/logout", auth.Logout)

	// 2FA — requires auth but NOT completed 2FA.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/2fa/setup", auth.TwoFASetupPage)
		r.Post("/2fa/setup", auth.TwoFASetupSubmit)
		r.Get("/2fa/verify", auth.TwoFAVerifyPage)
		r.Post("/2fa/verify", auth.TwoFAVerifySubmit)
	})

	// Editor endpoints — authenticated, 2FA-verified.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.Require2FA)

		// Edit variants: /edit for the root page, /{page}/edit elsewhere.
		r.Get("/edit", edit.EditPage)
		r.Get("/{page}/edit", edit.EditPage)

		r.Route("/editor", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(access.CapManageMedia))
				r.Post("/media", edit.MediaUpload)
				r.Post("/media/delete", edit.MediaDelete)
			})

			r.Route("/{page}", func(r chi.Router) {
				r.Post("/save", edit.Save)
				r.Get("/export", edit.Export)
				r.Post("/import", edit.Import)
				r.Post("/cancel", edit.Cancel)
				r.Post("/done", edit.Done)
			})
		})
	})

	// Admin screens — manage_users only.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.Require2FA)
		r.Use(middleware.RequireCapability(access.CapManageUsers))

		r.Get("/users", admin.UsersPage)
		r.Get("/pages/{page}/versions", admin.PageVersions)
		r.Post("/users", admin.UserCreate)
		r.Post("/users/{id}/role", admin.UserSetRole)
		r.Post("/users/{id}/delete", admin.UserDelete)
		r.Post("/users/{id}/assignments", admin.AssignmentCreate)
		r.Post("/assignments/{id}/delete", admin.AssignmentDelete)
	})

	// Public pages last, so declared routes never shadow them.
	r.Get("/", public.Page)
	r.Get("/{page}", public.Page)

	return r
}
