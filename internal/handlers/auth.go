// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"fibersite/internal/editor"
	"fibersite/internal/middleware"
	"fibersite/internal/render"
	"fibersite/internal/session"
	"fibersite/internal/store"
)

// totpIssuer is the issuer shown in authenticator apps.
const totpIssuer = "Lightway Networks"

// Auth groups all authentication-related HTTP handlers. The login and 2FA
// flows carry a next parameter through every step so a visitor who asked
// for an edit variant lands back on it once authenticated — the editor's
// credential prompt is exactly this round trip.
type Auth struct {
	renderer  *render.Renderer
	sessions  *session.Store
	userStore *store.UserStore
	editors   *editor.Manager
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore, editors *editor.Manager) *Auth {
	return &Auth{
		renderer:  renderer,
		sessions:  sessions,
		userStore: userStore,
		editors:   editors,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))

	// Already fully authenticated — nothing to do here.
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.TwoFADone {
		if next == "" {
			next = "/"
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign in",
		Data:  map[string]any{"next": next},
	})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"))

	fail := func(message string) {
		a.renderer.Page(w, r, "login", &render.PageData{
			Title:   "Sign in",
			Flashes: []render.Flash{{Type: "error", Message: message}},
			Data:    map[string]any{"next": next},
		})
	}

	user, err := a.userStore.FindByEmail(r.Context(), email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, password) {
		fail("Invalid email or password.")
		return
	}

	// TwoFADone starts false — the session holds no capabilities until the
	// second factor clears.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   false,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	target := "/2fa/verify"
	if user.Needs2FASetup() {
		target = "/2fa/setup"
	}
	if next != "" {
		target += "?next=" + url.QueryEscape(next)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// TwoFASetupPage generates a TOTP secret and displays the QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	next := safeNext(r.URL.Query().Get("next"))

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.userStore.SetTOTPSecret(r.Context(), sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	qr, err := qrPNGBase64(key.URL())
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set up two-factor authentication",
		Data: map[string]any{
			"qr":     qr,
			"secret": key.Secret(),
			"next":   next,
		},
	})
}

// TwoFASetupSubmit validates the first TOTP code and enables 2FA.
func (a *Auth) TwoFASetupSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	next := safeNext(r.FormValue("next"))

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa setup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPSecret == nil {
		http.Redirect(w, r, setupURL(next), http.StatusSeeOther)
		return
	}

	if !totp.Validate(r.FormValue("code"), *user.TOTPSecret) {
		// Re-render the setup page against the same secret so the user
		// does not have to re-scan.
		qr, qrErr := qrPNGBase64(otpauthURL(user.Email, *user.TOTPSecret))
		if qrErr != nil {
			slog.Error("qr code regeneration failed", "error", qrErr)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		a.renderer.Page(w, r, "2fa_setup", &render.PageData{
			Title:   "Set up two-factor authentication",
			Flashes: []render.Flash{{Type: "error", Message: "Invalid code. Please try again."}},
			Data: map[string]any{
				"qr":     qr,
				"secret": *user.TOTPSecret,
				"next":   next,
			},
		})
		return
	}

	if err := a.userStore.EnableTOTP(r.Context(), user.ID); err != nil {
		slog.Error("enable totp failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.completeTwoFA(w, r, sess, next)
}

// TwoFAVerifyPage renders the code entry form for users with 2FA enrolled.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-factor check",
		Data:  map[string]any{"next": safeNext(r.URL.Query().Get("next"))},
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	next := safeNext(r.FormValue("next"))

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if user.TOTPSecret == nil {
		http.Redirect(w, r, setupURL(next), http.StatusSeeOther)
		return
	}

	if !totp.Validate(r.FormValue("code"), *user.TOTPSecret) {
		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title:   "Two-factor check",
			Flashes: []render.Flash{{Type: "error", Message: "Invalid code. Please try again."}},
			Data:    map[string]any{"next": next},
		})
		return
	}

	a.completeTwoFA(w, r, sess, next)
}

// completeTwoFA marks the session fully authenticated and sends the user
// to where they were originally headed.
func (a *Auth) completeTwoFA(w http.ResponseWriter, r *http.Request, sess *session.Data, next string) {
	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout destroys the session, drops any live edit sessions it held, and
// returns to the homepage.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if a.editors != nil {
		a.editors.RemoveSession(session.ID(r))
	}
	a.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func setupURL(next string) string {
	if next == "" {
		return "/2fa/setup"
	}
	return "/2fa/setup?next=" + url.QueryEscape(next)
}

// otpauthURL rebuilds the provisioning URL for an already-stored secret.
func otpauthURL(email, secret string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(totpIssuer), url.PathEscape(email), secret, url.QueryEscape(totpIssuer))
}

func qrPNGBase64(otpURL string) (string, error) {
	png, err := qrcode.Encode(otpURL, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
