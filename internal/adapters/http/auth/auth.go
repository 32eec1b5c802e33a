// Package auth serves the login, registration and logout flows and guards
// routes that need a signed-in user. Credentials are verified by the
// client-side identity provider; the server only records the identity it
// is handed.
package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"

	"github.com/okian/outbreak/internal/adapters/session"
	"github.com/okian/outbreak/internal/domain/types"
	"github.com/okian/outbreak/pkg/logger"
	"github.com/okian/outbreak/pkg/metrics"
)

// Page names understood by the Renderer.
const (
	PageLogin    = "login"
	PageRegister = "register"
)

// Flash messages shown after auth actions.
const (
	MsgLoginSuccess  = "Login successful!"
	MsgRegistered    = "Registration successful! A verification email has been sent to your email address. Please verify your email before logging in."
	MsgEmailRequired = "Email is required"
	MsgResetSent     = "Password reset email sent"
)

// Renderer draws a named page.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, page string, data any)
}

// ProviderConfig is the public client configuration of the identity
// provider, handed to the login and register pages.
type ProviderConfig struct {
	APIKey            string `json:"apiKey"`
	AuthDomain        string `json:"authDomain"`
	ProjectID         string `json:"projectId"`
	StorageBucket     string `json:"storageBucket"`
	MessagingSenderID string `json:"messagingSenderId"`
	AppID             string `json:"appId"`
	MeasurementID     string `json:"measurementId"`
}

// PageData is passed to the login and register pages.
type PageData struct {
	Provider ProviderConfig
}

// Handler serves the auth routes.
type Handler struct {
	sessions *session.Manager
	render   Renderer
	provider ProviderConfig
	log      logger.Logger
}

// NewHandler creates the auth handler.
func NewHandler(sessions *session.Manager, render Renderer, provider ProviderConfig, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{sessions: sessions, render: render, provider: provider, log: log}
}

// Register attaches the auth routes to r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/login", h.HandleLoginPage)
	r.Post("/login", h.HandleLogin)
	r.Get("/register", h.HandleRegisterPage)
	r.Post("/register", h.HandleRegister)
	r.With(RequireUser(h.sessions, h.log)).Get("/logout", h.HandleLogout)
	r.Post("/reset-password", h.HandleResetPassword)
}

// HandleLoginPage handles GET /login.
func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render.Render(w, r, http.StatusOK, PageLogin, PageData{Provider: h.provider})
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		metrics.RecordLogin("failure")
		session.SetFlash(w, session.Flash{Category: session.FlashDanger, Message: "Invalid login request"})
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	u, ok := IdentityFromForm(r.PostForm.Get("email"), r.PostForm.Get("username"), r.PostForm.Get("firebase_uid"))
	if !ok {
		metrics.RecordLogin("failure")
		session.SetFlash(w, session.Flash{Category: session.FlashDanger, Message: MsgEmailRequired})
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	claims, err := h.sessions.Issue(w, u)
	if err != nil {
		metrics.RecordLogin("failure")
		h.log.Error(r.Context(), "issue session", logger.String("uid", u.ID), logger.Error(err))
		session.SetFlash(w, session.Flash{Category: session.FlashDanger, Message: "Login failed. Please try again."})
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	metrics.RecordLogin("success")
	h.log.Info(r.Context(), "user signed in", logger.String("uid", u.ID), logger.String("sid", claims.ID))
	session.SetFlash(w, session.Flash{Category: session.FlashSuccess, Message: MsgLoginSuccess})
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// HandleRegisterPage handles GET /register.
func (h *Handler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render.Render(w, r, http.StatusOK, PageRegister, PageData{Provider: h.provider})
}

// HandleRegister handles POST /register. The account itself is created by
// the identity provider in the browser.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	session.SetFlash(w, session.Flash{Category: session.FlashSuccess, Message: MsgRegistered})
	http.Redirect(w, r, "/login", http.StatusFound)
}

// HandleLogout handles GET /logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, err := h.sessions.Current(r)
	if err != nil {
		h.sessions.Clear(w)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err := h.sessions.End(r.Context(), w, claims); err != nil {
		h.log.Error(r.Context(), "revoke session", logger.String("sid", claims.ID), logger.Error(err))
	}
	metrics.RecordLogout()
	http.Redirect(w, r, "/login", http.StatusFound)
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleResetPassword handles POST /reset-password. The reset mail is sent
// by the identity provider in the browser; the server only validates input.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, resetResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeJSON(w, resetResponse{Error: MsgEmailRequired})
		return
	}
	writeJSON(w, resetResponse{Success: true, Message: MsgResetSent})
}

func (h *Handler) signedIn(r *http.Request) bool {
	_, err := h.sessions.Current(r)
	return err == nil
}

// IdentityFromForm builds the session identity from login form values.
// The name defaults to the local part of the email and the id to a stable
// hash of the email.
func IdentityFromForm(email, username, uid string) (types.User, bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		return types.User{}, false
	}
	if addr, err := mail.ParseAddress(email); err == nil {
		email = addr.Address
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = "User"
		if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
			username = local
		}
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		uid = fmt.Sprintf("user_%016x", xxhash.Sum64String(strings.ToLower(email)))
	}
	return types.User{ID: uid, Email: email, Name: username}, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
