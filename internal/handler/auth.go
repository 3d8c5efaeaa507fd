package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/service"
	"github.com/sakif/blog/internal/session"
)

// AuthHandler manages registration, login, logout and the profile page.
//
//   - HandleRegister → create the account, log it in, redirect to /profile
//   - HandleLogin    → check credentials, open a session, redirect to /profile
//   - HandleLogout   → destroy the session, redirect to /
//   - HandleProfile  → the caller's own posts
type AuthHandler struct {
	auth     *service.AuthService
	posts    *service.PostService
	sessions *session.Manager
	render   *Renderer
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	posts *service.PostService,
	sessions *session.Manager,
	render *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		posts:    posts,
		sessions: sessions,
		render:   render,
		logger:   logger,
	}
}

// HandleLoginForm renders the login form.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "login", page(r, "Login", "/login", nil))
}

// HandleLogin checks the submitted credentials.
//
// HTTP: POST /login
// REQUEST BODY: {"username": "...", "password": "..."} (JSON or form)
//
// Failure answers 401 {"message": "Invalid credentials"} whether the
// username or the password was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentialsInput
	if err := decodeInput(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidCredentials) {
			h.logger.Info("login rejected", slog.String("remoteAddr", r.RemoteAddr))
		}
		writeError(w, r, h.logger, err)
		return
	}

	h.sessions.WriteCookie(w, result.Ticket)
	redirect(w, r, "/profile")
}

// HandleRegisterForm renders the registration form.
//
// HTTP: GET /register
func (h *AuthHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "register", page(r, "Register", "/register", nil))
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /register
// REQUEST BODY: {"username": "...", "password": "..."} (JSON or form)
//
// A taken username answers 409 {"message": "User already in use"}.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in credentialsInput
	if err := decodeInput(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.auth.Register(r.Context(), in.Username, in.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.sessions.WriteCookie(w, result.Ticket)
	redirect(w, r, "/profile")
}

// HandleLogout destroys the caller's session.
//
// HTTP: GET /logout
//
// If the session row cannot be deleted the cookie is kept and the caller gets
// a 500, so a retry can still reach the same session.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}
	redirect(w, r, "/")
}

// Profile is the data of the profile template.
type Profile struct {
	User  *model.User
	Posts []model.Post
}

// HandleProfile renders the caller's own posts. RequireAuth guards the route.
//
// HTTP: GET /profile
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		redirect(w, r, "/login")
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// The account behind a live session is gone.
			redirect(w, r, "/login")
			return
		}
		writeTextError(w, r, h.logger, err)
		return
	}

	posts, err := h.posts.ListByOwner(r.Context(), user.ID)
	if err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}

	h.render.Render(w, http.StatusOK, "profile", page(r, user.Username, "/profile", Profile{
		User:  user,
		Posts: posts,
	}))
}
