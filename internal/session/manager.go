// Package session is the server-side session manager.
//
// A session row binds one browser to one user. The browser holds a cookie
// whose value is a signed reference to the row (see auth.TokenService), so
// every request resolves its caller afresh from the store; nothing about the
// logged-in state is kept in process memory.
//
// WHY SERVER-SIDE SESSIONS?
// A self-contained token (all claims in the cookie) cannot be taken back
// before it expires. Here logout and expiry are a row delete, and the
// cleanup loop sweeps expired rows on SESSION_CLEANUP_INTERVAL. The price is
// one indexed lookup per request, which SQLite answers from the primary key.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// DefaultCookieName is the session cookie name when none is configured.
const DefaultCookieName = "connect.sid"

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// Config controls the cookie and the lifetime of new sessions.
type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool // send the cookie over HTTPS only
}

// Ticket is a freshly started session plus the cookie value that refers to it.
type Ticket struct {
	Session *model.Session
	Token   string
}

// Manager issues, resolves and destroys sessions.
type Manager struct {
	store  repository.SessionRepository
	tokens *auth.TokenService
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a Manager. Zero Config fields take the defaults above.
func NewManager(store repository.SessionRepository, tokens *auth.TokenService, cfg Config, logger *slog.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Manager{
		store:  store,
		tokens: tokens,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// Start persists a new logged-in session for user and signs its cookie value.
// It does not touch HTTP; Create is Start plus WriteCookie.
func (m *Manager) Start(ctx context.Context, user *model.User) (*Ticket, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("session: user must have an id")
	}

	now := m.now().UTC()
	sess := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.TTL),
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("session: saving session: %w", err)
	}

	token, err := m.tokens.Sign(sess.ID, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("session: signing cookie: %w", err)
	}

	return &Ticket{Session: sess, Token: token}, nil
}

// Create starts a session for user and sends its cookie on w.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, user *model.User) (*model.Session, error) {
	ticket, err := m.Start(ctx, user)
	if err != nil {
		return nil, err
	}
	m.WriteCookie(w, ticket)
	return ticket.Session, nil
}

// WriteCookie sends the session cookie for ticket.
func (m *Manager) WriteCookie(w http.ResponseWriter, ticket *Ticket) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    ticket.Token,
		Path:     "/",
		Expires:  ticket.Session.ExpiresAt,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CurrentUser resolves the caller of r. A missing, forged, expired or
// destroyed session yields the zero Identity and a nil error; only a store
// failure is an error.
func (m *Manager) CurrentUser(r *http.Request) (model.Identity, error) {
	sess, err := m.lookup(r)
	if err != nil || sess == nil {
		return model.Identity{}, err
	}
	return model.Identity{UserID: sess.UserID, Username: sess.Username}, nil
}

// lookup returns the live session named by r's cookie, or nil.
func (m *Manager) lookup(r *http.Request) (*model.Session, error) {
	id, ok := m.sessionID(r)
	if !ok {
		return nil, nil
	}

	sess, err := m.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: loading session: %w", err)
	}
	if sess.Expired(m.now()) || sess.UserID == "" {
		return nil, nil
	}
	return sess, nil
}

// sessionID extracts and verifies the session id from the cookie.
func (m *Manager) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	id, err := m.tokens.Verify(cookie.Value)
	if err != nil {
		m.logger.Debug("ignoring invalid session cookie", slog.String("error", err.Error()))
		return "", false
	}
	return id, true
}

// Destroy deletes the caller's session and tells the browser to drop the
// cookie. If the store cannot delete the row the error wraps
// apperror.ErrSession and the cookie is left alone. A request without a
// session is a successful no-op apart from clearing the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if id, ok := m.sessionID(r); ok {
		if err := m.store.Delete(ctx, id); err != nil {
			return apperror.Session("destroying session", err)
		}
	}
	m.clearCookie(w)
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Cleanup deletes every expired session and returns how many were removed.
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpired(ctx, m.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("session: cleaning up: %w", err)
	}
	return n, nil
}

// RunCleanup calls Cleanup every interval until ctx is cancelled.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Cleanup(ctx)
			if err != nil {
				m.logger.Error("session cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				m.logger.Info("expired sessions removed", slog.Int64("count", n))
			}
		}
	}
}

// LoadIdentity resolves the caller once per request and stores it in the
// request context for auth.IdentityFromContext. A store failure ends the
// request with a 500.
func (m *Manager) LoadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.CurrentUser(r)
		if err != nil {
			m.logger.Error("resolving session failed",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}
