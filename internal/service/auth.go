// Package service contains the business rules of the blog.
//
//	Handler (HTTP) → Service (rules) → Repository (storage)
//
// Services take and return plain Go values and apperror errors; they never
// see an http.Request. The repositories and the session starter arrive as
// interfaces, so tests swap in in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
	"github.com/sakif/blog/internal/session"
)

// SessionStarter opens a logged-in session for a user. *session.Manager
// implements it.
type SessionStarter interface {
	Start(ctx context.Context, user *model.User) (*session.Ticket, error)
}

// AuthService registers users and checks logins.
type AuthService struct {
	users     repository.UserRepository
	sessions  SessionStarter
	passwords *auth.PasswordService
	logger    *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	sessions SessionStarter,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user with the session opened for it, so the handler
// can set the cookie and redirect in one step.
type AuthResult struct {
	User   *model.User
	Ticket *session.Ticket
}

// CreateUser validates the credentials, hashes the password and stores a new
// user. No session is opened; the admin CLI uses this directly.
//
// Failures: apperror.ErrValidation for a missing username or password (or a
// password over 72 bytes), apperror.ErrConflict when the username is taken.
func (s *AuthService) CreateUser(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("registration rejected: username taken", slog.String("username", username))
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Register creates the user and logs them straight in.
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.CreateUser(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user)
}

// Login checks username and password and opens a session.
//
// An unknown username and a wrong password both return
// apperror.InvalidCredentials, and both pay for one bcrypt comparison, so
// neither the error nor the response time tells the caller which one failed.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.InvalidCredentials()
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = s.passwords.Verify(s.placeholderHash(), password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash is unusable",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.InvalidCredentials()
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *model.User) (*AuthResult, error) {
	ticket, err := s.sessions.Start(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: starting session for %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Ticket: ticket}, nil
}

// placeholderHash returns a bcrypt hash of a fixed string. Login verifies
// against it when the username does not exist.
func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.passwords.Hash("placeholder-password-never-matches")
		if err != nil {
			s.logger.Error("building placeholder hash", slog.String("error", err.Error()))
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// GetUserByID returns the user for the given internal ID. The profile page
// uses it to show the role.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
