package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore is the credential store backed by the users table.
type UserStore struct {
	db *sqlx.DB
}

const userColumns = `id, username, password_hash, role, created_at, updated_at`

// Create inserts a new user, filling in ID and timestamps.
//
// The UNIQUE constraint on username is the only duplicate check; a violation
// comes back as apperror.DuplicateUsername so the caller can answer 409.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateUsername(user.Username)
		}
		return apperror.Store("sqlite: inserting user", err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getOne(ctx, "id", id)
}

// GetByUsername retrieves a user by username. Matching is exact.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getOne(ctx, "username", username)
}

func (s *UserStore) getOne(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, apperror.Store("sqlite: getting user by "+column, err)
	}
	return &u, nil
}
