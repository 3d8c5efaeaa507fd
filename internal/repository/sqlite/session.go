package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

var _ repository.SessionRepository = (*SessionStore)(nil)

// SessionStore keeps server-side sessions in the sessions table.
type SessionStore struct {
	db *sqlx.DB
}

// Save inserts or replaces a session record.
func (s *SessionStore) Save(ctx context.Context, sess *model.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, user_id, username, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID,
		sess.UserID,
		sess.Username,
		sess.CreatedAt.UTC(),
		sess.ExpiresAt.UTC(),
	)
	if err != nil {
		return apperror.Store("sqlite: saving session", err)
	}
	return nil
}

// Get loads a session. Expiry is the caller's concern.
func (s *SessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	err := s.db.GetContext(ctx, &sess,
		`SELECT id, user_id, username, created_at, expires_at FROM sessions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", id)
		}
		return nil, apperror.Store("sqlite: getting session", err)
	}
	return &sess, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return apperror.Store("sqlite: deleting session", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry is at or before now and
// returns how many were removed.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, apperror.Store("sqlite: deleting expired sessions", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperror.Store("sqlite: checking rows affected", err)
	}
	return n, nil
}
