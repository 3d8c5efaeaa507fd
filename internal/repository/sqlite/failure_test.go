package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
)

// newMockDB returns an sqlx handle over go-sqlmock so driver failures can be
// injected without a real database.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return sqlx.NewDb(conn, "sqlmock"), mock
}

var errDiskGone = errors.New("disk I/O error")

func TestStoreFailuresPropagateAsStoreError(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		call   func(db *sqlx.DB) error
	}{
		{
			name:   "insert user",
			expect: func(m sqlmock.Sqlmock) { m.ExpectExec("INSERT INTO users").WillReturnError(errDiskGone) },
			call: func(db *sqlx.DB) error {
				return (&UserStore{db: db}).Create(ctx, &model.User{Username: "a", PasswordHash: "h"})
			},
		},
		{
			name:   "get user",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery("SELECT (.+) FROM users").WillReturnError(errDiskGone) },
			call: func(db *sqlx.DB) error {
				_, err := (&UserStore{db: db}).GetByUsername(ctx, "a")
				return err
			},
		},
		{
			name:   "search posts",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery("SELECT (.+) FROM posts").WillReturnError(errDiskGone) },
			call: func(db *sqlx.DB) error {
				_, err := (&PostStore{db: db}).Search(ctx, "x")
				return err
			},
		},
		{
			name:   "update post",
			expect: func(m sqlmock.Sqlmock) { m.ExpectExec("UPDATE posts").WillReturnError(errDiskGone) },
			call: func(db *sqlx.DB) error {
				return (&PostStore{db: db}).Update(ctx, &model.Post{ID: "p", Title: "t", Body: "b"})
			},
		},
		{
			name:   "delete session",
			expect: func(m sqlmock.Sqlmock) { m.ExpectExec("DELETE FROM sessions").WillReturnError(errDiskGone) },
			call: func(db *sqlx.DB) error {
				return (&SessionStore{db: db}).Delete(ctx, "s")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.expect(mock)

			err := tt.call(db)
			if !errors.Is(err, apperror.ErrStore) {
				t.Errorf("error = %v, want ErrStore", err)
			}
			if !errors.Is(err, errDiskGone) {
				t.Errorf("error = %v, want the driver error preserved", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestDeleteReportsNotFoundOnZeroRows(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM posts").WithArgs("p").WillReturnResult(sqlmock.NewResult(0, 0))

	err := (&PostStore{db: db}).Delete(context.Background(), "p")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
