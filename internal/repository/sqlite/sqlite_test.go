package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/blog/internal/model"
)

// newTestDB opens a fresh in-memory database with the schema applied.
// Each test gets its own database; t.Cleanup closes it.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "$2a$04$not-a-real-hash"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	// Running the migrations again on an up-to-date schema is a no-op.
	if err := Migrate(context.Background(), db.conn.DB); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
