// Package repository declares the storage contracts the services depend on.
// The sqlite subpackage implements all of them.
package repository

import (
	"context"
	"time"

	"github.com/sakif/blog/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository is the credential store. Create must report a duplicate
// username as apperror.ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// PostRepository is the post store.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// List returns posts newest first.
	List(ctx context.Context, opts ListOptions) ([]model.Post, error)
	Count(ctx context.Context) (int, error)
	// Search matches term case-insensitively against title or body.
	// The empty term matches every post.
	Search(ctx context.Context, term string) ([]model.Post, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
}

// SessionRepository persists server-side sessions.
type SessionRepository interface {
	Save(ctx context.Context, sess *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
