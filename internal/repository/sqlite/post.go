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

var _ repository.PostRepository = (*PostStore)(nil)

// PostStore is the post store backed by the posts table.
//
// Every method is a single statement; concurrent writers to the same row
// race and the last write wins.
type PostStore struct {
	db *sqlx.DB
}

const postColumns = `id, title, body, owner_id, created_at, updated_at`

// Create inserts a post, filling in ID, CreatedAt and UpdatedAt (equal at creation).
func (s *PostStore) Create(ctx context.Context, post *model.Post) error {
	now := time.Now().UTC()
	post.ID = xid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Body,
		post.OwnerID,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return apperror.Store("sqlite: inserting post", err)
	}
	return nil
}

// GetByID returns apperror.ErrNotFound when no post has that id.
func (s *PostStore) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := s.db.GetContext(ctx, &p,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, apperror.Store("sqlite: getting post", err)
	}
	return &p, nil
}

// List returns one window of the posts, newest first.
//
// The id tiebreak keeps the ordering total, so consecutive pages never
// overlap or skip a post that shares a timestamp with its neighbour.
func (s *PostStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	posts := make([]model.Post, 0, limit)
	err := s.db.SelectContext(ctx, &posts,
		`SELECT `+postColumns+` FROM posts
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, apperror.Store("sqlite: listing posts", err)
	}
	return posts, nil
}

// Count returns the total number of posts.
func (s *PostStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts`); err != nil {
		return 0, apperror.Store("sqlite: counting posts", err)
	}
	return n, nil
}

// Search returns posts whose title or body contains term.
//
// LIKE is case-insensitive for ASCII letters. Callers strip everything but
// [a-zA-Z0-9 ] first, so the term carries no LIKE wildcards of its own.
func (s *PostStore) Search(ctx context.Context, term string) ([]model.Post, error) {
	posts := []model.Post{}
	err := s.db.SelectContext(ctx, &posts,
		`SELECT `+postColumns+` FROM posts
		 WHERE title LIKE '%' || ? || '%' OR body LIKE '%' || ? || '%'`,
		term, term,
	)
	if err != nil {
		return nil, apperror.Store("sqlite: searching posts", err)
	}
	return posts, nil
}

// ListByOwner returns the posts of one user in insertion order.
func (s *PostStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Post, error) {
	posts := []model.Post{}
	err := s.db.SelectContext(ctx, &posts,
		`SELECT `+postColumns+` FROM posts WHERE owner_id = ? ORDER BY rowid`,
		ownerID,
	)
	if err != nil {
		return nil, apperror.Store("sqlite: listing posts by owner", err)
	}
	return posts, nil
}

// Update overwrites title and body and refreshes UpdatedAt.
func (s *PostStore) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, body = ?, updated_at = ? WHERE id = ?`,
		post.Title,
		post.Body,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return apperror.Store("sqlite: updating post", err)
	}
	return checkAffected(result, "post", post.ID)
}

// Delete removes a post.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return apperror.Store("sqlite: deleting post", err)
	}
	return checkAffected(result, "post", id)
}

// checkAffected turns "zero rows changed" into NotFound.
func checkAffected(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apperror.Store("sqlite: checking rows affected", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
