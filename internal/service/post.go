package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
)

// DefaultPageSize is the number of posts on one index page.
const DefaultPageSize = 10

// searchStrip matches every character a search term may not contain.
var searchStrip = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// PostService handles listing, searching and editing posts.
//
// When enforceOwnership is false (the default) any caller may edit or delete
// any post by id. When true, Update, Delete and GetForEdit require the caller
// to own the post.
type PostService struct {
	repo             repository.PostRepository
	pageSize         int
	enforceOwnership bool
	logger           *slog.Logger
}

// PostOption configures a PostService.
type PostOption func(*PostService)

// WithPageSize overrides DefaultPageSize. Non-positive sizes are ignored.
func WithPageSize(n int) PostOption {
	return func(s *PostService) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithOwnershipEnforced turns the ownership check on or off.
func WithOwnershipEnforced(on bool) PostOption {
	return func(s *PostService) {
		s.enforceOwnership = on
	}
}

// NewPostService creates a PostService.
func NewPostService(repo repository.PostRepository, logger *slog.Logger, opts ...PostOption) *PostService {
	s := &PostService{
		repo:     repo,
		pageSize: DefaultPageSize,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageSize returns the number of posts per page in effect.
func (s *PostService) PageSize() int {
	return s.pageSize
}

// EnforcesOwnership reports whether edits are restricted to the post owner.
func (s *PostService) EnforcesOwnership() bool {
	return s.enforceOwnership
}

// Page is one page of the newest-first post listing.
type Page struct {
	Items       []model.Post
	Page        int
	NextPage    int // zero when there is no next page
	HasNextPage bool
}

// ParsePage turns the raw "page" query value into a page number.
// Missing, non-numeric and non-positive values all mean page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ListPage returns page p (1-indexed) of all posts, newest first.
// Page p holds items [(p-1)*size, p*size) and HasNextPage is true iff the
// total count exceeds p*size.
func (s *PostService) ListPage(ctx context.Context, p int) (*Page, error) {
	if p < 1 {
		p = 1
	}

	// A page whose offset does not fit in an int lies past any real post
	// count. Answer it without querying instead of letting the offset wrap.
	if p-1 > math.MaxInt/s.pageSize {
		return &Page{Items: []model.Post{}, Page: p}, nil
	}

	items, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  s.pageSize,
		Offset: (p - 1) * s.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}

	page := &Page{Items: items, Page: p}
	// (p-1)*size fits, so total > p*size iff total-size > (p-1)*size.
	if total-s.pageSize > (p-1)*s.pageSize && p < math.MaxInt {
		page.HasNextPage = true
		page.NextPage = p + 1
	}
	return page, nil
}

// GetByID retrieves a post. Returns apperror.ErrNotFound if it doesn't exist.
func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.NotFound("post", id)
	}
	return s.repo.GetByID(ctx, id)
}

// SanitizeSearchTerm drops every character that is not an ASCII letter,
// digit or space.
func SanitizeSearchTerm(term string) string {
	return searchStrip.ReplaceAllString(term, "")
}

// Search returns the posts whose title or body contains the sanitized term,
// ignoring case. A term that sanitizes to "" matches every post.
func (s *PostService) Search(ctx context.Context, term string) ([]model.Post, error) {
	clean := SanitizeSearchTerm(term)

	posts, err := s.repo.Search(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("searching posts for %q: %w", clean, err)
	}

	s.logger.Debug("post search",
		slog.String("term", clean),
		slog.Int("results", len(posts)),
	)
	return posts, nil
}

// ListByOwner returns every post created by userID.
func (s *PostService) ListByOwner(ctx context.Context, userID string) ([]model.Post, error) {
	posts, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing posts of %s: %w", userID, err)
	}
	return posts, nil
}

// validatePost checks the fields every stored post must have.
func validatePost(title, body string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return apperror.ValidationFailed("title", "Title and body are required.")
	}
	return nil
}

// Create stores a new post owned by ownerID.
func (s *PostService) Create(ctx context.Context, ownerID, title, body string) (*model.Post, error) {
	if err := validatePost(title, body); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, apperror.ValidationFailed("ownerId", "post owner is required")
	}

	post := &model.Post{Title: title, Body: body, OwnerID: ownerID}
	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("ownerID", post.OwnerID),
	)
	return post, nil
}

// GetForEdit loads a post for the edit form, applying the ownership policy.
func (s *PostService) GetForEdit(ctx context.Context, actor model.Identity, id string) (*model.Post, error) {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update overwrites title and body of post id and refreshes UpdatedAt.
func (s *PostService) Update(ctx context.Context, actor model.Identity, id, title, body string) (*model.Post, error) {
	if err := validatePost(title, body); err != nil {
		return nil, err
	}

	post, err := s.GetForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	post.Title = title
	post.Body = body
	if err := s.repo.Update(ctx, post); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update post",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating post: %w", err)
	}

	s.logger.Info("post updated", slog.String("id", post.ID), slog.String("by", actor.UserID))
	return post, nil
}

// Delete removes post id.
func (s *PostService) Delete(ctx context.Context, actor model.Identity, id string) error {
	if s.enforceOwnership {
		if _, err := s.GetForEdit(ctx, actor, id); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("deleting post: %w", err)
	}

	s.logger.Info("post deleted", slog.String("id", id), slog.String("by", actor.UserID))
	return nil
}

// authorize applies the ownership policy to actor and post.
func (s *PostService) authorize(actor model.Identity, post *model.Post) error {
	if !s.enforceOwnership {
		return nil
	}
	if !actor.LoggedIn() || actor.UserID != post.OwnerID {
		return apperror.Forbidden("only the author may change this post")
	}
	return nil
}
