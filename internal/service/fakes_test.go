package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/repository"
	"github.com/sakif/blog/internal/session"
)

// Hand-written in-memory fakes for the repository interfaces. Each one has
// error fields a test can set to simulate a database failure.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	mu         sync.Mutex
	byID       map[string]*model.User
	byName     map[string]*model.User
	nextID     int
	createErr  error
	getByIDErr error
	lookupErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:   make(map[string]*model.User),
		byName: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, taken := f.byName[user.Username]; taken {
		return apperror.DuplicateUsername(user.Username)
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.byID[user.ID] = &stored
	f.byName[user.Username] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	copied := *u
	return &copied, nil
}

// fakeSessions records the users it opened sessions for.
type fakeSessions struct {
	started  []string
	startErr error
}

func (f *fakeSessions) Start(_ context.Context, user *model.User) (*session.Ticket, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started = append(f.started, user.ID)
	return &session.Ticket{
		Session: &model.Session{ID: fmt.Sprintf("sess-%d", len(f.started)), UserID: user.ID, Username: user.Username},
		Token:   "signed-token",
	}, nil
}

// fakePostRepo keeps posts in insertion order.
type fakePostRepo struct {
	mu        sync.Mutex
	posts     []*model.Post
	nextID    int
	listErr   error
	countErr  error
	searchErr error
	createErr error
	updateErr error
	lastTerm  string
	clock     time.Time
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (f *fakePostRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakePostRepo) find(id string) int {
	for i, p := range f.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakePostRepo) Create(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	post.ID = fmt.Sprintf("post-%d", f.nextID)
	post.CreatedAt = f.tick()
	post.UpdatedAt = post.CreatedAt
	stored := *post
	f.posts = append(f.posts, &stored)
	return nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, apperror.NotFound("post", id)
	}
	copied := *f.posts[i]
	return &copied, nil
}

func (f *fakePostRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	newest := make([]model.Post, 0, len(f.posts))
	for i := len(f.posts) - 1; i >= 0; i-- {
		newest = append(newest, *f.posts[i])
	}
	if opts.Offset >= len(newest) {
		return []model.Post{}, nil
	}
	newest = newest[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(newest) {
		newest = newest[:opts.Limit]
	}
	return newest, nil
}

func (f *fakePostRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.posts), nil
}

func (f *fakePostRepo) Search(_ context.Context, term string) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTerm = term
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	needle := strings.ToLower(term)
	out := []model.Post{}
	for _, p := range f.posts {
		if strings.Contains(strings.ToLower(p.Title), needle) || strings.Contains(strings.ToLower(p.Body), needle) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePostRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Post{}
	for _, p := range f.posts {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePostRepo) Update(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	i := f.find(post.ID)
	if i < 0 {
		return apperror.NotFound("post", post.ID)
	}
	post.UpdatedAt = f.tick()
	f.posts[i].Title = post.Title
	f.posts[i].Body = post.Body
	f.posts[i].UpdatedAt = post.UpdatedAt
	return nil
}

func (f *fakePostRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return apperror.NotFound("post", id)
	}
	f.posts = append(f.posts[:i], f.posts[i+1:]...)
	return nil
}
