package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
)

func seedPosts(t *testing.T, svc *PostService, owner string, n int) []*model.Post {
	t.Helper()
	out := make([]*model.Post, 0, n)
	for i := 0; i < n; i++ {
		p, err := svc.Create(context.Background(), owner, fmt.Sprintf("Post %d", i), fmt.Sprintf("body %d", i))
		if err != nil {
			t.Fatalf("seed Create(%d) error = %v", i, err)
		}
		out = append(out, p)
	}
	return out
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"1", 1},
		{"3", 3},
		{" 2 ", 2},
		{"0", 1},
		{"-4", 1},
		{"abc", 1},
		{"2.5", 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			if got := ParsePage(tt.raw); got != tt.want {
				t.Errorf("ParsePage(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

// =========================================================================
// Listing
// =========================================================================

func TestListPage_CoversEveryPostOnce(t *testing.T) {
	for _, total := range []int{0, 1, 9, 10, 11, 25, 30} {
		t.Run(fmt.Sprintf("%d posts", total), func(t *testing.T) {
			svc := NewPostService(newFakePostRepo(), discardLogger())
			seedPosts(t, svc, "owner", total)

			seen := make(map[string]int)
			p := 1
			for {
				page, err := svc.ListPage(context.Background(), p)
				if err != nil {
					t.Fatalf("ListPage(%d) error = %v", p, err)
				}
				if len(page.Items) > DefaultPageSize {
					t.Fatalf("page %d has %d items", p, len(page.Items))
				}
				for _, post := range page.Items {
					seen[post.ID]++
				}
				wantNext := total > p*DefaultPageSize
				if page.HasNextPage != wantNext {
					t.Fatalf("page %d HasNextPage = %v, want %v", p, page.HasNextPage, wantNext)
				}
				if !page.HasNextPage {
					if page.NextPage != 0 {
						t.Errorf("last page NextPage = %d, want 0", page.NextPage)
					}
					break
				}
				if page.NextPage != p+1 {
					t.Fatalf("NextPage = %d, want %d", page.NextPage, p+1)
				}
				p = page.NextPage
			}

			if len(seen) != total {
				t.Errorf("saw %d distinct posts, want %d", len(seen), total)
			}
			for id, n := range seen {
				if n != 1 {
					t.Errorf("post %s appeared %d times", id, n)
				}
			}
		})
	}
}

func TestListPage_NewestFirst(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())
	posts := seedPosts(t, svc, "owner", 3)

	page, err := svc.ListPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListPage() error = %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("len = %d, want 3", len(page.Items))
	}
	if page.Items[0].ID != posts[2].ID {
		t.Errorf("first item = %s, want newest %s", page.Items[0].ID, posts[2].ID)
	}
}

func TestListPage_PastTheEndIsEmpty(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())
	seedPosts(t, svc, "owner", 5)

	page, err := svc.ListPage(context.Background(), 4)
	if err != nil {
		t.Fatalf("ListPage() error = %v", err)
	}
	if len(page.Items) != 0 || page.HasNextPage {
		t.Errorf("page 4 = %+v, want empty with no next page", page)
	}
}

func TestListPage_HugePageIsEmpty(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())
	seedPosts(t, svc, "owner", 3)

	for _, p := range []int{math.MaxInt, math.MaxInt/DefaultPageSize + 2, math.MaxInt/DefaultPageSize + 1} {
		page, err := svc.ListPage(context.Background(), p)
		if err != nil {
			t.Fatalf("ListPage(%d) error = %v", p, err)
		}
		if len(page.Items) != 0 {
			t.Errorf("ListPage(%d) returned %d posts, want none", p, len(page.Items))
		}
		if page.HasNextPage || page.NextPage != 0 {
			t.Errorf("ListPage(%d) next = %v/%d, want no next page", p, page.HasNextPage, page.NextPage)
		}
		if page.Page != p {
			t.Errorf("ListPage(%d).Page = %d", p, page.Page)
		}
	}
}

func TestPageSize(t *testing.T) {
	if got := NewPostService(newFakePostRepo(), discardLogger(), WithPageSize(0)).PageSize(); got != DefaultPageSize {
		t.Errorf("PageSize() = %d, want %d", got, DefaultPageSize)
	}
	if got := NewPostService(newFakePostRepo(), discardLogger(), WithPageSize(3)).PageSize(); got != 3 {
		t.Errorf("PageSize() = %d, want 3", got)
	}
}

func TestListPage_CustomPageSize(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger(), WithPageSize(2), WithPageSize(0))
	seedPosts(t, svc, "owner", 3)

	page, err := svc.ListPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListPage() error = %v", err)
	}
	if len(page.Items) != 2 || !page.HasNextPage {
		t.Errorf("page = %d items next=%v, want 2 items with next", len(page.Items), page.HasNextPage)
	}
}

func TestListPage_StoreFailure(t *testing.T) {
	repo := newFakePostRepo()
	repo.countErr = apperror.Store("count", errors.New("boom"))
	svc := NewPostService(repo, discardLogger())

	if _, err := svc.ListPage(context.Background(), 1); !errors.Is(err, apperror.ErrStore) {
		t.Errorf("ListPage() error = %v, want ErrStore", err)
	}
}

// =========================================================================
// Search
// =========================================================================

func TestSanitizeSearchTerm(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello", "Hello"},
		{"Hello!!!", "Hello"},
		{"a.b*c", "abc"},
		{"two words", "two words"},
		{"(.*)", ""},
		{"café", "caf"},
	}
	for _, tt := range tests {
		if got := SanitizeSearchTerm(tt.in); got != tt.want {
			t.Errorf("SanitizeSearchTerm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSearch_PunctuationIsIgnored(t *testing.T) {
	repo := newFakePostRepo()
	svc := NewPostService(repo, discardLogger())
	ctx := context.Background()
	svc.Create(ctx, "o", "Hello world", "first")
	svc.Create(ctx, "o", "Other", "hello again")
	svc.Create(ctx, "o", "Unrelated", "nothing here")

	plain, err := svc.Search(ctx, "Hello")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	noisy, err := svc.Search(ctx, "Hello!!!")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(plain) != 2 {
		t.Errorf("Search(Hello) = %d results, want 2", len(plain))
	}
	if len(noisy) != len(plain) {
		t.Errorf("Search(Hello!!!) = %d results, want %d", len(noisy), len(plain))
	}
	if repo.lastTerm != "Hello" {
		t.Errorf("repository saw term %q, want sanitized %q", repo.lastTerm, "Hello")
	}
}

func TestSearch_EmptyTermMatchesAll(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())
	seedPosts(t, svc, "owner", 4)

	for _, term := range []string{"", "!!!"} {
		got, err := svc.Search(context.Background(), term)
		if err != nil {
			t.Fatalf("Search(%q) error = %v", term, err)
		}
		if len(got) != 4 {
			t.Errorf("Search(%q) = %d results, want 4", term, len(got))
		}
	}
}

// =========================================================================
// Create / Update / Delete
// =========================================================================

func TestCreate_ThenGet(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())

	created, err := svc.Create(context.Background(), "alice", "Title", "Body")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Title" || got.Body != "Body" || got.OwnerID != "alice" {
		t.Errorf("GetByID() = %+v", got)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name, owner, title, body string
	}{
		{"missing title", "alice", "", "Body"},
		{"missing body", "alice", "Title", ""},
		{"whitespace title", "alice", "   ", "Body"},
		{"missing owner", "", "Title", "Body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakePostRepo()
			svc := NewPostService(repo, discardLogger())

			_, err := svc.Create(context.Background(), tt.owner, tt.title, tt.body)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
			if len(repo.posts) != 0 {
				t.Error("nothing should be stored on a validation failure")
			}
		})
	}
}

func TestCreate_MessageForMissingFields(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())

	_, err := svc.Create(context.Background(), "alice", "", "")
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an AppError", err)
	}
	if appErr.Message != "Title and body are required." {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestGetByID_Missing(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())

	for _, id := range []string{"", "nope"} {
		if _, err := svc.GetByID(context.Background(), id); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("GetByID(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestUpdate_ChangesFieldsAndTimestamp(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())
	created, _ := svc.Create(context.Background(), "alice", "Old", "old body")

	updated, err := svc.Update(context.Background(), model.Identity{}, created.ID, "New", "new body")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want after %v", updated.UpdatedAt, created.UpdatedAt)
	}

	got, _ := svc.GetByID(context.Background(), created.ID)
	if got.Title != "New" || got.Body != "new body" {
		t.Errorf("stored post = %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt must not change on update")
	}
}

func TestUpdate_Missing(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())

	_, err := svc.Update(context.Background(), model.Identity{}, "nope", "T", "B")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete_ThenGetIsNotFound(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())
	created, _ := svc.Create(context.Background(), "alice", "T", "B")

	if err := svc.Delete(context.Background(), model.Identity{}, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(context.Background(), model.Identity{}, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestListByOwner(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())
	seedPosts(t, svc, "alice", 2)
	seedPosts(t, svc, "bob", 1)

	got, err := svc.ListByOwner(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

// =========================================================================
// Ownership
// =========================================================================

func TestOwnership_OffByDefault(t *testing.T) {
	svc := NewPostService(newFakePostRepo(), discardLogger())
	created, _ := svc.Create(context.Background(), "alice", "T", "B")
	mallory := model.Identity{UserID: "mallory", Username: "mallory"}

	if svc.EnforcesOwnership() {
		t.Fatal("ownership should be off by default")
	}
	if _, err := svc.Update(context.Background(), mallory, created.ID, "T2", "B2"); err != nil {
		t.Errorf("Update() by non-owner error = %v, want nil", err)
	}
	if err := svc.Delete(context.Background(), model.Identity{}, created.ID); err != nil {
		t.Errorf("Delete() by anonymous error = %v, want nil", err)
	}
}

func TestOwnership_Enforced(t *testing.T) {
	alice := model.Identity{UserID: "alice", Username: "alice"}
	mallory := model.Identity{UserID: "mallory", Username: "mallory"}

	tests := []struct {
		name    string
		actor   model.Identity
		wantErr error
	}{
		{"owner", alice, nil},
		{"other user", mallory, apperror.ErrForbidden},
		{"anonymous", model.Identity{}, apperror.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPostService(newFakePostRepo(), discardLogger(), WithOwnershipEnforced(true))
			created, _ := svc.Create(context.Background(), "alice", "T", "B")

			_, err := svc.GetForEdit(context.Background(), tt.actor, created.ID)
			if !errors.Is(err, tt.wantErr) && !(tt.wantErr == nil && err == nil) {
				t.Errorf("GetForEdit() error = %v, want %v", err, tt.wantErr)
			}

			_, err = svc.Update(context.Background(), tt.actor, created.ID, "T2", "B2")
			if tt.wantErr == nil && err != nil {
				t.Errorf("Update() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Update() error = %v, want %v", err, tt.wantErr)
			}

			err = svc.Delete(context.Background(), tt.actor, created.ID)
			if tt.wantErr == nil && err != nil {
				t.Errorf("Delete() error = %v, want nil", err)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Delete() error = %v, want %v", err, tt.wantErr)
				}
				if _, err := svc.GetByID(context.Background(), created.ID); err != nil {
					t.Error("a forbidden delete must leave the post in place")
				}
			}
		})
	}
}
