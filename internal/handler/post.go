package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/service"
)

// PostHandler serves the create, edit and delete forms.
//
// Whether a caller may edit someone else's post is decided by PostService;
// the handler only passes the identity along.
type PostHandler struct {
	posts  *service.PostService
	render *Renderer
	logger *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(posts *service.PostService, render *Renderer, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, render: render, logger: logger}
}

// HandleAddForm renders the empty post form.
//
// HTTP: GET /add-post
func (h *PostHandler) HandleAddForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "add-post", page(r, "Add Post", "/add-post", nil))
}

// HandleAdd stores a new post owned by the caller.
//
// HTTP: POST /add-post
// REQUEST BODY: {"title": "...", "body": "..."} (JSON or form)
//
// Anonymous callers are sent to /login; a missing title or body is a 400.
func (h *PostHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		redirect(w, r, "/login")
		return
	}

	var in postInput
	if err := decodeInput(w, r, &in); err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}

	if _, err := h.posts.Create(r.Context(), actor.UserID, in.Title, in.Body); err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}

	redirect(w, r, "/profile")
}

// HandleEditForm renders the edit form filled with the stored post.
//
// HTTP: GET /edit-post/{id}
func (h *PostHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())

	post, err := h.posts.GetForEdit(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}

	h.render.Render(w, http.StatusOK, "edit-post", page(r, "Edit Post", "/edit-post/"+post.ID, post))
}

// HandleUpdate overwrites title and body of a post.
//
// HTTP: PUT /edit-post/{id}  (or POST with _method=PUT)
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())

	var in postInput
	if err := decodeInput(w, r, &in); err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}

	if _, err := h.posts.Update(r.Context(), actor, chi.URLParam(r, "id"), in.Title, in.Body); err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}

	redirect(w, r, "/profile")
}

// HandleDelete removes a post.
//
// HTTP: DELETE /delete-post/{id}  (or POST with _method=DELETE)
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())

	if err := h.posts.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}

	redirect(w, r, "/profile")
}
