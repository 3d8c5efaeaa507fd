// Package handler turns HTTP requests into service calls and service results
// into rendered pages, redirects or small error bodies.
//
// Handlers never touch the database. They read the caller from the request
// context (set by the session middleware), decode the body through
// decodeInput and hand plain strings to the services.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
	"github.com/sakif/blog/internal/service"
)

// SiteTitle is the title of the index page.
const SiteTitle = "Blog"

// PageHandler serves the public read-only pages.
type PageHandler struct {
	posts  *service.PostService
	render *Renderer
	logger *slog.Logger
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(posts *service.PostService, render *Renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{posts: posts, render: render, logger: logger}
}

// page fills the fields every template needs from the request.
func page(r *http.Request, title, route string, data any) PageData {
	_, loggedIn := auth.IdentityFromContext(r.Context())
	return PageData{
		Title:        title,
		CurrentRoute: route,
		LoggedIn:     loggedIn,
		Data:         data,
	}
}

// HandleIndex renders one page of posts, newest first.
//
// HTTP: GET /?page=N
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	p := service.ParsePage(r.URL.Query().Get("page"))

	result, err := h.posts.ListPage(r.Context(), p)
	if err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}

	h.render.Render(w, http.StatusOK, "index", page(r, SiteTitle, "/", result))
}

// HandleAbout renders the static about page.
//
// HTTP: GET /about
func (h *PageHandler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "about", page(r, "About", "/about", nil))
}

// HandlePost renders a single post.
//
// HTTP: GET /post/{id}
func (h *PageHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		writeTextError(w, r, h.logger, err)
		return
	}

	h.render.Render(w, http.StatusOK, "post", page(r, post.Title, "/post/"+post.ID, post))
}

// SearchResults is the data of the search template.
type SearchResults struct {
	Term  string
	Posts []model.Post
}

// HandleSearch renders every post matching the submitted term.
//
// HTTP: POST /search
func (h *PageHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var in searchInput
	if err := decodeInput(w, r, &in); err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}

	posts, err := h.posts.Search(r.Context(), in.SearchTerm)
	if err != nil {
		writeTextError(w, r, h.logger, err)
		return
	}

	h.render.Render(w, http.StatusOK, "search", page(r, "Search", "/", SearchResults{
		Term:  service.SanitizeSearchTerm(in.SearchTerm),
		Posts: posts,
	}))
}
