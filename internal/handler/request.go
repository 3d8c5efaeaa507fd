package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/middleware"
)

// maxBodyBytes caps every request body the handlers read. MethodOverride
// reads form bodies with the same cap before the handlers run.
const maxBodyBytes = middleware.MaxFormBytes

// formInput is implemented by the request structs below. Each one copies the
// form fields it knows about and ignores the rest.
type formInput interface {
	fromForm(url.Values)
}

// credentialsInput is the body of POST /login and POST /register.
type credentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (in *credentialsInput) fromForm(v url.Values) {
	in.Username = v.Get("username")
	in.Password = v.Get("password")
}

// postInput is the body of POST /add-post and PUT /edit-post/{id}.
type postInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (in *postInput) fromForm(v url.Values) {
	in.Title = v.Get("title")
	in.Body = v.Get("body")
}

// searchInput is the body of POST /search.
type searchInput struct {
	SearchTerm string `json:"searchTerm"`
}

func (in *searchInput) fromForm(v url.Values) {
	in.SearchTerm = v.Get("searchTerm")
}

// decodeInput fills dst from a JSON, urlencoded or multipart body. Every field
// is a string: a JSON body with a number or object where a string belongs is
// rejected rather than coerced.
func decodeInput(w http.ResponseWriter, r *http.Request, dst formInput) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return malformed(err)
		}
		return nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return malformed(err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return malformed(err)
		}
	}
	dst.fromForm(r.PostForm)
	return nil
}

func malformed(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ValidationFailed("body", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	}
	return apperror.ValidationFailed("body", "malformed request body")
}
