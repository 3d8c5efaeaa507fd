package auth

import (
	"context"
	"net/http"

	"github.com/sakif/blog/internal/model"
)

// contextKey is unexported so no other package can read or overwrite the
// identity stored by this one.
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id. The session middleware
// calls it once per request.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller for this request. Anonymous requests
// get the zero Identity and false.
//
//	id, ok := auth.IdentityFromContext(r.Context())
//	if !ok {
//	    // anonymous visitor
//	}
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, _ := ctx.Value(identityKey).(model.Identity)
	return id, id.LoggedIn()
}

// RequireAuth redirects anonymous requests to loginPath instead of running
// the protected handler. It must run after the middleware that resolves the
// session.
func RequireAuth(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
