package middleware

import (
	"errors"
	"net/http"
	"strings"
)

// MethodOverrideHeader lets API clients tunnel PUT and DELETE through POST.
const MethodOverrideHeader = "X-HTTP-Method-Override"

// MethodOverrideField is the form field HTML forms use for the same purpose.
const MethodOverrideField = "_method"

// MaxFormBytes caps a request body read to find the "_method" field. The
// handlers apply the same cap when they decode bodies.
const MaxFormBytes = 1 << 20

// MethodOverride rewrites a POST into PUT, PATCH or DELETE when the request
// carries an override in the header or the "_method" field. The field is read
// from the query string first and only then from a urlencoded body, which is
// limited to MaxFormBytes. Any other method is left alone. It must run before
// the router matches the route.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			m, ok, err := overrideMethod(w, r)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, "malformed request body", http.StatusBadRequest)
				return
			}
			if ok {
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

func overrideMethod(w http.ResponseWriter, r *http.Request) (string, bool, error) {
	raw := r.Header.Get(MethodOverrideHeader)
	if raw == "" {
		raw = r.URL.Query().Get(MethodOverrideField)
	}
	if raw == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)
		// ParseForm keeps the fields readable later through r.PostForm.
		if err := r.ParseForm(); err != nil {
			return "", false, err
		}
		raw = r.PostForm.Get(MethodOverrideField)
	}

	switch m := strings.ToUpper(strings.TrimSpace(raw)); m {
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return m, true, nil
	default:
		return "", false, nil
	}
}
