// Package middleware holds the blog's own HTTP middleware. chi's stock
// middleware (RequestID, RealIP, Recoverer) is mounted next to these in
// internal/server.
//
// WHAT IS MIDDLEWARE?
// A middleware is a function that takes the next handler and returns a new
// one wrapping it. The wrapper can act before the call, after it, or skip the
// call entirely:
//
//	func Example(next http.Handler) http.Handler {
//		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//			// before: inspect or rewrite r
//			next.ServeHTTP(w, r)
//			// after: look at what was written
//		})
//	}
//
// Stacking them builds an onion. The request passes through the outer layers
// first and the response comes back out through them last:
//
//	RequestID -> Logger -> MethodOverride -> router -> handler
//
// Order matters. MethodOverride has to sit outside the router, because chi
// picks the route from r.Method and a rewrite after that point is too late.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// responseWriter records the status code and body size written through it.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logger logs one line per request. Server errors are logged at error level,
// client errors at warn.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "request completed",
				slog.String("requestID", chimiddleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
			)
		})
	}
}
