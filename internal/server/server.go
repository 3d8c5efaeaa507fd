// Package server is the composition root: it opens the database, builds the
// stores, services and handlers, mounts them on a chi router and runs the
// HTTP server until it is told to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/config"
	"github.com/sakif/blog/internal/handler"
	"github.com/sakif/blog/internal/middleware"
	sqliteRepo "github.com/sakif/blog/internal/repository/sqlite"
	"github.com/sakif/blog/internal/service"
	"github.com/sakif/blog/internal/session"
	"github.com/sakif/blog/web"
)

// Server owns the router, the database and the session manager.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions *session.Manager
}

// New wires every dependency from cfg. The returned Server owns the database
// and closes it when Start returns (or on Close).
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// templates returns TEMPLATE_DIR when set, the embedded templates otherwise.
func (s *Server) templates() fs.FS {
	if s.config.TemplateDir != "" {
		return os.DirFS(s.config.TemplateDir)
	}
	return web.Templates()
}

// setupRoutes builds the dependency chain and mounts the routes.
//
//	GET    /                  index, ?page=N
//	GET    /about             static page
//	GET    /post/{id}         single post
//	POST   /search            search results
//	GET    /login, /register  forms
//	POST   /login, /register  credentials → session + redirect /profile
//	GET    /logout            destroy session, redirect /
//	GET    /profile           own posts (session required)
//	GET    /add-post          form (session required when ownership is enforced)
//	POST   /add-post          create, redirect /profile
//	GET    /edit-post/{id}    form
//	PUT    /edit-post/{id}    update, redirect /profile
//	DELETE /delete-post/{id}  delete, redirect /profile
//	GET    /static/*          embedded assets
//
// HTML forms reach PUT and DELETE through MethodOverride, which has to run
// before chi matches the route.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating session signer: %w", err)
	}

	s.sessions = session.NewManager(s.db.Sessions(), tokens, session.Config{
		CookieName: s.config.SessionCookieName,
		TTL:        s.config.SessionTTL,
		Secure:     s.config.SessionSecureCookie,
	}, s.logger)

	passwords := auth.NewPasswordService(s.config.BcryptCost)
	authService := service.NewAuthService(s.db.Users(), s.sessions, passwords, s.logger)
	postService := service.NewPostService(s.db.Posts(), s.logger,
		service.WithPageSize(s.config.PageSize),
		service.WithOwnershipEnforced(s.config.EnforceOwnership),
	)

	renderer, err := handler.NewRenderer(s.templates(), handler.NewMarkdown(s.config.RenderMarkdown), s.logger)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	pages := handler.NewPageHandler(postService, renderer, s.logger)
	accounts := handler.NewAuthHandler(authService, postService, s.sessions, renderer, s.logger)
	posts := handler.NewPostHandler(postService, renderer, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.MethodOverride)

	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions.LoadIdentity)

		r.Get("/", pages.HandleIndex)
		r.Get("/about", pages.HandleAbout)
		r.Get("/post/{id}", pages.HandlePost)
		r.Post("/search", pages.HandleSearch)

		r.Get("/login", accounts.HandleLoginForm)
		r.Post("/login", accounts.HandleLogin)
		r.Get("/register", accounts.HandleRegisterForm)
		r.Post("/register", accounts.HandleRegister)
		r.Get("/logout", accounts.HandleLogout)
		r.With(auth.RequireAuth("/login")).Get("/profile", accounts.HandleProfile)

		addForm := http.Handler(http.HandlerFunc(posts.HandleAddForm))
		if postService.EnforcesOwnership() {
			addForm = auth.RequireAuth("/login")(addForm)
		}
		r.Method(http.MethodGet, "/add-post", addForm)
		r.Post("/add-post", posts.HandleAdd)
		r.Get("/edit-post/{id}", posts.HandleEditForm)
		r.Put("/edit-post/{id}", posts.HandleUpdate)
		r.Delete("/delete-post/{id}", posts.HandleDelete)
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until SIGINT/SIGTERM or ctx is cancelled, then drains
// in-flight requests for up to 30 seconds and closes the database. Expired
// sessions are swept in the background while the server runs.
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go s.sessions.RunCleanup(ctx, s.config.SessionCleanupInterval)

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("enforceOwnership", s.config.EnforceOwnership),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
