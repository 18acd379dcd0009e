// Package server is the composition root: it builds every component from
// the configuration, wires them to routes and owns their lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sudeepta/portfolio/internal/auth"
	"github.com/sudeepta/portfolio/internal/config"
	"github.com/sudeepta/portfolio/internal/github"
	"github.com/sudeepta/portfolio/internal/handler"
	"github.com/sudeepta/portfolio/internal/live"
	"github.com/sudeepta/portfolio/internal/mailer"
	"github.com/sudeepta/portfolio/internal/metrics"
	"github.com/sudeepta/portfolio/internal/middleware"
	sqliteRepo "github.com/sudeepta/portfolio/internal/repository/sqlite"
	"github.com/sudeepta/portfolio/internal/service"
	"github.com/sudeepta/portfolio/internal/stats"
	"github.com/sudeepta/portfolio/internal/tenure"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// Option replaces one of the server's outbound dependencies. Tests use
// these to avoid real network calls.
type Option func(*options)

type options struct {
	fetcher   stats.Fetcher
	transport mailer.Transport
	clock     func() time.Time
}

// WithFetcher replaces the GitHub API client.
func WithFetcher(f stats.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithTransport replaces the SMTP transport.
func WithTransport(t mailer.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithClock replaces time.Now for tenure and snapshot timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// Server owns the router and every long-lived resource behind it.
type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	router  *chi.Mux
	db      *sqliteRepo.DB
	poller  *stats.Poller
	hub     *live.Hub
	metrics *metrics.Collector
}

// New builds a Server. Nothing runs until Run or Start is called, but the
// database is opened (and migrated) here, so call Close if Run is never
// reached.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		router:  chi.NewRouter(),
		db:      db,
		metrics: metrics.NewCollector(),
	}

	if o.fetcher == nil {
		o.fetcher = github.NewClient(github.Config{
			BaseURL: cfg.GitHub.APIURL,
			Token:   cfg.GitHub.Token,
		}, logger.With(slog.String("component", "github")))
	}
	if o.transport == nil {
		o.transport = mailer.NewSMTPTransport(mailer.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			Timeout:  cfg.Mail.Timeout,
		}, logger.With(slog.String("component", "smtp")))
	}

	s.poller = stats.NewPoller(o.fetcher, stats.Config{
		Username: cfg.GitHub.Username,
		Interval: cfg.GitHub.Interval,
		Clock:    o.clock,
		Recorder: s.metrics,
	}, logger.With(slog.String("component", "stats")))

	s.hub = live.NewHub(s.poller.Snapshot, cfg.CORSOrigins, s.metrics, logger.With(slog.String("component", "live")))
	s.poller.OnUpdate(s.hub.Broadcast)

	if err := s.setupRoutes(o); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Poller returns the stats poller.
func (s *Server) Poller() *stats.Poller {
	return s.poller
}

// setupRoutes registers middleware and routes:
//
//	GET  /health
//	GET  /metrics
//	POST /api/contact
//	GET  /api/stats
//	GET  /api/stats/live                (websocket)
//	GET  /api/experience
//	POST /api/admin/login               (only when admin is configured)
//	POST /api/admin/logout
//	GET  /api/admin/deliveries          (session required)
//	GET  /api/admin/deliveries/{id}     (session required)
//	POST /api/admin/stats/refresh       (session required)
//	GET  /*                             (static site, when STATIC_DIR is set)
func (s *Server) setupRoutes(o options) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	s.router.Get("/health", healthHandler.HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	contactService := service.NewContactService(
		mailer.Composer{From: s.cfg.Mail.From, To: s.cfg.Mail.To},
		o.transport,
		s.logger.With(slog.String("component", "contact")),
		service.WithDeliveryLog(s.db),
		service.WithContactRecorder(s.metrics),
	)
	contactHandler := handler.NewContactHandler(contactService, s.logger)

	statsHandler := handler.NewStatsHandler(
		s.poller,
		tenure.NewCalculator(s.cfg.Resume.ExperienceStart, o.clock),
		tenure.NewCalculator(s.cfg.Resume.CurrentRoleStart, o.clock),
		s.logger,
	)

	var adminHandler *handler.AdminHandler
	var tokens *auth.TokenService
	if s.cfg.Admin.Enabled() {
		var err error
		tokens, err = auth.NewTokenService(s.cfg.Admin.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		adminService := service.NewAdminService(
			s.cfg.Admin.PasswordHash,
			auth.NewPasswordService(),
			tokens,
			s.db,
			s.logger.With(slog.String("component", "admin")),
		)
		adminHandler = handler.NewAdminHandler(adminService, tokens.TTL(), s.cfg.Admin.SecureCookie, s.logger)
	} else {
		s.logger.Warn("JWT_SECRET or ADMIN_PASSWORD_HASH not set, admin routes are disabled")
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/contact", contactHandler.HandleSubmit)
		r.Get("/stats", statsHandler.HandleStats)
		r.Handle("/stats/live", s.hub)
		r.Get("/experience", statsHandler.HandleExperience)

		if adminHandler == nil {
			return
		}
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", adminHandler.HandleLogin)
			r.Post("/logout", adminHandler.HandleLogout)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Get("/deliveries", adminHandler.HandleDeliveries)
				r.Get("/deliveries/{id}", adminHandler.HandleDelivery)
				r.Post("/stats/refresh", statsHandler.HandleRefresh)
			})
		})
	})

	if s.cfg.StaticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	return nil
}

// Start runs the server until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run starts the poller, the live hub and the HTTP listener, and blocks
// until ctx is cancelled or the listener fails. Shutdown drains requests
// first, then stops the hub, the poller and the database, in that order.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Longer than the SMTP timeout so a slow send still gets its answer.
		WriteTimeout: s.cfg.Mail.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// The poller and hub outlive ctx: requests still draining after the
	// shutdown signal keep reading fresh stats. Close stops the poller.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	s.poller.Start(context.Background())

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.cfg.Port)),
			slog.String("database", s.cfg.DBPath),
			slog.Bool("admin", s.cfg.Admin.Enabled()),
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close stops the poller and closes the database. It is safe to call more
// than once.
func (s *Server) Close() error {
	s.poller.Stop()
	return s.db.Close()
}
