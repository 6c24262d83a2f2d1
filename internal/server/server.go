// Package server is the composition root: it opens the store, builds the
// services and handlers, and mounts them on a chi router.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → openStore (sqlite | postgres) → repository.Store
//	              → openPublisher (kafka | nop)    → events.Publisher
//	Store + Publisher → services → handlers → routes
//
// Nothing below this package knows which backend or broker is in use.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/plantando/internal/auth"
	"github.com/sakif/plantando/internal/config"
	"github.com/sakif/plantando/internal/events"
	"github.com/sakif/plantando/internal/handler"
	"github.com/sakif/plantando/internal/middleware"
	"github.com/sakif/plantando/internal/repository"
	"github.com/sakif/plantando/internal/repository/postgres"
	sqliteRepo "github.com/sakif/plantando/internal/repository/sqlite"
	"github.com/sakif/plantando/internal/service"
)

const (
	openTimeout     = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Server owns the router and the resources that must be released on
// shutdown: the store connection and the event publisher.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
	events events.Publisher
}

// New opens the store and the publisher, seeds the catalog when asked to,
// and mounts every route.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	store, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		events: openPublisher(cfg, logger),
	}

	if err := s.setupRoutes(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// openStore picks the backend from the URL scheme. postgres:// and
// postgresql:// select Postgres; anything else is a SQLite path, with an
// optional sqlite:// prefix.
func openStore(ctx context.Context, databaseURL string) (repository.Store, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgres.New(ctx, databaseURL)
	}

	path := strings.TrimPrefix(databaseURL, "sqlite://")
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	return sqliteRepo.New(path)
}

func openPublisher(cfg config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set; domain events are discarded")
		return events.Nop{}
	}
	logger.Info("publishing domain events",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("topic_prefix", cfg.KafkaTopicPrefix),
	)
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
}

// setupRoutes wires services, handlers and middleware.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                               → store ping
//	GET    /metrics                               → Prometheus
//	POST   /api/usuarios                          → public
//	GET    /api/usuarios[/{id}]                   → bearer
//	PUT    /api/usuarios/{id}                     → bearer + owner
//	DELETE /api/usuarios/{id}                     → bearer + owner
//	POST   /api/auth/login                        → public
//	GET    /api/auth/me                           → bearer
//	GET    /api/acoes-sustentaveis[/{id}]         → public
//	POST|PUT|DELETE /api/acoes-sustentaveis...    → bearer
//	GET    /api/dicas[/{id}]                      → public
//	POST|PUT|DELETE /api/dicas...                 → bearer
//	*      /api/atividades...                     → bearer
//
// MIDDLEWARE ORDER:
// RequestID first so every later layer can log it. Logger wraps Recoverer,
// so a recovered panic is still logged as a 500.
func (s *Server) setupRoutes(ctx context.Context) error {
	passwords := auth.NewPasswordService()
	tokens := auth.NewTokenService(s.config.JWTSecret, s.config.JWTExpiresIn)
	if !tokens.Configured() {
		s.logger.Warn("JWT_SECRET not set; login and protected routes will answer 500")
	}

	userService := service.NewUserService(s.store.Users(), passwords, s.events, s.logger)
	authService := service.NewAuthService(s.store.Users(), tokens, passwords, s.logger)
	actionService := service.NewActionService(s.store.Actions(), s.logger)
	tipService := service.NewTipService(s.store.Tips(), s.logger)
	activityService := service.NewActivityService(
		s.store.Activities(), s.store.Users(), s.store.Actions(), s.events, s.logger)

	if s.config.SeedCatalog {
		if _, err := actionService.SeedDefaults(ctx); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
	}

	errs := handler.NewErrorResponder(s.logger, s.config.Production())
	users := handler.NewUserHandler(userService, errs)
	login := handler.NewAuthHandler(authService, errs)
	actions := handler.NewActionHandler(actionService, errs)
	tips := handler.NewTipHandler(tipService, errs)
	activities := handler.NewActivityHandler(activityService, errs)
	health := handler.NewHealthHandler(s.store, errs)

	requireAuth := auth.RequireAuth(tokens, errs.Respond)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Metrics)
	s.router.Use(middleware.CORS(s.config.CORSOrigin))

	s.router.NotFound(errs.NotFound)
	s.router.MethodNotAllowed(errs.NotFound)

	s.router.Get("/healthz", health.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/usuarios", func(r chi.Router) {
			r.Post("/", users.HandleCreate)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", users.HandleList)
				r.Get("/{id}", users.HandleGet)
				r.Put("/{id}", users.HandleUpdate)
				r.Delete("/{id}", users.HandleDelete)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", login.HandleLogin)
			r.With(requireAuth).Get("/me", login.HandleMe)
		})

		r.Route("/acoes-sustentaveis", func(r chi.Router) {
			r.Get("/", actions.HandleList)
			r.Get("/{id}", actions.HandleGet)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", actions.HandleCreate)
				r.Put("/{id}", actions.HandleUpdate)
				r.Delete("/{id}", actions.HandleDelete)
			})
		})

		r.Route("/dicas", func(r chi.Router) {
			r.Get("/", tips.HandleList)
			r.Get("/{id}", tips.HandleGet)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", tips.HandleCreate)
				r.Put("/{id}", tips.HandleUpdate)
				r.Delete("/{id}", tips.HandleDelete)
			})
		})

		r.Route("/atividades", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", activities.HandleCreate)
			r.Get("/usuario/{usuarioID}", activities.HandleListByUser)
			r.Get("/{id}", activities.HandleGet)
			r.Put("/{id}", activities.HandleUpdate)
			r.Delete("/{id}", activities.HandleDelete)
		})
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the publisher and the store.
func (s *Server) Close() error {
	return errors.Join(s.events.Close(), s.store.Close())
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the store and the publisher.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.Any("error", err))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("environment", s.config.Environment),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
