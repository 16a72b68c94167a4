package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/flavorhub/internal/config"
	"github.com/Clark-Hu/flavorhub/internal/service"
)

// HealthChecker reports whether the storage backend is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	svc     *service.Service
	health  HealthChecker
	logger  zerolog.Logger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes. health may
// be nil when the backend has nothing to probe.
func New(cfg config.Config, svc *service.Service, health HealthChecker, logger zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(instrument)
	r.Use(corsHandler(cfg.CORSAllowedOrigins))

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		health: health,
		logger: logger.With().Str("component", "http").Logger(),
		router: r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	limitMutations := rateLimiter(s.cfg.RateLimitRequests, s.cfg.RateLimitWindow())

	s.router.Route("/api/recipes", func(r chi.Router) {
		r.Get("/", s.handleListRecipes)
		r.Post("/", s.handleCreateRecipe)
		r.Get("/search", s.handleSearchRecipes)
		r.Get("/difficulty/{level}", s.handleRecipesByDifficulty)
		r.Get("/cuisine/{type}", s.handleRecipesByCuisine)
		r.Get("/recipe-of-the-day", s.handleRecipeOfTheDay)
		r.Get("/featured", s.handleFeaturedRecipes)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetRecipe)
			r.Put("/", s.handleUpdateRecipe)
			r.Delete("/", s.handleDeleteRecipe)

			r.Route("/ratings", func(r chi.Router) {
				r.Get("/", s.handleListRatings)
				r.Get("/average", s.handleRatingAverage)
				r.Get("/user/{userId}", s.handleUserRating)
				r.Group(func(r chi.Router) {
					r.Use(limitMutations)
					r.Post("/", s.handleSubmitRating)
					r.Put("/{ratingId}", s.handleUpdateRating)
					r.Delete("/{ratingId}", s.handleDeleteRating)
				})
			})
		})
	})
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.health.HealthCheck(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("health check failed")
			s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "storage unavailable")
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
