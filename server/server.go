package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"

	"restaurantfinder/handlers"
	"restaurantfinder/history"
	"restaurantfinder/session"
)

const (
	DefaultRequestTimeout  = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Options configures the HTTP server.
type Options struct {
	Addr           string
	CORSOrigins    []string
	Store          *session.Store
	History        history.Source
	Geocoder       handlers.AddressLocator
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
	logger *slog.Logger
}

// New wires every route behind the shared middleware stack.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.History == nil {
		opts.History = history.Nop{}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(opts.Logger))
	router.Use(middleware.Recoverer)

	store := opts.Store
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Use(gzip)

		r.Get("/health", handlers.HealthHandler(store))

		r.Post("/search", handlers.SearchHandler(store))
		r.Post("/filters", handlers.FiltersHandler(store))
		r.Post("/sort", handlers.SortHandler(store))

		r.Post("/location", handlers.LocationHandler(store))
		r.Post("/location/geocode", handlers.GeocodeHandler(store, opts.Geocoder))

		r.Get("/view", handlers.ViewHandler(store))
		r.Get("/restaurants/{index}", handlers.DetailHandler(store))
		r.Get("/markers", handlers.MarkersHandler(store))
		r.Get("/history", handlers.HistoryHandler(opts.History))
	})

	// Hijacked connections bypass the timeout and gzip wrappers.
	router.Get("/ws", handlers.WebSocketHandler(store))

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return &Server{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           c.Handler(router),
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
		logger: opts.Logger,
	}
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logger.Info("HTTP server starting", "address", s.server.Addr)

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the full handler chain, CORS included.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func gzip(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
