package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"restaurantfinder/backend"
	"restaurantfinder/config"
	"restaurantfinder/database"
	"restaurantfinder/finder"
	"restaurantfinder/geolocate"
	"restaurantfinder/handlers"
	"restaurantfinder/history"
	"restaurantfinder/server"
	"restaurantfinder/session"
	"restaurantfinder/worker"
)

// main initializes the server, the optional search history database and the
// prefetch worker.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger)
	cached := backend.NewCachedFetcher(client, cfg.CacheTTL, logger)

	var (
		recorder finder.Recorder = history.Nop{}
		source   history.Source  = history.Nop{}
	)
	if cfg.HistoryEnabled() {
		db, err := database.Connect(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store, err := history.NewStore(ctx, db)
		if err != nil {
			logger.Error("failed to prepare search history", "error", err)
			os.Exit(1)
		}
		recorder, source = store, store

		worker.StartPrefetchWorker(ctx, store, cached, cfg.PrefetchInterval, cfg.PrefetchConcurrency, logger)
	} else {
		logger.Info("DATABASE_URL not set, search history and prefetch disabled")
	}

	var geocoder handlers.AddressLocator
	if cfg.GoogleMapsAPIKey != "" {
		geocoder = geolocate.NewGeocoder(cfg.GoogleMapsAPIKey, cfg.GeocodeRegion)
	} else {
		logger.Info("GOOGLE_MAPS_API_KEY not set, address lookup disabled")
	}

	locale := cfg.Tag()
	defaultLoc, hasDefaultLoc := cfg.DefaultLocation()
	sessions := session.NewStore(cfg.SessionTTL, func(r finder.Renderer) *finder.Controller {
		c := finder.New(finder.Options{
			Fetcher:  cached,
			Renderer: r,
			Recorder: recorder,
			Logger:   logger,
			Locale:   locale,
		})
		if hasDefaultLoc {
			c.ComputeDistances(defaultLoc.Lat, defaultLoc.Lng)
		}
		return c
	}, logger)

	srv := server.New(server.Options{
		Addr:        cfg.Addr(),
		CORSOrigins: cfg.CORSOrigins,
		Store:       sessions,
		History:     source,
		Geocoder:    geocoder,
		Logger:      logger,
	})

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
