package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cesargomez89/nowplaying/internal/catalog"
	"github.com/cesargomez89/nowplaying/internal/config"
	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/enricher"
	httpapp "github.com/cesargomez89/nowplaying/internal/http"
	"github.com/cesargomez89/nowplaying/internal/httpclient"
	"github.com/cesargomez89/nowplaying/internal/lastfm"
	"github.com/cesargomez89/nowplaying/internal/logger"
	"github.com/cesargomez89/nowplaying/internal/metacache"
	"github.com/cesargomez89/nowplaying/internal/musicbrainz"
	"github.com/cesargomez89/nowplaying/internal/nowplaying"
	"github.com/cesargomez89/nowplaying/internal/store"
	"github.com/cesargomez89/nowplaying/internal/stream"
	"github.com/cesargomez89/nowplaying/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	// Initialize cache store
	backend, err := store.Open(cfg.Cache.Backend, cfg.Cache.Path)
	if err != nil {
		appLogger.Error("Failed to open cache store", "backend", cfg.Cache.Backend, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	w := worker.NewWorker(backend, appLogger)
	w.Start()
	defer w.Stop()

	cache := metacache.New(backend, appLogger)

	// Upstream clients
	history := lastfm.NewClient(
		lastfm.NewAPI(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret),
		cfg.Lastfm.User,
		cfg.Lastfm.Timeout,
		appLogger,
	)

	var sources []enricher.MetadataSource
	if cfg.Catalog.Enabled() {
		catalogClient, err := newCatalogClient(cfg, cache, appLogger)
		if err != nil {
			appLogger.Error("Failed to init catalog client", "error", err)
			os.Exit(1)
		}
		sources = append(sources, catalogClient)
	} else {
		appLogger.Warn("Catalog credentials not configured, catalog lookups disabled")
	}
	if cfg.MusicBrainz.Enabled {
		sources = append(sources, musicbrainz.NewClient(cfg.MusicBrainz.URL))
	}

	enr := enricher.New(cache, history, appLogger, sources...)
	detector := nowplaying.NewDetector(appLogger)

	newUpdater := func() stream.Updater {
		return stream.NewManager(history, enr, detector, appLogger)
	}
	endpoint := stream.NewEndpoint(newUpdater, appLogger)

	// Routes
	h := httpapp.NewHandler(endpoint, newUpdater, cache, cfg, appLogger)

	// Streams end when the base context is cancelled on shutdown.
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           httpapp.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancelStreams()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exiting")
}

func newCatalogClient(cfg *config.Config, cache *metacache.Cache, log *logger.Logger) (*catalog.Client, error) {
	var tokens catalog.TokenSource
	if cfg.Catalog.Token != "" {
		tokens = catalog.StaticToken(cfg.Catalog.Token)
	} else {
		signer, err := catalog.NewSignerFromFile(cfg.Catalog.TeamID, cfg.Catalog.KeyID, cfg.Catalog.KeyPath)
		if err != nil {
			return nil, err
		}
		tokens = signer
	}

	hc := httpclient.NewClient(&http.Client{Timeout: cfg.Catalog.Timeout}, cfg.Catalog.RequestsPerSecond).
		WithRetries(constants.DefaultRetryCount, constants.DefaultRetryBase)

	return catalog.NewClient(catalog.Config{
		BaseURL:            cfg.Catalog.BaseURL,
		Storefront:         cfg.Catalog.Storefront,
		FallbackStorefront: cfg.Catalog.FallbackStorefront,
		Timeout:            cfg.Catalog.Timeout,
	}, hc, tokens, cache, log), nil
}
