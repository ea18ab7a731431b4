package httpapp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cesargomez89/nowplaying/internal/config"
	"github.com/cesargomez89/nowplaying/internal/logger"
	"github.com/cesargomez89/nowplaying/internal/metacache"
	"github.com/cesargomez89/nowplaying/internal/stream"
)

type Handler struct {
	Stream     http.Handler
	NewUpdater func() stream.Updater
	Cache      *metacache.Cache
	Config     *config.Config
	Logger     *logger.Logger
	now        func() time.Time
}

func NewHandler(endpoint http.Handler, newUpdater func() stream.Updater, cache *metacache.Cache, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		Stream:     endpoint,
		NewUpdater: newUpdater,
		Cache:      cache,
		Config:     cfg,
		Logger:     log.WithComponent("http"),
		now:        time.Now,
	}
}

// NewRouter builds the application router with the shared middleware.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.Config.CORSOrigins(),
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Cache-Control", "Last-Event-ID"},
			MaxAge:         86400,
		}))
		r.With(httprate.LimitByIP(h.Config.Stream.ConnectLimit, h.Config.Stream.ConnectWindow)).
			Get("/stream", h.Stream.ServeHTTP)
		r.Get("/albums", h.Albums)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.BasicAuth("nowplaying", map[string]string{
			h.Config.Admin.Username: h.Config.Admin.Password,
		}))
		r.Post("/cache/clear", h.ClearCache)
	})
}
