// Package web serves the journal UI and a small JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hpungsan/moodjournal/internal/config"
	"github.com/hpungsan/moodjournal/internal/journal"
	"github.com/hpungsan/moodjournal/internal/logging"
	"github.com/hpungsan/moodjournal/internal/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Deps are the collaborators the web layer needs.
type Deps struct {
	Journal *journal.Journal
	Config  *config.Config
	Metrics *metrics.Metrics // optional: nil disables /metrics
	Logger  *slog.Logger
	Version string
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(d Deps) (http.Handler, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	logger := logging.Component(d.Logger, "web")
	loc, err := d.Config.Location()
	if err != nil {
		return nil, err
	}

	h := &Handlers{
		journal:  d.Journal,
		renderer: NewRenderer(templateSub, d.Version, logger),
		loc:      loc,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(logger, d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/entries", http.StatusFound)
	})
	r.Get("/health", h.HandleHealth)

	r.Route("/entries", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/new", h.HandleNew)
		r.Post("/retry", h.HandleRetry)
		r.Get("/{id}", h.HandleDetail)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/delete", h.HandleDelete)
	})
	r.Get("/stats", h.HandleStats)

	r.Route("/api", func(r chi.Router) {
		r.Get("/entries", h.HandleList)
		r.Post("/entries", h.HandleCreate)
		r.Get("/entries/{id}", h.HandleDetail)
		r.Delete("/entries/{id}", h.HandleDelete)
		r.Get("/stats", h.HandleAPIStats)
		r.Get("/moods/{value}", h.HandleClassify)
	})

	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		h.renderer.renderError(w, req, notFound(req.URL.Path))
	})

	return r, nil
}

// NewServer creates the HTTP server for the journal UI.
func NewServer(d Deps, bind string, port int) (*http.Server, error) {
	handler, err := NewRouter(d)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	logger = logging.Component(logger, "web")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("mood journal UI running", "url", "http://"+srv.Addr)
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") || strings.HasPrefix(srv.Addr, ":") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
