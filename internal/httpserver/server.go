// Package httpserver assembles the HTTP surface: the REST API, the
// signaling WebSocket endpoint and the operational probes.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/soberline/soberline/internal/config"
	"github.com/soberline/soberline/internal/metrics"
	"github.com/soberline/soberline/internal/store"
)

type Server struct {
	cfg  config.Config
	http *http.Server
	log  zerolog.Logger
}

func New(cfg config.Config, api http.Handler, signaling http.Handler, st *store.Store, m *metrics.Metrics, log zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Mount("/api", api)
	r.Handle("/ws", signaling)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(); err != nil {
			log.Error().Err(err).Msg("readiness check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeMetrics(w, m)
	})

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: r,
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for
// at most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func writeMetrics(w http.ResponseWriter, m *metrics.Metrics) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for name, value := range m.Snapshot() {
		fmt.Fprintf(w, "%s %d\n", name, value)
	}
}
