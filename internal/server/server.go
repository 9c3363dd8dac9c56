// ABOUTME: Assembles the backoffice HTTP server from its components
// ABOUTME: Owns startup, the middleware chain, and graceful shutdown

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luisferreiraa/metamarc-backoffice/internal/config"
	"github.com/luisferreiraa/metamarc-backoffice/internal/metrics"
	"github.com/luisferreiraa/metamarc-backoffice/internal/proxy"
	"github.com/luisferreiraa/metamarc-backoffice/internal/routegate"
	"github.com/luisferreiraa/metamarc-backoffice/internal/session"
	"github.com/luisferreiraa/metamarc-backoffice/internal/store"
	"github.com/luisferreiraa/metamarc-backoffice/internal/upstream"
	"github.com/luisferreiraa/metamarc-backoffice/internal/webapp"
)

// sweepInterval is how often expired session records are purged.
const sweepInterval = time.Hour

// Server is the assembled backoffice: storage, session manager, the
// route gate, the credential proxy, and the pages, behind one HTTP
// server.
type Server struct {
	config     *config.Config
	store      *store.SQLiteStore
	sessions   *session.Manager
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds a Server from configuration. The returned server owns the
// sqlite store and closes it on shutdown.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	var collector *metrics.Collector
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(registry)
	}

	// A nil *Collector must not end up inside a non-nil interface.
	var sessionRecorder session.Recorder
	var gateRecorder routegate.Recorder
	var upstreamRecorder upstream.Recorder
	if collector != nil {
		sessionRecorder = collector
		gateRecorder = collector
		upstreamRecorder = collector
	}

	sessions := session.NewManager(sqlStore, cfg.Session.TTL, sessionRecorder)
	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, upstreamRecorder)

	mux := http.NewServeMux()
	proxy.New(client).Routes(mux)
	webapp.New(sessions, client).RegisterRoutes(mux)
	mux.HandleFunc("GET /health", handleHealth)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler(registry))
	}

	// The gate classifies every request before anything else runs; the
	// session middleware then attaches the resolved snapshot for the
	// page handlers behind it.
	gate := routegate.New(gateRecorder)
	handler := gate.Middleware(sessions.Middleware(mux))

	s := &Server{
		config:   cfg,
		store:    sqlStore,
		sessions: sessions,
		logger:   logger.With("component", "server"),
		httpServer: &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	return s, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails. Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	go s.sweepExpiredSessions(ctx)

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// sweepExpiredSessions purges expired session records periodically so
// logged-out-by-expiry sessions don't accumulate in the store.
func (s *Server) sweepExpiredSessions(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.store.DeleteExpiredSessionRecords(ctx); err != nil {
				s.logger.Error("failed to sweep expired sessions", "error", err)
			}
		}
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops the HTTP server and closes the session store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if closeErr := s.store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
