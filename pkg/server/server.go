package server

import (
	"context"
	"net/http"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadyCheck reports whether downstream dependencies are reachable
type ReadyCheck func(ctx context.Context) error

// Server hosts the webhook endpoint alongside health checks and metrics
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *logger.Logger
	ready      ReadyCheck
}

// New creates a new Server. ready may be nil, in which case /ready always
// reports ok.
func New(addr string, l *logger.Logger, ready ReadyCheck) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		logger: l,
		ready:  ready,
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return s
}

// Handle mounts an application handler on the server mux
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Start runs the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
