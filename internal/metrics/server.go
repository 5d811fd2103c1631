package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server serves Prometheus metrics while a run is in progress.
type Server struct {
	server *http.Server
	logger *zap.Logger
	addr   string
}

// NewServer creates a new metrics HTTP server.
func NewServer(address, path string, m *Metrics, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	mux.Handle(path, promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	// Liveness probe
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &Server{
		server: &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
		addr:   address,
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned directly.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()

	s.logger.Info("metrics server listening", zap.String("address", s.addr))
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once Start has returned.
func (s *Server) Addr() string {
	return s.addr
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
