package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

// Config configures the listener.
type Config struct {
	Addr string

	// TLS enables HTTPS when set.
	TLS *tls.Config

	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// New creates a new HTTP server.
func New(cfg Config, h http.Handler, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           h,
			TLSConfig:         cfg.TLS,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		logger: log.With("component", "http"),
	}
}

// Listen binds the configured address. Split from Serve so callers learn
// the bound port before serving.
func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.httpServer.Addr)
}

// Serve serves on ln until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	scheme := "http"
	if s.httpServer.TLSConfig != nil {
		scheme = "https"
		ln = tls.NewListener(ln, s.httpServer.TLSConfig)
	}
	s.logger.Info("http server listening", "addr", ln.Addr().String(), "scheme", scheme)

	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe binds the configured address and serves.
func (s *Server) ListenAndServe() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
