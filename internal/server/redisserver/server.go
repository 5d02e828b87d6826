package redisserver

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/yndnr/ledgermesh-go/internal/core/domain"
	"github.com/yndnr/ledgermesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// Config holds the RESP server configuration.
type Config struct {
	Addr string

	// TLS enables TLS on the listener when set.
	TLS *tls.Config

	// ReadTimeout bounds reading a command once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing a reply.
	WriteTimeout time.Duration
	// IdleTimeout closes connections idle between commands.
	IdleTimeout time.Duration
	// CommandTimeout bounds each ledger call, lock waits included.
	CommandTimeout time.Duration

	// RateLimit is the number of commands per second per connection.
	// Zero disables rate limiting.
	RateLimit float64
}

func (c *Config) setDefaults() {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 5 * time.Minute
	}
}

// Recorder receives per-command metrics.
type Recorder interface {
	RecordRequest(protocol, method string, status int)
	ObserveRequestDuration(protocol, method string, d time.Duration)
}

// Server represents the RESP server.
type Server struct {
	cfg      Config
	handler  *CommandHandler
	recorder Recorder
	logger   logger.Logger

	mu    sync.Mutex
	ln    net.Listener
	conns map[*Conn]struct{}

	closed atomic.Bool
	wg     sync.WaitGroup
}

// Conn is a single client connection.
type Conn struct {
	netConn net.Conn
	br      *bufio.Reader
	w       *Writer
	limiter *rate.Limiter
	log     logger.Logger
}

// New creates a RESP server for ledger. rec may be nil.
func New(cfg Config, ledger handler.Ledger, rec Recorder, log logger.Logger) *Server {
	cfg.setDefaults()
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		cfg:      cfg,
		handler:  NewCommandHandler(ledger),
		recorder: rec,
		logger:   log.With("component", "resp"),
		conns:    make(map[*Conn]struct{}),
	}
}

// Listen binds the configured address, with TLS when configured.
func (s *Server) Listen() (net.Listener, error) {
	if s.cfg.TLS != nil {
		return tls.Listen("tcp", s.cfg.Addr, s.cfg.TLS)
	}
	return net.Listen("tcp", s.cfg.Addr)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	if s.closed.Load() {
		_ = ln.Close()
		return nil
	}
	s.logger.Info("RESP server listening", "addr", ln.Addr().String(), "tls", s.cfg.TLS != nil)

	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		c := s.newConn(nc)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(c)
		}()
	}
}

// Shutdown stops accepting, lets running commands reply, closes idle
// connections and waits for them within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closed.Store(true)

	s.mu.Lock()
	var closeErr error
	if s.ln != nil {
		closeErr = s.ln.Close()
	}
	for c := range s.conns {
		// Wakes connections blocked waiting for their next command.
		_ = c.netConn.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if errors.Is(closeErr, net.ErrClosed) {
			return nil
		}
		return closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) newConn(nc net.Conn) *Conn {
	c := &Conn{
		netConn: nc,
		br:      bufio.NewReader(nc),
		w:       NewWriter(nc),
		log:     s.logger.With("remote", nc.RemoteAddr().String()),
	}
	if s.cfg.RateLimit > 0 {
		burst := int(s.cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), burst)
	}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	return c
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	_ = c.netConn.Close()
}

func (s *Server) serveConn(c *Conn) {
	c.log.Debug("connection opened")
	defer c.log.Debug("connection closed")

	for {
		// Idle between commands. Checked after arming the deadline so a
		// concurrent Shutdown's deadline always wins.
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if s.closed.Load() {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			s.logReadError(c, err)
			return
		}

		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}
		args, err := ReadCommand(c.br)
		if err != nil {
			s.logReadError(c, err)
			if errors.Is(err, ErrLimitExceeded) || errors.Is(err, ErrProtocol) {
				c.w.Error("ERR " + err.Error())
				s.flush(c)
			}
			return
		}
		if len(args) == 0 {
			continue
		}

		if commandName(args[0]) == "QUIT" {
			c.w.Simple("OK")
			s.flush(c)
			return
		}

		s.execute(c, args)
		if !s.flush(c) {
			return
		}
	}
}

func (s *Server) execute(c *Conn, args [][]byte) {
	start := time.Now()

	if c.limiter != nil && !c.limiter.Allow() {
		c.w.Error(formatError(domain.ErrRateLimited))
		s.record(commandName(args[0]), domain.ErrRateLimited, time.Since(start))
		return
	}

	requestID := uuid.NewString()
	ctx := logger.WithRequestID(context.Background(), requestID)
	ctx = logger.WithLogger(ctx, c.log.With("request_id", requestID))
	ctx, cancel := commandContext(ctx, s.cfg.CommandTimeout)
	defer cancel()

	name, err := s.handler.Handle(ctx, c.w, args)
	s.record(name, err, time.Since(start))
}

func (s *Server) record(name string, err error, took time.Duration) {
	if s.recorder == nil {
		return
	}
	if _, ok := commands[name]; !ok {
		name = "unknown"
	}
	s.recorder.RecordRequest("resp", name, statusOf(err))
	s.recorder.ObserveRequestDuration("resp", name, took)
}

func (s *Server) flush(c *Conn) bool {
	if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return false
	}
	if err := c.w.Flush(); err != nil {
		c.log.Debug("write failed", "error", err)
		return false
	}
	return true
}

func (s *Server) logReadError(c *Conn, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case errors.As(err, &netErr) && netErr.Timeout():
		if !s.closed.Load() {
			c.log.Debug("connection idle timeout")
		}
	case errors.Is(err, ErrLimitExceeded):
		c.log.Warn("protocol limit exceeded", "error", err)
	default:
		c.log.Debug("read failed", "error", err)
	}
}
