package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

// Hook is a named cleanup step run during shutdown.
type Hook struct {
	Name string
	Fn   func(context.Context) error
}

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	hooks   []Hook
	mu      sync.Mutex
	done    chan struct{}
	once    sync.Once
	logger  logger.Logger
}

// NewHandler creates a new shutdown handler. A nil logger discards output.
func NewHandler(timeout time.Duration, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		timeout: timeout,
		hooks:   make([]Hook, 0),
		done:    make(chan struct{}),
		logger:  log.With("component", "shutdown"),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, Hook{Name: name, Fn: fn})
}

// Wait blocks until SIGINT or SIGTERM arrives, or ctx is done, then runs the
// hooks. All hooks run; their errors are joined.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		h.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		h.logger.Info("shutdown requested", "reason", context.Cause(ctx))
	}
	return h.Shutdown()
}

// Shutdown runs the registered hooks once within the configured timeout.
// Later calls return nil.
func (h *Handler) Shutdown() error {
	var err error
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := make([]Hook, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			start := time.Now()
			if hookErr := hooks[i].Fn(ctx); hookErr != nil {
				h.logger.Error("shutdown hook failed", "hook", hooks[i].Name, "error", hookErr)
				errs = append(errs, hookErr)
				continue
			}
			h.logger.Debug("shutdown hook done", "hook", hooks[i].Name, "took", time.Since(start))
		}
		err = errors.Join(errs...)
		close(h.done)
	})
	return err
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
