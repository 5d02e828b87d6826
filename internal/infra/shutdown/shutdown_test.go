package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/yndnr/ledgermesh-go/internal/telemetry/logger"
)

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.done == nil {
		t.Error("done channel should be initialized")
	}

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_Wait_ContextCancelled(t *testing.T) {
	h := NewHandler(5*time.Second, logger.Nop())

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"storage", "ledger", "http"} {
		name := name
		h.OnShutdown(name, func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("hook %s ran without a deadline", name)
			}
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	want := []string{"http", "ledger", "storage"}
	if len(order) != len(want) {
		t.Fatalf("hooks called = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("hooks called in wrong order: %v, want %v", order, want)
			break
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := NewHandler(5*time.Second, logger.Nop())

	called := make(chan struct{}, 1)
	h.OnShutdown("probe", func(ctx context.Context) error {
		called <- struct{}{}
		return nil
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait(context.Background())
	}()

	// Give Wait time to install the signal handler.
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}
	if len(called) != 1 {
		t.Error("hook was not called")
	}
}

func TestHandler_Shutdown_JoinsErrors(t *testing.T) {
	h := NewHandler(time.Second, logger.Nop())

	errA := errors.New("flush failed")
	errB := errors.New("close failed")
	ran := 0
	h.OnShutdown("a", func(context.Context) error { ran++; return errA })
	h.OnShutdown("ok", func(context.Context) error { ran++; return nil })
	h.OnShutdown("b", func(context.Context) error { ran++; return errB })

	err := h.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Shutdown() error = %v, want both hook errors", err)
	}
	if ran != 3 {
		t.Errorf("ran %d hooks, want 3", ran)
	}

	if err := h.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v, want nil", err)
	}
	if ran != 3 {
		t.Error("hooks should run only once")
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(ctx context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 10 {
		t.Errorf("expected 10 hooks, got %d", len(h.hooks))
	}
}
