package lockreg

import (
	"context"
	"sync"
)

// gate is the barrier new acquisitions wait on while a sweep is running.
// Waiters park on a channel that is closed when the sweep ends.
type gate struct {
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func (g *gate) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.closed = true
		g.done = make(chan struct{})
	}
}

func (g *gate) open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		g.closed = false
		close(g.done)
	}
}

func (g *gate) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// wait returns once the gate is open or ctx is done.
func (g *gate) wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if !g.closed {
			g.mu.Unlock()
			return nil
		}
		done := g.done
		g.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
