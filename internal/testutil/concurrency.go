package testutil

import (
	"context"
	"sync"
)

// Gate is a task function body that blocks until released. It records how
// many calls were inside at once.
type Gate struct {
	mu      sync.Mutex
	active  int
	peak    int
	entered chan struct{}
	release chan struct{}
}

// NewGate returns a closed-until-released gate.
func NewGate() *Gate {
	return &Gate{
		entered: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
}

// Fn is the task function. It returns its first input, or nil.
func (g *Gate) Fn(ctx context.Context, inputs ...any) (any, error) {
	g.mu.Lock()
	g.active++
	if g.active > g.peak {
		g.peak = g.active
	}
	g.mu.Unlock()
	g.entered <- struct{}{}

	select {
	case <-g.release:
	case <-ctx.Done():
	}

	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	if len(inputs) > 0 {
		return inputs[0], nil
	}
	return nil, nil
}

// Entered is signaled once per call as it starts.
func (g *Gate) Entered() <-chan struct{} { return g.entered }

// Active returns the number of calls currently blocked in the gate.
func (g *Gate) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Peak returns the highest number of simultaneous calls seen.
func (g *Gate) Peak() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

// Release lets every current and future call through.
func (g *Gate) Release() {
	close(g.release)
}
