package runner

import (
	"context"
	"sync"
)

// Group runs workers and hands each caller a channel carrying that worker's
// terminal error.
type Group struct {
	wg sync.WaitGroup
}

// Go starts fn as a worker. The returned channel yields fn's result exactly
// once and is then closed.
func (g *Group) Go(ctx context.Context, fn func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		done <- fn(ctx)
		close(done)
	}()
	return done
}

// Wait blocks until every worker started with Go has returned.
func (g *Group) Wait() { g.wg.Wait() }
