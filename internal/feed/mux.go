package feed

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Mux merges N provider streams into one arrival-ordered sequence over a
// bounded queue. Delivery is FIFO per provider, interleaved arbitrarily
// across providers. The queue bound is the backpressure mechanism: when the
// consumer stalls, producers block at their send.
type Mux struct {
	out chan string
	g   *errgroup.Group
}

// Start launches every source. On cancellation the producers stop first and
// the record channel is closed only after all of them have exited, so the
// consumer can drain whatever is still queued; nothing is dropped mid-drain.
func Start(ctx context.Context, sources []Source, queueSize int) *Mux {
	g, ctx := errgroup.WithContext(ctx)
	m := &Mux{out: make(chan string, queueSize), g: g}
	for _, src := range sources {
		src := src
		g.Go(func() error {
			return src.Run(ctx, m.out)
		})
	}
	go func() {
		_ = g.Wait()
		close(m.out)
	}()
	return m
}

// Records yields the merged sequence. The channel closes once all producers
// have stopped and the queue has drained.
func (m *Mux) Records() <-chan string { return m.out }

// Wait blocks until all producers have exited and returns the first producer
// error, if any.
func (m *Mux) Wait() error { return m.g.Wait() }
