package hyperaio

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/eapache/queue"
)

// Collector is a Handler that buffers completions in arrival order for a
// single consumer. It never drops a completion.
type Collector struct {
	mu       sync.Mutex
	q        *queue.Queue
	received atomix.Int64
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{q: queue.New()}
}

// HandleCompletion implements the Handler interface.
func (c *Collector) HandleCompletion(comp Completion) {
	c.mu.Lock()
	c.q.Add(comp)
	c.mu.Unlock()
	c.received.Add(1)
}

// TryNext returns the oldest buffered completion, or iox.ErrWouldBlock when
// none is buffered.
func (c *Collector) TryNext() (Completion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.q.Length() == 0 {
		return Completion{}, iox.ErrWouldBlock
	}
	return c.q.Remove().(Completion), nil
}

// Wait returns the next n completions, or what it collected so far along
// with the context error when ctx ends first.
func (c *Collector) Wait(ctx context.Context, n int) ([]Completion, error) {
	out := make([]Completion, 0, n)
	backoff := iox.Backoff{}
	for len(out) < n {
		comp, err := c.TryNext()
		if err == nil {
			out = append(out, comp)
			backoff.Reset()
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		backoff.Wait()
	}
	return out, nil
}

// Received returns how many completions were handled in total.
func (c *Collector) Received() int64 {
	return c.received.Load()
}
