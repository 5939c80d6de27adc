package hyperaio

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option is an option for configuring an Engine.
type Option func(*Engine)

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option {
	return func(e *Engine) {
		e.cfg = c
	}
}

// WithCapacity is used to set the ring size and the largest batch.
func WithCapacity(entries uint32) Option {
	return func(e *Engine) {
		e.cfg.Capacity = entries
	}
}

// WithBatchSize is used to set how many slots are filled before a flush.
func WithBatchSize(n uint32) Option {
	return func(e *Engine) {
		e.cfg.BatchSize = n
	}
}

// WithRetries is used to set the attempts made to get a free slot.
func WithRetries(n int) Option {
	return func(e *Engine) {
		e.cfg.Retries = n
	}
}

// WithRetryDelay is used to set the pause between slot attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.cfg.RetryDelay = d
	}
}

// WithHarvestTimeout bounds each completion wait of the harvester and so
// the time Destroy waits for it to stop.
func WithHarvestTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.cfg.HarvestTimeout = d
	}
}

// WithLogger is used to set the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithTracer is used to set the tracer that brackets every operation.
func WithTracer(t Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithPermissionGate is used to set the gate consulted by QuerySupport.
func WithPermissionGate(g PermissionGate) Option {
	return func(e *Engine) {
		e.gate = g
	}
}

// WithRingFactory is used to replace the kernel ring.
func WithRingFactory(f RingFactory) Option {
	return func(e *Engine) {
		e.newRing = f
		e.supported = true
	}
}
