package hyperaio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

type opKind int

const (
	opOpen opKind = iota
	opRead
	opCancel
)

var opLabels = [...]string{
	opOpen:   "SubmitOpenBatch",
	opRead:   "SubmitReadBatch",
	opCancel: "SubmitCancelBatch",
}

func (k opKind) String() string {
	return opLabels[k]
}

func (e *Engine) counter(k opKind) *atomic.Uint64 {
	switch k {
	case opOpen:
		return &e.opened
	case opRead:
		return &e.read
	default:
		return &e.cancelled
	}
}

// batch tracks the slots filled since the last flush.
type batch struct {
	e       *Engine
	ring    Ring
	counter *atomic.Uint64
	pending []uint64
	failed  []uint64
}

// flush submits the ring. Pending tokens are counted and, when the submit
// fails, marked as failed.
func (b *batch) flush() {
	_, err := b.ring.Submit()
	if len(b.pending) == 0 {
		return
	}
	if err != nil {
		b.e.log.WithError(err).WithField("count", len(b.pending)).Error("submit io_uring failed")
		b.failed = append(b.failed, b.pending...)
	}
	b.counter.Add(uint64(len(b.pending)))
	b.pending = b.pending[:0]
}

// acquire returns a free slot, flushing the ring and pausing between
// attempts. It returns nil once every attempt failed. Entries handed to a
// flush here are counted like any other flush.
func (b *batch) acquire() *SubmitEntry {
	for i := 0; i < b.e.cfg.Retries; i++ {
		if sqe := b.ring.NextSlot(); sqe != nil {
			return sqe
		}
		b.flush()
		time.Sleep(b.e.cfg.RetryDelay)
	}
	return nil
}

// submitBatch fills one slot per request, flushing every BatchSize slots and
// after the last one. Requests that never reach the kernel are reported to
// the handler with BusyCode once the submit side is released.
func submitBatch[T request](e *Engine, kind opKind, reqs []T) error {
	if e == nil {
		return errors.Wrap(ErrInvalidArgument, "nil engine")
	}
	if !e.supported {
		return ErrNotSupported
	}
	if reqs == nil {
		return errors.Wrap(ErrInvalidArgument, "nil batch")
	}
	span := e.tracer.Start(fmt.Sprintf("%s%d", kind, len(reqs)))
	defer span.End()

	if !e.initialized.Load() {
		e.log.Error("hyperaio is not initialized")
		return ErrNotPermitted
	}
	if len(reqs) == 0 || uint64(len(reqs)) > uint64(e.cfg.Capacity) {
		return errors.Wrapf(ErrInvalidArgument, "batch of %d requests, capacity %d", len(reqs), e.cfg.Capacity)
	}
	for i := range reqs {
		if err := reqs[i].validate(); err != nil {
			return err
		}
	}

	e.sqMu.Lock()
	if !e.initialized.Load() {
		e.sqMu.Unlock()
		return ErrNotPermitted
	}
	h := e.handler
	b := &batch{
		e:       e,
		ring:    e.ring,
		counter: e.counter(kind),
		pending: make([]uint64, 0, e.cfg.BatchSize),
	}
	for i := range reqs {
		item := e.tracer.Start(kind.String() + "Item")
		sqe := b.acquire()
		if sqe == nil {
			item.End()
			// The slot attempts already flushed everything pending.
			e.log.WithField("remaining", len(reqs)-i).Error("get sqe failed")
			for _, r := range reqs[i:] {
				b.failed = append(b.failed, r.token())
			}
			break
		}
		token := reqs[i].token()
		e.pins.pin(token, reqs[i].prep(sqe))
		b.pending = append(b.pending, token)
		if uint32(len(b.pending)) >= e.cfg.BatchSize || i == len(reqs)-1 {
			b.flush()
		}
		item.End()
	}
	e.sqMu.Unlock()

	e.reportFailed(h, b.failed, BusyCode)
	return nil
}
