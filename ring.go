package hyperaio

import (
	"time"
)

// Ring is the submission/completion queue pair the engine drives. The
// submit side (NextSlot, Submit) is used by one goroutine at a time, the
// completion side (WaitCompletion) only by the harvester.
type Ring interface {
	// NextSlot returns a zeroed SQE to fill, or nil when the submit queue
	// is full.
	NextSlot() *SubmitEntry
	// Submit hands every filled slot to the kernel.
	Submit() (int, error)
	// WaitCompletion blocks until a completion is available and marks it
	// seen. A timeout > 0 bounds the wait when the ring supports it, in
	// which case ErrWaitTimeout is returned on expiry.
	WaitCompletion(timeout time.Duration) (Completion, error)
	// PeekCompletion returns an already posted completion without
	// blocking, marking it seen.
	PeekCompletion() (Completion, bool)
	// Close releases the ring. It must not be called while WaitCompletion
	// is running.
	Close() error
}

// RingFactory creates a Ring holding entries submission slots.
type RingFactory func(entries uint32) (Ring, error)
