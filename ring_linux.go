//go:build linux
// +build linux

package hyperaio

import (
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const ringSupported = true

// uring is the kernel backed Ring.
type uring struct {
	fd   int
	p    Params
	sq   SubmitQueue
	cq   CompletionQueue
	maps *ringMaps
}

var _ Ring = (*uring)(nil)

// NewRing creates a kernel io_uring with the given number of submission
// entries.
func NewRing(entries uint32) (Ring, error) {
	return newURing(entries)
}

func newURing(entries uint32) (*uring, error) {
	r := &uring{}
	fd, err := Setup(uint(entries), &r.p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to setup ring")
	}
	maps, err := MmapRing(fd, &r.p, &r.sq, &r.cq)
	if err != nil {
		syscall.Close(fd)
		return nil, err
	}
	r.fd = fd
	r.maps = maps
	return r, nil
}

// Probe sets up a single entry ring and returns the parameters the kernel
// filled in.
func Probe() (Params, error) {
	r, err := newURing(1)
	if err != nil {
		return Params{}, err
	}
	p := r.p
	return p, r.Close()
}

// NextSlot implements the Ring interface.
func (r *uring) NextSlot() *SubmitEntry {
	return r.sq.nextSlot()
}

// Submit implements the Ring interface. Entries published by a failed call
// are taken back so that they never complete.
func (r *uring) Submit() (int, error) {
	flushed, toSubmit := r.sq.flush()
	if toSubmit == 0 {
		return 0, nil
	}
	n, err := Enter(r.fd, uint(toSubmit), 0, 0, nil)
	if err != nil {
		r.sq.unflush(flushed)
		return 0, errors.Wrap(err, "failed to enter ring")
	}
	return n, nil
}

// WaitCompletion implements the Ring interface. Without IORING_FEAT_EXT_ARG
// a bounded wait falls back to polling the completion queue.
func (r *uring) WaitCompletion(timeout time.Duration) (Completion, error) {
	if timeout > 0 && r.p.Features&FeatExtArg == 0 {
		return r.pollCompletion(timeout)
	}
	expired := false
	for {
		if cqe, ok := r.cq.pop(); ok {
			return Completion{Token: cqe.UserData, Res: cqe.Res, Flags: cqe.Flags}, nil
		}
		// Checked after pop, a completion may have raced the timer.
		if expired {
			return Completion{}, ErrWaitTimeout
		}
		var err error
		if timeout > 0 {
			ts := unix.NsecToTimespec(timeout.Nanoseconds())
			_, err = enterTimeout(r.fd, 0, 1, EnterGetEvents, &ts)
		} else {
			_, err = Enter(r.fd, 0, 1, EnterGetEvents, nil)
		}
		switch err {
		case nil, syscall.EINTR:
		case syscall.ETIME:
			expired = true
		default:
			return Completion{}, errors.Wrap(err, "failed to wait for completion")
		}
	}
}

// PeekCompletion implements the Ring interface.
func (r *uring) PeekCompletion() (Completion, bool) {
	cqe, ok := r.cq.pop()
	if !ok {
		return Completion{}, false
	}
	return Completion{Token: cqe.UserData, Res: cqe.Res, Flags: cqe.Flags}, true
}

const pollInterval = time.Millisecond

func (r *uring) pollCompletion(timeout time.Duration) (Completion, error) {
	deadline := time.Now().Add(timeout)
	for {
		if cqe, ok := r.cq.pop(); ok {
			return Completion{Token: cqe.UserData, Res: cqe.Res, Flags: cqe.Flags}, nil
		}
		if time.Now().After(deadline) {
			return Completion{}, ErrWaitTimeout
		}
		time.Sleep(pollInterval)
	}
}

// Close implements the Ring interface.
func (r *uring) Close() error {
	if r.maps == nil {
		return nil
	}
	if err := r.maps.unmap(); err != nil {
		return err
	}
	r.maps = nil
	return syscall.Close(r.fd)
}

// Features returns the feature flags reported by the kernel.
func (r *uring) Features() uint32 {
	return r.p.Features
}
