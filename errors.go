package hyperaio

import (
	"syscall"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument is returned for nil or oversized batches, a nil
	// handler or a malformed request.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotPermitted is returned when submitting to an engine that is not
	// initialized.
	ErrNotPermitted = errors.New("engine not initialized")
	// ErrNotSupported is returned on platforms without io_uring.
	ErrNotSupported = errors.New("io_uring not supported")
	// ErrWaitTimeout is returned by Ring.WaitCompletion when the timeout
	// expires before a completion arrives.
	ErrWaitTimeout = errors.New("wait for completion timed out")
	// ErrInvalidConfig is returned for out of range configuration values.
	ErrInvalidConfig = errors.New("invalid config")
)

// BusyCode is the result of a synthesized completion for a request that
// could not be handed to the kernel.
const BusyCode = -int32(syscall.EBUSY)

// ErrorCode maps an error returned by the engine to a negated errno, 0 for
// nil.
func ErrorCode(err error) int32 {
	if err == nil {
		return 0
	}
	switch cause := errors.Cause(err); cause {
	case ErrInvalidArgument, ErrInvalidConfig:
		return -int32(syscall.EINVAL)
	case ErrNotPermitted:
		return -int32(syscall.EPERM)
	case ErrNotSupported:
		return -int32(syscall.EOPNOTSUPP)
	case ErrWaitTimeout:
		return -int32(syscall.ETIME)
	default:
		if errno, ok := cause.(syscall.Errno); ok {
			return -int32(errno)
		}
	}
	return -int32(syscall.EIO)
}
