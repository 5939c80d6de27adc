//go:build linux
// +build linux

package hyperaio

import (
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// nsigBytes is the kernel sigset size (_NSIG / 8).
const nsigBytes = 8

// getEventsArg is struct io_uring_getevents_arg, passed with EnterExtArg.
type getEventsArg struct {
	Sigmask   uint64
	SigmaskSz uint32
	Pad       uint32
	Ts        uint64
}

// Enter is used to submit to the queue.
func Enter(fd int, toSubmit uint, minComplete uint, flags uint, sigset *unix.Sigset_t) (int, error) {
	return enter(fd, toSubmit, minComplete, flags, unsafe.Pointer(sigset), nsigBytes)
}

// enterTimeout waits for minComplete completions for at most ts.
func enterTimeout(fd int, toSubmit uint, minComplete uint, flags uint, ts *unix.Timespec) (int, error) {
	arg := getEventsArg{
		Ts: uint64(uintptr(unsafe.Pointer(ts))),
	}
	n, err := enter(fd, toSubmit, minComplete, flags|EnterExtArg, unsafe.Pointer(&arg), unsafe.Sizeof(arg))
	runtime.KeepAlive(ts)
	return n, err
}

func enter(fd int, toSubmit uint, minComplete uint, flags uint, arg unsafe.Pointer, argSz uintptr) (int, error) {
	res, _, errno := syscall.Syscall6(
		EnterSyscall,
		uintptr(fd),
		uintptr(toSubmit),
		uintptr(minComplete),
		uintptr(flags),
		uintptr(arg),
		argSz,
	)
	if errno != 0 {
		return 0, errno
	}
	return int(res), nil
}
