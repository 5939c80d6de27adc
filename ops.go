package hyperaio

import (
	"unsafe"
)

// prepRead prepares a positioned read(2) of len(b) bytes at offset.
func (e *SubmitEntry) prepRead(fd int32, b []byte, offset uint64, userData uint64) {
	e.Opcode = Read
	e.UserData = userData
	e.Fd = fd
	e.Len = uint32(len(b))
	e.Offset = offset
	if len(b) > 0 {
		e.Addr = (uint64)(uintptr(unsafe.Pointer(&b[0])))
	}
}

// prepOpenat prepares an openat(2). path must be NUL terminated and stay
// reachable until the completion is harvested.
func (e *SubmitEntry) prepOpenat(dirfd int32, path []byte, flags int32, mode uint32, userData uint64) {
	e.Opcode = Openat
	e.UserData = userData
	e.Fd = dirfd
	e.Addr = (uint64)(uintptr(unsafe.Pointer(&path[0])))
	e.Len = mode
	e.UFlags = flags
}

// prepCancel prepares an async cancel of the request carrying target.
func (e *SubmitEntry) prepCancel(target uint64, flags int32, userData uint64) {
	e.Opcode = AsyncCancel
	e.UserData = userData
	e.Fd = -1
	e.Addr = target
	e.UFlags = flags
}

// prepNop prepares a nop.
func (e *SubmitEntry) prepNop(userData uint64) {
	e.Opcode = Nop
	e.UserData = userData
	e.Fd = -1
}
