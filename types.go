package hyperaio

import (
	"sync/atomic"
	"syscall"
)

// Params are used to configured a io uring.
type Params struct {
	SqEntries    uint32
	CqEntries    uint32
	Flags        uint32
	SqThreadCPU  uint32
	SqThreadIdle uint32
	Features     uint32
	WqFd         uint32
	Resv         [3]uint32
	SqOffset     SQRingOffset
	CqOffset     CQRingOffset
}

// CQRingOffset describes the various completion queue offsets.
type CQRingOffset struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	Cqes        uint32
	Flags       uint32
	Resv1       uint32
	UserAddr    uint64
}

// SQRingOffset describes the various submit queue offets.
type SQRingOffset struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	UserAddr    uint64
}

// SubmitEntry is an IO submission data structure (Submission Queue Entry).
type SubmitEntry struct {
	Opcode      Opcode /* type of operation for this sqe */
	Flags       uint8  /* IOSQE_ flags */
	Ioprio      uint16 /* ioprio for the request */
	Fd          int32  /* file descriptor to do IO on */
	Offset      uint64 /* offset into file */
	Addr        uint64 /* pointer to buffer or iovecs */
	Len         uint32 /* buffer size or number of iovecs */
	UFlags      int32  /* union of various flags */
	UserData    uint64 /* data to be passed back at completion time */
	BufIndex    uint16 /* index into fixed buffers, if used */
	Personality uint16
	SpliceFdIn  int32
	Addr3       uint64
	_           uint64
}

// Reset is used to reset an SubmitEntry.
func (e *SubmitEntry) Reset() {
	*e = SubmitEntry{Fd: -1}
}

// SubmitQueue represents the submit queue ring buffer.
type SubmitQueue struct {
	Size    uint32
	Head    *uint32
	Tail    *uint32
	Mask    *uint32
	Entries *uint32
	Flags   *uint32
	Dropped *uint32
	Array   []uint32

	// Sqes must never be resized, it is mmap'd.
	Sqes []SubmitEntry

	// sqeHead and sqeTail track slots handed out but not yet flushed to
	// the kernel visible tail.
	sqeHead uint32
	sqeTail uint32
}

// CompletionEntry IO completion data structure (Completion Queue Entry).
type CompletionEntry struct {
	UserData uint64 /* sqe->data submission passed back */
	Res      int32  /* result code for this event */
	Flags    uint32
}

// CompletionQueue represents the completion queue ring buffer.
type CompletionQueue struct {
	Size     uint32
	Head     *uint32
	Tail     *uint32
	Mask     *uint32
	Overflow *uint32

	// Entries must never be resized, it is mmap'd.
	Entries []CompletionEntry
}

// nextSlot returns the next free SQE or nil when every entry is in use.
func (q *SubmitQueue) nextSlot() *SubmitEntry {
	head := atomic.LoadUint32(q.Head)
	next := q.sqeTail + 1
	if next-head > *q.Entries {
		return nil
	}
	sqe := &q.Sqes[q.sqeTail&*q.Mask]
	q.sqeTail = next
	sqe.Reset()
	return sqe
}

// flush publishes handed out SQEs to the kernel. It returns how many entries
// this call published and how many the kernel has yet to consume.
func (q *SubmitQueue) flush() (flushed, pending uint32) {
	mask := *q.Mask
	tail := *q.Tail
	for q.sqeHead != q.sqeTail {
		q.Array[tail&mask] = q.sqeHead & mask
		tail++
		q.sqeHead++
		flushed++
	}
	atomic.StoreUint32(q.Tail, tail)
	return flushed, tail - atomic.LoadUint32(q.Head)
}

// unflush takes back up to n of the most recently published entries the
// kernel has not consumed, freeing their slots.
func (q *SubmitQueue) unflush(n uint32) {
	tail := *q.Tail
	if unconsumed := tail - atomic.LoadUint32(q.Head); n > unconsumed {
		n = unconsumed
	}
	atomic.StoreUint32(q.Tail, tail-n)
	q.sqeHead -= n
	q.sqeTail -= n
}

// pop returns the oldest unseen completion, marking it seen.
func (q *CompletionQueue) pop() (CompletionEntry, bool) {
	head := atomic.LoadUint32(q.Head)
	if head == atomic.LoadUint32(q.Tail) {
		return CompletionEntry{}, false
	}
	cqe := q.Entries[head&*q.Mask]
	atomic.StoreUint32(q.Head, head+1)
	return cqe, true
}

// Completion is a single completion delivered to a Handler. It is either
// harvested from the ring or synthesized for a request that never reached
// the kernel.
type Completion struct {
	Token uint64
	Res   int32
	Flags uint32
}

// Err returns the errno carried by a negative result, or nil.
func (c Completion) Err() error {
	if c.Res >= 0 {
		return nil
	}
	return syscall.Errno(-c.Res)
}

// Stats are the running engine counters. They are never reset by Destroy.
type Stats struct {
	Opened    uint64
	Read      uint64
	Cancelled uint64
	Harvested uint64
}
