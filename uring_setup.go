//go:build linux
// +build linux

package hyperaio

import (
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var (
	uint32Size = unsafe.Sizeof(uint32(0))
	cqeSize    = unsafe.Sizeof(CompletionEntry{})
	sqeSize    = unsafe.Sizeof(SubmitEntry{})
)

// Setup is used to setup a io_uring using the io_uring_setup syscall.
func Setup(entries uint, params *Params) (int, error) {
	fd, _, errno := syscall.Syscall(
		SetupSyscall,
		uintptr(entries),
		uintptr(unsafe.Pointer(params)),
		uintptr(0),
	)
	if errno != 0 {
		return 0, errno
	}
	return int(fd), nil
}

// ringMaps holds the mmap'd regions of a ring so they can be released.
type ringMaps struct {
	sq     []byte
	cq     []byte
	sqes   []byte
	single bool
}

func (m *ringMaps) unmap() error {
	regions := [][]byte{m.sqes, m.sq}
	// With a single mmap cq aliases sq.
	if !m.single {
		regions = append(regions, m.cq)
	}
	var firstErr error
	for _, b := range regions {
		if b == nil {
			continue
		}
		if err := unix.Munmap(b); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "failed to munmap ring")
		}
	}
	m.sq, m.cq, m.sqes = nil, nil, nil
	return firstErr
}

// MmapRing is used to configure the submit and completion queues, it should only
// be called after the Setup function has completed successfully.
// See:
// https://github.com/axboe/liburing/blob/master/src/setup.c#L22
func MmapRing(fd int, p *Params, sq *SubmitQueue, cq *CompletionQueue) (*ringMaps, error) {
	var (
		maps ringMaps
		err  error
	)
	singleMmap := p.Features&FeatSingleMmap != 0
	sq.Size = uint32(uint(p.SqOffset.Array) + (uint(p.SqEntries) * uint(uint32Size)))
	cq.Size = uint32(uint(p.CqOffset.Cqes) + (uint(p.CqEntries) * uint(cqeSize)))

	if singleMmap {
		if cq.Size > sq.Size {
			sq.Size = cq.Size
		} else {
			cq.Size = sq.Size
		}
	}

	maps.sq, err = unix.Mmap(
		fd,
		SqRingOffset,
		int(sq.Size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_POPULATE,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mmap sq ring")
	}
	maps.single = singleMmap
	if singleMmap {
		maps.cq = maps.sq
	} else {
		maps.cq, err = unix.Mmap(
			fd,
			CqRingOffset,
			int(cq.Size),
			unix.PROT_READ|unix.PROT_WRITE,
			unix.MAP_SHARED|unix.MAP_POPULATE,
		)
		if err != nil {
			maps.unmap()
			return nil, errors.Wrap(err, "failed to mmap cq ring")
		}
	}
	maps.sqes, err = unix.Mmap(
		fd,
		SqeSOffset,
		int(uintptr(p.SqEntries)*sqeSize),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_POPULATE,
	)
	if err != nil {
		maps.unmap()
		return nil, errors.Wrap(err, "failed to mmap sqes")
	}

	sqPtr := unsafe.Pointer(&maps.sq[0])
	sq.Head = (*uint32)(unsafe.Add(sqPtr, p.SqOffset.Head))
	sq.Tail = (*uint32)(unsafe.Add(sqPtr, p.SqOffset.Tail))
	sq.Mask = (*uint32)(unsafe.Add(sqPtr, p.SqOffset.RingMask))
	sq.Entries = (*uint32)(unsafe.Add(sqPtr, p.SqOffset.RingEntries))
	sq.Flags = (*uint32)(unsafe.Add(sqPtr, p.SqOffset.Flags))
	sq.Dropped = (*uint32)(unsafe.Add(sqPtr, p.SqOffset.Dropped))
	sq.Array = unsafe.Slice((*uint32)(unsafe.Add(sqPtr, p.SqOffset.Array)), p.SqEntries)
	sq.Sqes = unsafe.Slice((*SubmitEntry)(unsafe.Pointer(&maps.sqes[0])), p.SqEntries)

	cqPtr := unsafe.Pointer(&maps.cq[0])
	cq.Head = (*uint32)(unsafe.Add(cqPtr, p.CqOffset.Head))
	cq.Tail = (*uint32)(unsafe.Add(cqPtr, p.CqOffset.Tail))
	cq.Mask = (*uint32)(unsafe.Add(cqPtr, p.CqOffset.RingMask))
	cq.Overflow = (*uint32)(unsafe.Add(cqPtr, p.CqOffset.Overflow))
	cq.Entries = unsafe.Slice((*CompletionEntry)(unsafe.Add(cqPtr, p.CqOffset.Cqes)), p.CqEntries)

	return &maps, nil
}
