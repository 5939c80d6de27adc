//go:build linux
// +build linux

package hyperaio

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupOrSkip creates a raw ring, skipping when the kernel refuses io_uring.
func setupOrSkip(t *testing.T, entries uint, p *Params) int {
	t.Helper()
	fd, err := Setup(entries, p)
	if err == syscall.ENOSYS || err == syscall.EPERM {
		t.Skipf("io_uring unavailable: %v", err)
	}
	require.NoError(t, err)
	return fd
}

func TestMmapRing(t *testing.T) {
	var p Params
	fd := setupOrSkip(t, 8, &p)
	defer syscall.Close(fd)

	var (
		cq CompletionQueue
		sq SubmitQueue
	)
	maps, err := MmapRing(fd, &p, &sq, &cq)
	require.NoError(t, err)

	require.Equal(t, uint32(8), *sq.Entries)
	require.Equal(t, uint32(7), *sq.Mask)
	require.Len(t, sq.Sqes, 8)
	require.Len(t, sq.Array, 8)
	require.Len(t, cq.Entries, int(p.CqEntries))
	require.Equal(t, *sq.Head, *sq.Tail)
	require.Equal(t, *cq.Head, *cq.Tail)

	require.NoError(t, maps.unmap())
}

func TestSetupInvalidSize(t *testing.T) {
	var p Params
	_, err := Setup(0, &p)
	if err == syscall.ENOSYS || err == syscall.EPERM {
		t.Skipf("io_uring unavailable: %v", err)
	}
	require.Equal(t, syscall.EINVAL, err)
}
