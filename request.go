package hyperaio

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const maxReadLen = math.MaxUint32

// AtFdcwd resolves an OpenRequest path relative to the working directory.
const AtFdcwd int32 = unix.AT_FDCWD

// ReadRequest reads len(Buf) bytes from Fd at Offset. Buf is owned by the
// caller and must not be reused until the completion for Token is observed.
type ReadRequest struct {
	Fd     int32
	Buf    []byte
	Offset uint64
	Token  uint64
}

// OpenRequest opens Path relative to Dirfd. The new descriptor is the
// result of the completion for Token.
type OpenRequest struct {
	Dirfd int32
	Flags int32
	Mode  uint32
	Path  string
	Token uint64
}

// CancelRequest cancels the in-flight request submitted with Target.
type CancelRequest struct {
	Token  uint64
	Target uint64
}

// request is a single batch item. validate runs before any slot is taken,
// prep fills sqe and returns the memory the kernel will touch, which is kept
// reachable until the request completes.
type request interface {
	token() uint64
	validate() error
	prep(sqe *SubmitEntry) (pin []byte)
}

func (r ReadRequest) token() uint64 { return r.Token }

func (r ReadRequest) validate() error {
	if uint64(len(r.Buf)) > maxReadLen {
		return errors.Wrapf(ErrInvalidArgument, "read length %d", len(r.Buf))
	}
	return nil
}

func (r ReadRequest) prep(sqe *SubmitEntry) []byte {
	sqe.prepRead(r.Fd, r.Buf, r.Offset, r.Token)
	return r.Buf
}

func (r OpenRequest) token() uint64 { return r.Token }

func (r OpenRequest) validate() error {
	if strings.IndexByte(r.Path, 0) >= 0 {
		return errors.Wrap(ErrInvalidArgument, "path contains NUL byte")
	}
	return nil
}

func (r OpenRequest) prep(sqe *SubmitEntry) []byte {
	path := append([]byte(r.Path), 0)
	sqe.prepOpenat(r.Dirfd, path, r.Flags, r.Mode, r.Token)
	return path
}

func (r CancelRequest) token() uint64 { return r.Token }

func (r CancelRequest) validate() error { return nil }

func (r CancelRequest) prep(sqe *SubmitEntry) []byte {
	sqe.prepCancel(r.Target, 0, r.Token)
	return nil
}
