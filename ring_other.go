//go:build !linux
// +build !linux

package hyperaio

const ringSupported = false

// NewRing always fails with ErrNotSupported outside of linux.
func NewRing(entries uint32) (Ring, error) {
	return nil, ErrNotSupported
}

// Probe always fails with ErrNotSupported outside of linux.
func Probe() (Params, error) {
	return Params{}, ErrNotSupported
}
