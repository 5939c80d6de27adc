package hyperaio

import (
	"os"
	"strconv"
	"strings"
)

// PermRing is set in the QuerySupport result when ring I/O is permitted.
const PermRing uint32 = 1 << 0

// PermissionGate decides whether the caller may use io_uring.
type PermissionGate interface {
	Allowed() bool
}

// GateFunc adapts a function to a PermissionGate.
type GateFunc func() bool

// Allowed implements the PermissionGate interface.
func (f GateFunc) Allowed() bool { return f() }

const (
	sysctlDisabled = "/proc/sys/kernel/io_uring_disabled"
	sysctlGroup    = "/proc/sys/kernel/io_uring_group"
)

// SysctlGate applies the kernel.io_uring_disabled policy: 0 allows every
// process, 1 allows root and members of kernel.io_uring_group, 2 denies.
// Kernels without the sysctl allow everyone.
type SysctlGate struct {
	// Root overrides /proc/sys for tests.
	Root string
}

// Allowed implements the PermissionGate interface.
func (g SysctlGate) Allowed() bool {
	if !ringSupported {
		return false
	}
	mode, err := g.readInt(sysctlDisabled)
	if os.IsNotExist(err) {
		return true
	}
	if err != nil {
		return false
	}
	switch mode {
	case 0:
		return true
	case 1:
		if os.Geteuid() == 0 {
			return true
		}
		gid, err := g.readInt(sysctlGroup)
		if err != nil || gid < 0 {
			return false
		}
		groups, err := os.Getgroups()
		if err != nil {
			return false
		}
		if os.Getegid() == gid {
			return true
		}
		for _, group := range groups {
			if group == gid {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (g SysctlGate) readInt(path string) (int, error) {
	b, err := os.ReadFile(g.Root + path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}
