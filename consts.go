package hyperaio

// See uapi/linux/io_uring.h

// Opcode is an opcode for the ring.
type Opcode uint8

const (
	// SetupSyscall defines the syscall number for io_uring_setup.
	SetupSyscall = 425
	// EnterSyscall defines the syscall number for io_uring_enter.
	EnterSyscall = 426
)

const (
	Nop         Opcode = 0
	AsyncCancel Opcode = 14
	Openat      Opcode = 18
	Read        Opcode = 22

	/*
	 * Magic offsets for the application to mmap the data it needs
	 */

	// SqRingOffset is the offset of the submission queue.
	SqRingOffset int64 = 0
	// CqRingOffset is the offset of the completion queue.
	CqRingOffset int64 = 0x8000000
	// SqeSOffset is the offset of the submission queue entries.
	SqeSOffset int64 = 0x10000000

	/*
	 * io_uring_enter(2) flags
	 */

	// EnterGetEvents waits for completions.
	EnterGetEvents uint = (1 << 0)
	// EnterSqWakeup wakes the SQ poll thread.
	EnterSqWakeup uint = (1 << 1)
	// EnterSqWait waits for SQ space.
	EnterSqWait uint = (1 << 2)
	// EnterExtArg passes an io_uring_getevents_arg instead of a sigset.
	EnterExtArg uint = (1 << 3)

	/*
	 * io_uring_params->features flags
	 */

	FeatSingleMmap     uint32 = (1 << 0)
	FeatNoDrop         uint32 = (1 << 1)
	FeatSubmitStable   uint32 = (1 << 2)
	FeatRwCurPos       uint32 = (1 << 3)
	FeatCurPersonality uint32 = (1 << 4)
	FeatFastPoll       uint32 = (1 << 5)
	FeatPoll32Bits     uint32 = (1 << 6)
	FeatSqpollNonfixed uint32 = (1 << 7)
	FeatExtArg         uint32 = (1 << 8)
)

var featureNames = []struct {
	flag uint32
	name string
}{
	{FeatSingleMmap, "single_mmap"},
	{FeatNoDrop, "nodrop"},
	{FeatSubmitStable, "submit_stable"},
	{FeatRwCurPos, "rw_cur_pos"},
	{FeatCurPersonality, "cur_personality"},
	{FeatFastPoll, "fast_poll"},
	{FeatPoll32Bits, "poll_32bits"},
	{FeatSqpollNonfixed, "sqpoll_nonfixed"},
	{FeatExtArg, "ext_arg"},
}

// FeatureNames returns the names of the feature bits set in features.
func FeatureNames(features uint32) []string {
	var names []string
	for _, f := range featureNames {
		if features&f.flag != 0 {
			names = append(names, f.name)
		}
	}
	return names
}
