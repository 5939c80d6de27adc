package hyperaio

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// fakeRing is an instrumented Ring. Filled slots are echoed back as
// completions carrying the SQE length as result.
type fakeRing struct {
	mu sync.Mutex
	// slotLimit is the number of slots handed out before NextSlot starts
	// returning nil, negative for no limit.
	slotLimit int
	handed    int
	// failSubmit decides whether the nth Submit call (from 1) fails.
	failSubmit func(n int) error
	submits    int
	filled     []*SubmitEntry
	submitted  []SubmitEntry
	// onSubmit sees every entry handed to the kernel, while the engine
	// still holds its pins.
	onSubmit func(SubmitEntry)
	closed   bool

	completions chan Completion
}

func newFakeRing() *fakeRing {
	return &fakeRing{
		slotLimit:   -1,
		completions: make(chan Completion, 4096),
	}
}

func (r *fakeRing) NextSlot() *SubmitEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slotLimit >= 0 && r.handed >= r.slotLimit {
		return nil
	}
	r.handed++
	sqe := &SubmitEntry{}
	sqe.Reset()
	r.filled = append(r.filled, sqe)
	return sqe
}

func (r *fakeRing) Submit() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submits++
	filled := r.filled
	r.filled = nil
	if r.failSubmit != nil {
		if err := r.failSubmit(r.submits); err != nil {
			return 0, err
		}
	}
	for _, sqe := range filled {
		r.submitted = append(r.submitted, *sqe)
		if r.onSubmit != nil {
			r.onSubmit(*sqe)
		}
		r.completions <- Completion{Token: sqe.UserData, Res: int32(sqe.Len)}
	}
	return len(filled), nil
}

func (r *fakeRing) WaitCompletion(timeout time.Duration) (Completion, error) {
	select {
	case c := <-r.completions:
		return c, nil
	case <-time.After(timeout):
		return Completion{}, ErrWaitTimeout
	}
}

func (r *fakeRing) PeekCompletion() (Completion, bool) {
	select {
	case c := <-r.completions:
		return c, true
	default:
		return Completion{}, false
	}
}

func (r *fakeRing) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *fakeRing) submitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submits
}

func (r *fakeRing) entries() []SubmitEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SubmitEntry(nil), r.submitted...)
}

func (r *fakeRing) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// testEngine returns an Engine backed by ring with a silent logger. The
// returned hook records every log entry.
func testEngine(t *testing.T, ring Ring, opts ...Option) (*Engine, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.TraceLevel)
	base := []Option{
		WithLogger(log),
		WithTracer(NopTracer{}),
		WithHarvestTimeout(10 * time.Millisecond),
		WithRetryDelay(time.Millisecond),
		WithRingFactory(func(uint32) (Ring, error) { return ring, nil }),
	}
	e := New(append(base, opts...)...)
	t.Cleanup(func() { require.NoError(t, e.Destroy()) })
	return e, hook
}

func TestFakeRingEcho(t *testing.T) {
	r := newFakeRing()
	r.slotLimit = 1
	sqe := r.NextSlot()
	require.NotNil(t, sqe)
	require.Equal(t, int32(-1), sqe.Fd)
	sqe.prepNop(7)
	require.Nil(t, r.NextSlot())

	n, err := r.Submit()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	c, err := r.WaitCompletion(time.Second)
	require.NoError(t, err)
	require.Equal(t, uint64(7), c.Token)

	_, err = r.WaitCompletion(time.Millisecond)
	require.Equal(t, ErrWaitTimeout, err)
}
