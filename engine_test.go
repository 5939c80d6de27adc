package hyperaio

import (
	"context"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestQuerySupport(t *testing.T) {
	e, _ := testEngine(t, newFakeRing(), WithPermissionGate(GateFunc(func() bool { return true })))
	require.Equal(t, PermRing, e.QuerySupport())

	e, hook := testEngine(t, newFakeRing(), WithPermissionGate(GateFunc(func() bool { return false })))
	require.Zero(t, e.QuerySupport())
	require.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestInitIdempotent(t *testing.T) {
	ring := newFakeRing()
	calls := 0
	e, _ := testEngine(t, ring, WithRingFactory(func(uint32) (Ring, error) {
		calls++
		return ring, nil
	}))
	c := NewCollector()
	require.NoError(t, e.Init(c))
	require.NoError(t, e.Init(c))
	require.Equal(t, 1, calls)

	require.NoError(t, e.SubmitReadBatch([]ReadRequest{{Fd: 3, Buf: make([]byte, 8), Token: 1}}))
	got, err := c.Wait(waitCtx(t), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got[0].Token)
}

func TestInitNilHandler(t *testing.T) {
	e, _ := testEngine(t, newFakeRing())
	err := e.Init(nil)
	require.Error(t, err)
	require.Equal(t, -int32(syscall.EINVAL), ErrorCode(err))

	var f HandlerFunc
	require.Error(t, e.Init(f))
	require.Equal(t, ErrNotPermitted, e.SubmitCancelBatch([]CancelRequest{{Token: 1}}))
}

func TestInitTypedNilHandler(t *testing.T) {
	e, _ := testEngine(t, newFakeRing())
	var c *Collector
	err := e.Init(c)
	require.Equal(t, -int32(syscall.EINVAL), ErrorCode(err))
	require.Equal(t, ErrNotPermitted, e.SubmitCancelBatch([]CancelRequest{{Token: 1}}))
}

func TestUnsupportedPlatform(t *testing.T) {
	log, _ := test.NewNullLogger()
	e := New(WithLogger(log), WithTracer(NopTracer{}))
	e.supported = false
	c := NewCollector()

	require.Equal(t, ErrNotSupported, e.Init(c))
	require.Equal(t, ErrNotSupported, e.SubmitOpenBatch([]OpenRequest{{Dirfd: AtFdcwd, Path: "/", Token: 1}}))
	require.Equal(t, ErrNotSupported, e.SubmitReadBatch([]ReadRequest{{Token: 2}}))
	require.Equal(t, ErrNotSupported, e.SubmitCancelBatch(nil))
	require.Equal(t, ErrNotSupported, e.Destroy())
	require.Equal(t, -int32(syscall.EOPNOTSUPP), ErrorCode(e.Destroy()))
	require.Zero(t, c.Received())
}

func TestInitRingError(t *testing.T) {
	e, hook := testEngine(t, nil, WithRingFactory(func(uint32) (Ring, error) {
		return nil, syscall.ENOMEM
	}))
	err := e.Init(NewCollector())
	require.Error(t, err)
	require.Equal(t, -int32(syscall.ENOMEM), ErrorCode(err))
	require.Equal(t, "init io_uring failed", hook.LastEntry().Message)
	require.Equal(t, ErrNotPermitted, e.SubmitReadBatch([]ReadRequest{{Token: 1}}))
}

func TestInitInvalidConfig(t *testing.T) {
	e, _ := testEngine(t, newFakeRing(), WithCapacity(3))
	err := e.Init(NewCollector())
	require.Equal(t, -int32(syscall.EINVAL), ErrorCode(err))
}

func TestDestroyIdempotent(t *testing.T) {
	ring := newFakeRing()
	e, _ := testEngine(t, ring)
	require.NoError(t, e.Destroy())

	require.NoError(t, e.Init(NewCollector()))
	require.NoError(t, e.Destroy())
	require.True(t, ring.isClosed())
	require.NoError(t, e.Destroy())
}

func TestSubmitNotInitialized(t *testing.T) {
	c := NewCollector()
	e, _ := testEngine(t, newFakeRing())
	require.Equal(t, ErrNotPermitted, e.SubmitOpenBatch([]OpenRequest{{Dirfd: AtFdcwd, Path: "/", Token: 1}}))
	require.Equal(t, ErrNotPermitted, e.SubmitReadBatch([]ReadRequest{{Token: 2}}))
	require.Equal(t, ErrNotPermitted, e.SubmitCancelBatch([]CancelRequest{{Token: 3}}))

	require.NoError(t, e.Init(c))
	require.NoError(t, e.Destroy())
	err := e.SubmitReadBatch([]ReadRequest{{Token: 4}})
	require.Equal(t, -int32(syscall.EPERM), ErrorCode(err))
	require.Zero(t, c.Received())
}

func TestSubmitArgumentRejection(t *testing.T) {
	c := NewCollector()
	e, _ := testEngine(t, newFakeRing(), WithCapacity(4), WithBatchSize(2))
	require.NoError(t, e.Init(c))

	for _, err := range []error{
		e.SubmitReadBatch(nil),
		e.SubmitOpenBatch(nil),
		e.SubmitCancelBatch(nil),
		e.SubmitReadBatch([]ReadRequest{}),
		e.SubmitCancelBatch(make([]CancelRequest, 5)),
		e.SubmitOpenBatch([]OpenRequest{{Path: "a\x00b", Token: 1}}),
	} {
		require.Equal(t, -int32(syscall.EINVAL), ErrorCode(err))
	}

	time.Sleep(20 * time.Millisecond)
	require.Zero(t, c.Received())
	require.Equal(t, Stats{}, e.Stats())
}

func TestSubmitNilEngine(t *testing.T) {
	var e *Engine
	require.Equal(t, -int32(syscall.EINVAL), ErrorCode(e.SubmitReadBatch(nil)))
	require.Equal(t, -int32(syscall.EINVAL), ErrorCode(e.SubmitReadBatch([]ReadRequest{{Token: 1}})))
}

func TestReinitAfterDestroy(t *testing.T) {
	ring := newFakeRing()
	e, _ := testEngine(t, ring)
	c := NewCollector()
	require.NoError(t, e.Init(c))
	require.NoError(t, e.SubmitCancelBatch([]CancelRequest{{Token: 1, Target: 9}}))
	_, err := c.Wait(waitCtx(t), 1)
	require.NoError(t, err)
	require.NoError(t, e.Destroy())

	require.NoError(t, e.Init(c))
	require.NoError(t, e.SubmitCancelBatch([]CancelRequest{{Token: 2, Target: 9}}))
	_, err = c.Wait(waitCtx(t), 1)
	require.NoError(t, err)
	require.NoError(t, e.Destroy())

	// Counters live as long as the engine.
	require.Equal(t, Stats{Cancelled: 2, Harvested: 2}, e.Stats())
}

func TestDestroyDeliversPosted(t *testing.T) {
	ring := newFakeRing()
	c := NewCollector()
	entered := make(chan struct{})
	var e *Engine
	var once sync.Once
	h := HandlerFunc(func(comp Completion) {
		once.Do(func() {
			close(entered)
			// Hold the harvester until Destroy asks it to stop.
			for !e.stop.Load() {
				time.Sleep(time.Millisecond)
			}
		})
		c.HandleCompletion(comp)
	})
	e, _ = testEngine(t, ring)
	require.NoError(t, e.Init(h))

	reqs := make([]ReadRequest, 5)
	for i := range reqs {
		reqs[i] = ReadRequest{Fd: 3, Buf: make([]byte, 8), Token: uint64(i)}
	}
	require.NoError(t, e.SubmitReadBatch(reqs))
	<-entered
	require.NoError(t, e.Destroy())

	require.Equal(t, int64(5), c.Received())
	got, err := c.Wait(waitCtx(t), 5)
	require.NoError(t, err)
	require.Equal(t, seq(0, 5), tokensOf(got))
	require.Equal(t, uint64(5), e.Stats().Harvested)
}

func TestDestroyLogsCounters(t *testing.T) {
	e, hook := testEngine(t, newFakeRing())
	require.NoError(t, e.Init(NewCollector()))
	require.NoError(t, e.Destroy())

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "hyperaio counters" {
			found = true
			require.Contains(t, entry.Data, "harvested")
		}
	}
	require.True(t, found)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
