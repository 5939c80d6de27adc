package hyperaio

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Engine batches open, read and cancel requests into an io_uring and
// delivers every completion to a Handler from a single harvester goroutine.
//
// Every request of a batch accepted by a Submit method produces exactly one
// completion: the kernel's, or a synthesized one with Res == BusyCode when
// the request could not be handed to the kernel.
type Engine struct {
	cfg     Config
	log     logrus.FieldLogger
	tracer  Tracer
	gate    PermissionGate
	newRing RingFactory
	// supported is false when no ring can exist on this platform.
	supported bool

	// sqMu serializes use of the submit side of the ring.
	sqMu        sync.Mutex
	ring        Ring
	handler     Handler
	initialized atomic.Bool
	stop        atomic.Bool
	done        chan struct{}
	pins        pinTable

	opened    atomic.Uint64
	read      atomic.Uint64
	cancelled atomic.Uint64
	harvested atomic.Uint64
}

// New returns an uninitialized Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:       DefaultConfig(),
		gate:      SysctlGate{},
		newRing:   NewRing,
		supported: ringSupported,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logrus.StandardLogger().WithField("component", "hyperaio")
	}
	if e.tracer == nil {
		e.tracer = LogTracer{Log: e.log}
	}
	return e
}

// QuerySupport returns PermRing when the caller may use io_uring. It does
// not depend on the engine state.
func (e *Engine) QuerySupport() uint32 {
	span := e.tracer.Start("QuerySupport")
	defer span.End()

	var flags uint32
	if e.gate.Allowed() {
		flags |= PermRing
	} else {
		e.log.Error("no io_uring permission")
	}
	return flags
}

// Init creates the ring and starts the harvester delivering completions to
// h. Calling Init on an initialized engine is a no-op.
func (e *Engine) Init(h Handler) error {
	span := e.tracer.Start("Init")
	defer span.End()

	if !e.supported {
		return ErrNotSupported
	}
	if e.initialized.Load() {
		return nil
	}
	if isNilHandler(h) {
		e.log.Error("handler is nil")
		return errors.Wrap(ErrInvalidArgument, "nil handler")
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	ring, err := e.newRing(e.cfg.Capacity)
	if err != nil {
		e.log.WithError(err).Error("init io_uring failed")
		return err
	}

	e.sqMu.Lock()
	e.ring = ring
	e.handler = h
	e.sqMu.Unlock()

	e.stop.Store(false)
	e.done = make(chan struct{})
	go e.harvest(ring, h, e.done)
	e.initialized.Store(true)

	fields := logrus.Fields{"entries": e.cfg.Capacity}
	if f, ok := ring.(interface{ Features() uint32 }); ok {
		fields["features"] = FeatureNames(f.Features())
	}
	e.log.WithFields(fields).Info("init hyperaio success")
	return nil
}

// Destroy stops the harvester, waits for it to exit and closes the ring.
// Completions already posted to the ring when the harvester stops are
// still delivered. Requests completing after that are lost, so callers
// wanting every completion wait for them before calling Destroy.
// Calling Destroy on an engine that is not initialized is a no-op.
func (e *Engine) Destroy() error {
	span := e.tracer.Start("Destroy")
	defer span.End()

	if !e.supported {
		return ErrNotSupported
	}

	s := e.Stats()
	e.log.WithFields(logrus.Fields{
		"opened":    s.Opened,
		"read":      s.Read,
		"cancelled": s.Cancelled,
		"harvested": s.Harvested,
	}).Info("hyperaio counters")

	if !e.initialized.Load() {
		return nil
	}

	// No submission can start once initialized is cleared under sqMu.
	e.sqMu.Lock()
	e.initialized.Store(false)
	e.sqMu.Unlock()

	e.stop.Store(true)
	<-e.done

	e.sqMu.Lock()
	if err := e.ring.Close(); err != nil {
		e.log.WithError(err).Error("close io_uring failed")
	}
	e.ring = nil
	e.sqMu.Unlock()
	e.pins.reset()
	return nil
}

// SubmitOpenBatch submits openat(2) requests. The new descriptor is the
// result of each completion.
func (e *Engine) SubmitOpenBatch(reqs []OpenRequest) error {
	return submitBatch(e, opOpen, reqs)
}

// SubmitReadBatch submits positioned read(2) requests.
func (e *Engine) SubmitReadBatch(reqs []ReadRequest) error {
	return submitBatch(e, opRead, reqs)
}

// SubmitCancelBatch submits cancellations of in-flight requests.
func (e *Engine) SubmitCancelBatch(reqs []CancelRequest) error {
	return submitBatch(e, opCancel, reqs)
}

// Stats returns the counters accumulated over the engine's lifetime.
func (e *Engine) Stats() Stats {
	return Stats{
		Opened:    e.opened.Load(),
		Read:      e.read.Load(),
		Cancelled: e.cancelled.Load(),
		Harvested: e.harvested.Load(),
	}
}

// reportFailed delivers a synthesized completion with res for every token.
func (e *Engine) reportFailed(h Handler, tokens []uint64, res int32) {
	if len(tokens) == 0 {
		return
	}
	e.log.WithFields(logrus.Fields{
		"tokens": redactTokens(tokens),
		"res":    res,
	}).Error("requests not submitted")
	for _, token := range tokens {
		e.pins.release(token)
		h.HandleCompletion(Completion{Token: token, Res: res})
	}
}
