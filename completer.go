package hyperaio

import (
	"time"

	"github.com/pkg/errors"
)

// harvest delivers completions from ring to h until the stop flag is set,
// then delivers what the ring already holds and closes done.
func (e *Engine) harvest(ring Ring, h Handler, done chan struct{}) {
	defer close(done)
	log := e.log.WithField("goroutine", "harvester")
	for !e.stop.Load() {
		c, err := ring.WaitCompletion(e.cfg.HarvestTimeout)
		if err != nil {
			if errors.Cause(err) != ErrWaitTimeout {
				log.WithError(err).Debug("wait cqe failed")
				// Keep a persistent ring error from spinning.
				time.Sleep(e.cfg.RetryDelay)
			}
			continue
		}
		e.deliver(h, c)
	}

	drained := 0
	for {
		c, ok := ring.PeekCompletion()
		if !ok {
			break
		}
		e.deliver(h, c)
		drained++
	}
	if drained > 0 {
		log.WithField("count", drained).Debug("drained completions")
	}
}

func (e *Engine) deliver(h Handler, c Completion) {
	e.harvested.Add(1)
	e.pins.release(c.Token)
	h.HandleCompletion(c)
}
