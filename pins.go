package hyperaio

import "sync"

// pinTable keeps memory handed to the kernel reachable until the request
// owning it completes. Tokens are caller chosen and may repeat, pins for the
// same token are released in submission order.
type pinTable struct {
	mu   sync.Mutex
	pins map[uint64][][]byte
}

func (t *pinTable) pin(token uint64, b []byte) {
	if b == nil {
		return
	}
	t.mu.Lock()
	if t.pins == nil {
		t.pins = make(map[uint64][][]byte)
	}
	t.pins[token] = append(t.pins[token], b)
	t.mu.Unlock()
}

func (t *pinTable) release(token uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list, ok := t.pins[token]
	if !ok {
		return
	}
	if len(list) <= 1 {
		delete(t.pins, token)
		return
	}
	list[0] = nil
	t.pins[token] = list[1:]
}

func (t *pinTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, list := range t.pins {
		n += len(list)
	}
	return n
}

func (t *pinTable) reset() {
	t.mu.Lock()
	t.pins = nil
	t.mu.Unlock()
}
