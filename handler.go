package hyperaio

import "reflect"

// Handler receives completions. It is called from the harvester goroutine
// for kernel completions and from the submitting goroutine for requests that
// never reached the ring, so it must be safe for concurrent use. A slow
// handler stalls every later completion.
type Handler interface {
	HandleCompletion(Completion)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(Completion)

// HandleCompletion implements the Handler interface.
func (f HandlerFunc) HandleCompletion(c Completion) {
	f(c)
}

// isNilHandler also catches nil pointers, funcs and the like stored in a
// non-nil interface.
func isNilHandler(h Handler) bool {
	if h == nil {
		return true
	}
	switch v := reflect.ValueOf(h); v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
