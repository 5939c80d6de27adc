package hyperaio

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Tracer brackets a labelled operation with start and end markers.
type Tracer interface {
	Start(label string) Span
}

// Span is a started trace scope.
type Span interface {
	End()
}

// NopTracer discards every span.
type NopTracer struct{}

// Start implements the Tracer interface.
func (NopTracer) Start(string) Span { return nopSpan{} }

type nopSpan struct{}

func (nopSpan) End() {}

// LogTracer emits spans as trace level log entries.
type LogTracer struct {
	Log logrus.FieldLogger
}

// Start implements the Tracer interface.
func (t LogTracer) Start(label string) Span {
	l := t.Log.WithField("span", label)
	l.Trace("start")
	return &logSpan{log: l, start: time.Now()}
}

type logSpan struct {
	log   logrus.FieldLogger
	start time.Time
}

func (s *logSpan) End() {
	s.log.WithField("elapsed", time.Since(s.start)).Trace("end")
}

// RedactToken formats a token for logs without revealing it, only the low
// 16 bits are kept.
func RedactToken(token uint64) string {
	return fmt.Sprintf("****%04x", token&0xffff)
}

func redactTokens(tokens []uint64) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = RedactToken(t)
	}
	return out
}
