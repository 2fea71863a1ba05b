package gps

import (
	"time"

	"nmeafix/internal/fix"
)

// Sink receives every fix read from the decoder.
type Sink interface {
	PublishFix(f fix.Fix) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f fix.Fix) error

func (fn SinkFunc) PublishFix(f fix.Fix) error { return fn(f) }

// PulseSource reports the last PPS edge seen, zero when none.
type PulseSource interface {
	LastPulse() time.Time
}
