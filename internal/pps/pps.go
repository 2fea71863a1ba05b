// Package pps timestamps the receiver's pulse-per-second output.
package pps

import (
	"sync/atomic"
	"time"
)

// Watcher records the wall time of each rising PPS edge.
type Watcher struct {
	last   atomic.Int64 // unix nanos, 0 until the first pulse
	pulses atomic.Uint64
	closer func() error
}

func (w *Watcher) mark(t time.Time) {
	w.last.Store(t.UnixNano())
	w.pulses.Add(1)
}

// LastPulse returns the time of the latest edge, zero when none was seen.
func (w *Watcher) LastPulse() time.Time {
	if w == nil {
		return time.Time{}
	}
	n := w.last.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func (w *Watcher) Pulses() uint64 {
	if w == nil {
		return 0
	}
	return w.pulses.Load()
}

func (w *Watcher) Close() error {
	if w == nil || w.closer == nil {
		return nil
	}
	err := w.closer()
	w.closer = nil
	return err
}
