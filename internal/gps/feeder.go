package gps

import (
	"fmt"
	"sync"
	"time"

	"nmeafix/internal/fix"
	"nmeafix/internal/nmea"
)

// feeder moves bytes into the decoder and fixes out of it. In polling
// style the reader goroutine drains after every sentence; in interrupt
// style a separate consumer calls drain on a timer.
type feeder struct {
	dec       *nmea.Decoder
	sinks     []Sink
	interrupt bool
	now       func() time.Time

	// drainMu keeps one reader at a time so fixes reach the sinks in order.
	drainMu sync.Mutex

	mu         sync.Mutex
	fixes      uint64
	overruns   uint64
	sinkErrors uint64
	last       fix.Fix
	haveLast   bool
	lastAt     time.Time
	lastErr    string
}

func newFeeder(dec *nmea.Decoder, style nmea.Processing, sinks []Sink) *feeder {
	return &feeder{dec: dec, sinks: sinks, interrupt: style == nmea.Interrupt, now: time.Now}
}

// handle feeds p and reports whether any sentence completed.
func (f *feeder) handle(p []byte) bool {
	completed := false
	for _, c := range p {
		if f.dec.Handle(c) != nmea.Completed {
			continue
		}
		completed = true
		if !f.interrupt {
			f.drain()
		}
	}
	return completed
}

// drain publishes every fix the decoder has ready and returns how many.
func (f *feeder) drain() int {
	f.drainMu.Lock()
	defer f.drainMu.Unlock()

	n := 0
	for f.dec.Available() > 0 {
		fx, ok := f.dec.Read()
		if !ok {
			break
		}
		f.publish(fx)
		n++
	}
	if f.dec.Overrun() {
		f.dec.ClearOverrun()
		f.mu.Lock()
		f.overruns++
		f.mu.Unlock()
	}
	return n
}

func (f *feeder) publish(fx fix.Fix) {
	var errs []string
	for _, s := range f.sinks {
		if err := s.PublishFix(fx); err != nil {
			errs = append(errs, fmt.Sprintf("sink %T: %v", s, err))
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixes++
	f.last = fx
	f.haveLast = true
	f.lastAt = f.now().UTC()
	if len(errs) > 0 {
		f.sinkErrors += uint64(len(errs))
		f.lastErr = errs[len(errs)-1]
	}
}

// fill copies the feeder's view into snap.
func (f *feeder) fill(snap *Snapshot) {
	st := f.dec.Stats()
	snap.Stats = st
	snap.Satellites = f.dec.Satellites()

	f.mu.Lock()
	defer f.mu.Unlock()
	snap.Fixes = f.fixes
	snap.Overruns = f.overruns
	snap.SinkErrors = f.sinkErrors
	if f.lastErr != "" {
		snap.LastError = f.lastErr
	}
	if f.haveLast {
		r := f.last.Report()
		snap.Fix = &r
		snap.Valid = f.last.Valid.Location() && f.last.Valid.Status() && f.last.Status >= fix.StatusStandard
		snap.LastFixUTC = f.lastAt.Format(time.RFC3339Nano)
	}
}
