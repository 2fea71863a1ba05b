package web

import (
	"sync/atomic"
	"time"

	"nmeafix/internal/gps"
)

type Status struct {
	startUnixNano int64
	gps           atomic.Value // func() gps.Snapshot
	outputs       atomic.Value // map[string]any
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.gps.Store(func() gps.Snapshot { return gps.Snapshot{} })
	s.outputs.Store(map[string]any{})
	return s
}

// SetGPS installs the source of GPS snapshots, usually (*gps.Service).Snapshot.
func (s *Status) SetGPS(fn func() gps.Snapshot) {
	if fn != nil {
		s.gps.Store(fn)
	}
}

// SetOutputs records static information about the configured fix sinks.
func (s *Status) SetOutputs(outputs map[string]any) {
	if outputs != nil {
		s.outputs.Store(outputs)
	}
}

func (s *Status) GPS() gps.Snapshot {
	return s.gps.Load().(func() gps.Snapshot)()
}

type StatusSnapshot struct {
	Service   string         `json:"service"`
	NowUTC    string         `json:"now_utc"`
	UptimeSec int64          `json:"uptime_sec"`
	GPS       gps.Snapshot   `json:"gps"`
	Outputs   map[string]any `json:"outputs"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()
	return StatusSnapshot{
		Service:   "nmeafix",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(start).Seconds()),
		GPS:       s.GPS(),
		Outputs:   s.outputs.Load().(map[string]any),
	}
}
