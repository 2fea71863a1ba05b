package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nmeafix/internal/gps"
)

// Metrics exposes decoder counters for Prometheus. Values are read from the
// GPS snapshot at scrape time.
type Metrics struct {
	reg *prometheus.Registry
}

func NewMetrics(snap func() gps.Snapshot) *Metrics {
	reg := prometheus.NewRegistry()

	counter := func(name, help string, v func(gps.Snapshot) uint64) {
		reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "nmeafix",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(v(snap())) }))
	}
	gauge := func(name, help string, v func(gps.Snapshot) float64) {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "nmeafix",
			Name:      name,
			Help:      help,
		}, func() float64 { return v(snap()) }))
	}

	counter("sentences_total", "Sentences received with a good checksum.",
		func(s gps.Snapshot) uint64 { return uint64(s.Stats.Sentences) })
	counter("checksum_errors_total", "Sentences dropped for a checksum mismatch.",
		func(s gps.Snapshot) uint64 { return uint64(s.Stats.ChecksumErrors) })
	counter("framing_errors_total", "Sentences dropped for bad framing.",
		func(s gps.Snapshot) uint64 { return uint64(s.Stats.FramingErrors) })
	counter("chars_total", "Bytes fed to the decoder.",
		func(s gps.Snapshot) uint64 { return uint64(s.Stats.Chars) })
	counter("fixes_total", "Fixes read from the decoder.",
		func(s gps.Snapshot) uint64 { return s.Fixes })
	counter("overruns_total", "Times the fix buffer overflowed.",
		func(s gps.Snapshot) uint64 { return s.Overruns })
	counter("sink_errors_total", "Fix publish failures across all sinks.",
		func(s gps.Snapshot) uint64 { return s.SinkErrors })

	gauge("fix_valid", "1 when the latest fix has a location and a usable status.",
		func(s gps.Snapshot) float64 {
			if s.Valid {
				return 1
			}
			return 0
		})
	gauge("satellites_in_view", "Satellites reported by GSV in the current interval.",
		func(s gps.Snapshot) float64 { return float64(len(s.Satellites)) })
	gauge("satellites_used", "Satellites used in the latest fix.",
		func(s gps.Snapshot) float64 {
			if s.Fix == nil || s.Fix.Satellites == nil {
				return 0
			}
			return float64(*s.Fix.Satellites)
		})

	return &Metrics{reg: reg}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
