package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"nmeafix/internal/fix"
	"nmeafix/internal/nmea"
	"nmeafix/internal/replay"
)

type captureSummary struct {
	Segments    int
	Chunks      int
	Bytes       int
	MaxDuration time.Duration
	Sentences   map[string]int
	Stats       nmea.Stats
	Fixes       int
	ValidFixes  int
	Last        *fix.Report
}

// summarizeCapture runs every recorded byte through a fresh decoder.
func summarizeCapture(records []replay.Record, opts nmea.Options) (captureSummary, error) {
	s := captureSummary{Sentences: map[string]int{}}

	// The summary reads fixes itself, so it always polls.
	opts.Processing = nmea.Polling
	d, err := nmea.New(opts)
	if err != nil {
		return s, err
	}

	origin := time.Duration(0)
	hasData := false
	segments := 0
	var last fix.Fix
	haveLast := false

	for _, r := range records {
		if r.IsStart() {
			segments++
			origin = r.At
			continue
		}
		hasData = true
		s.Chunks++
		s.Bytes += len(r.Data)
		if at := r.At - origin; at > s.MaxDuration {
			s.MaxDuration = at
		}

		for _, c := range r.Data {
			if d.Handle(c) != nmea.Completed {
				continue
			}
			s.Sentences[d.Name(d.Message())]++
			for d.Available() > 0 {
				f, ok := d.Read()
				if !ok {
					break
				}
				s.Fixes++
				if f.Valid.Location() && f.Status >= fix.StatusStandard {
					s.ValidFixes++
				}
				last = f
				haveLast = true
			}
			d.ClearOverrun()
		}
	}
	if segments == 0 && hasData {
		segments = 1
	}
	s.Segments = segments
	s.Stats = d.Stats()
	if haveLast {
		rep := last.Report()
		s.Last = &rep
	}
	return s, nil
}

func printCaptureSummary(w io.Writer, path string, opts nmea.Options) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	recs, err := replay.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := summarizeCapture(recs, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "chunks: %d\n", s.Chunks)
	fmt.Fprintf(w, "bytes: %d\n", s.Bytes)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)
	fmt.Fprintf(w, "checksum_errors: %d\n", s.Stats.ChecksumErrors)
	fmt.Fprintf(w, "framing_errors: %d\n", s.Stats.FramingErrors)
	fmt.Fprintf(w, "fixes: %d (valid %d)\n", s.Fixes, s.ValidFixes)

	names := make([]string, 0, len(s.Sentences))
	for n := range s.Sentences {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "sentences:\n")
	for _, n := range names {
		fmt.Fprintf(w, "  %s: %d\n", n, s.Sentences[n])
	}
	if s.Last != nil && s.Last.LatDeg != nil && s.Last.LonDeg != nil {
		fmt.Fprintf(w, "last_fix: %.7f,%.7f %s\n", *s.Last.LatDeg, *s.Last.LonDeg, s.Last.UTC)
	}
	return nil
}
