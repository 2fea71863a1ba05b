package nmea

import (
	"errors"
	"fmt"

	"nmeafix/internal/fix"
)

// Merging selects how the sentences of one interval become a stored fix.
type Merging uint8

const (
	// NoMerging stores the fix of the last sentence of each interval only.
	NoMerging Merging = iota
	// ExplicitMerging merges every sentence into a pending fix that is
	// stored when the interval ends.
	ExplicitMerging
	// ImplicitMerging lets the live fix accumulate across the interval and
	// stores a copy of it when the interval ends.
	ImplicitMerging
)

func (m Merging) String() string {
	switch m {
	case ExplicitMerging:
		return "explicit"
	case ImplicitMerging:
		return "implicit"
	default:
		return "none"
	}
}

// ParseMerging maps "none", "explicit" or "implicit".
func ParseMerging(s string) (Merging, error) {
	switch s {
	case "", "none":
		return NoMerging, nil
	case "explicit":
		return ExplicitMerging, nil
	case "implicit":
		return ImplicitMerging, nil
	}
	return NoMerging, fmt.Errorf("unknown merging %q", s)
}

// Processing selects who calls Handle relative to the fix consumer.
type Processing uint8

const (
	// Polling means one goroutine both feeds bytes and reads fixes.
	Polling Processing = iota
	// Interrupt means bytes are fed from one goroutine while another reads
	// fixes; the shared state is guarded by a mutex.
	Interrupt
)

func (p Processing) String() string {
	if p == Interrupt {
		return "interrupt"
	}
	return "polling"
}

// ParseProcessing maps "polling" or "interrupt".
func ParseProcessing(s string) (Processing, error) {
	switch s {
	case "", "polling":
		return Polling, nil
	case "interrupt":
		return Interrupt, nil
	}
	return Polling, fmt.Errorf("unknown processing %q", s)
}

// Options fix a decoder's behavior at construction time.
type Options struct {
	// Dialect defaults to Standard.
	Dialect Dialect
	// Parse lists the sentences whose fields are parsed. Other known
	// sentences are still recognized and counted. nil parses everything
	// the dialect has parsers for.
	Parse []MsgType
	// Fields is the set of fix fields collected. Zero means all.
	Fields fix.Valid

	Merging    Merging
	Accumulate bool
	// FixBuffer is the number of fixes queued for Read. Zero keeps no
	// copies: Read returns the live fix while the decoder is between
	// sentences.
	FixBuffer  int
	KeepNewest bool
	// LastSentence ends a reporting interval. Defaults to RMC.
	LastSentence MsgType

	// ChecksumOptional accepts CR or LF as the end of a sentence without
	// a "*hh" trailer.
	ChecksumOptional bool
	Processing       Processing
}

func (o Options) withDefaults() Options {
	if o.Dialect == nil {
		o.Dialect = Standard{}
	}
	if o.Fields == 0 {
		o.Fields = fix.AllFields
	}
	if o.LastSentence == MsgUnknown {
		o.LastSentence = MsgRMC
	}
	return o
}

func (o Options) validate() error {
	if o.FixBuffer < 0 {
		return errors.New("nmea: fix buffer must be >= 0")
	}
	if o.Merging == ImplicitMerging && !o.Accumulate {
		return errors.New("nmea: implicit merging requires accumulating fields")
	}
	if o.Merging == ExplicitMerging && o.FixBuffer < 1 {
		return errors.New("nmea: explicit merging requires a fix buffer of at least 1")
	}
	if o.Merging > ImplicitMerging {
		return fmt.Errorf("nmea: unknown merging %d", o.Merging)
	}
	if o.Processing > Interrupt {
		return fmt.Errorf("nmea: unknown processing %d", o.Processing)
	}
	if len(o.Dialect.Tables()) == 0 {
		return errors.New("nmea: dialect has no sentence tables")
	}
	if _, ok := NameOf(o.Dialect, o.LastSentence); !ok {
		return fmt.Errorf("nmea: last sentence %d is not known to the dialect", o.LastSentence)
	}
	return nil
}
