package nmea

import (
	"sync"

	"nmeafix/internal/fix"
)

type state uint8

const (
	stateIdle state = iota
	stateHeader
	stateData
	stateCRC
)

// Decoder turns a stream of NMEA bytes into fixes. Feed it with Handle
// (or Decode for sentence-level use) and drain it with Available/Read.
//
// With Polling processing a Decoder must be used from one goroutine. With
// Interrupt processing Handle may run concurrently with the reading
// methods.
type Decoder struct {
	opts    Options
	dialect Dialect
	talkers TalkerFilter
	mfrs    MfrFilter
	recog   recognizer
	propOK  bool
	parse   [256]bool
	keep    fix.Valid

	mu sync.Mutex

	state       state
	crc         byte
	msg         MsgType
	fields      []FieldParser
	fieldIndex  int
	ctx         fieldContext
	proprietary bool
	talker      [talkerIDLen]byte
	mfr         [mfrIDLen]byte
	intervalEnd bool

	live  fix.Fix
	store fixStore

	// What the sentence in progress has changed, so an abort can undo it.
	before     fix.Valid
	touched    fix.Valid
	satsBefore int
	satsReset  bool

	sats     [MaxSatellites]SatelliteView
	satCount int

	stats Stats
}

// New builds a decoder. Options cannot change afterwards.
func New(opts Options) (*Decoder, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	d := &Decoder{
		opts:    opts,
		dialect: opts.Dialect,
		keep:    opts.Fields,
		store:   newFixStore(opts.FixBuffer, opts.Merging, opts.KeepNewest),
	}
	d.recog.tables = opts.Dialect.Tables()
	d.propOK = d.recog.hasProprietary()
	d.talkers, _ = opts.Dialect.(TalkerFilter)
	d.mfrs, _ = opts.Dialect.(MfrFilter)
	if opts.Parse == nil {
		for t := range d.parse {
			d.parse[t] = t != int(MsgUnknown)
		}
	} else {
		for _, t := range opts.Parse {
			d.parse[t] = true
		}
	}
	return d, nil
}

func (d *Decoder) lock() {
	if d.opts.Processing == Interrupt {
		d.mu.Lock()
	}
}

func (d *Decoder) unlock() {
	if d.opts.Processing == Interrupt {
		d.mu.Unlock()
	}
}

func (d *Decoder) parses(t MsgType) bool { return d.parse[t] }

// Handle decodes c and stores a fix when it completes a reporting
// interval.
func (d *Decoder) Handle(c byte) Result {
	d.lock()
	defer d.unlock()

	res := d.decode(c)
	switch {
	case res == Completed:
		d.store.commit(&d.live, d.intervalEnd)
	case len(d.store.buf) == 0 && d.store.flag && !d.isSafe():
		// The unread fix is being overwritten by the next sentence.
		d.store.overrun = true
	}
	return res
}

// Decode runs the sentence state machine on c without storing fixes. The
// live fix is available through Fix once Completed is returned.
func (d *Decoder) Decode(c byte) Result {
	d.lock()
	defer d.unlock()
	return d.decode(c)
}

func (d *Decoder) decode(c byte) Result {
	d.stats.Chars++

	if c == '$' {
		d.sentenceBegin()
		return CharOK
	}

	switch d.state {
	case stateHeader:
		if c < ' ' || c > '~' {
			d.stats.FramingErrors++
			d.sentenceInvalid()
			return CharInvalid
		}
		d.crc ^= c
		switch d.parseCommand(c) {
		case CharOK:
			d.ctx.count++
		case Completed:
			d.headerReceived()
		default:
			d.sentenceUnrecognized()
			return CharInvalid
		}

	case stateData:
		switch {
		case c == '*':
			d.state = stateCRC
			d.ctx.count = 0
		case c >= ' ' && c <= '~':
			d.crc ^= c
			if !d.parseField(c) {
				d.sentenceInvalid()
				return CharInvalid
			}
			if c == ',' {
				d.fieldIndex++
				d.ctx.commaNeeded = false
				d.ctx.nextField()
			} else {
				d.ctx.count++
			}
		case d.opts.ChecksumOptional && (c == '\r' || c == '\n'):
			d.sentenceOK()
			return Completed
		default:
			d.stats.FramingErrors++
			d.sentenceInvalid()
			return CharInvalid
		}

	case stateCRC:
		n, ok := hexNibble(c)
		if d.ctx.count == 0 {
			if ok && n == d.crc>>4 {
				d.ctx.count++
				return CharOK
			}
		} else if ok && n == d.crc&0x0f {
			d.sentenceOK()
			return Completed
		}
		d.stats.ChecksumErrors++
		d.sentenceInvalid()
		return CharInvalid

	default:
		d.msg = MsgUnknown
		return CharInvalid
	}

	return CharOK
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// parseCommand handles the talker or manufacturer ID, then hands the
// sentence name to the recognizer.
func (d *Decoder) parseCommand(c byte) Result {
	pos := d.ctx.count
	if pos == 0 && c == 'P' && d.propOK {
		d.proprietary = true
		return CharOK
	}
	if d.proprietary {
		if pos <= mfrIDLen {
			if c == ',' {
				return CharInvalid
			}
			d.mfr[pos-1] = c
			if d.mfrs != nil && !d.mfrs.AcceptMfrID(d.mfr[:pos]) {
				return CharInvalid
			}
			return CharOK
		}
		pos -= mfrIDLen + 1
	} else {
		if pos < talkerIDLen {
			if c == ',' {
				return CharInvalid
			}
			d.talker[pos] = c
			if d.talkers != nil && !d.talkers.AcceptTalkerID(d.talker[:pos+1]) {
				return CharInvalid
			}
			return CharOK
		}
		pos -= talkerIDLen
	}

	if c == ',' {
		t, ok := d.recog.complete(pos, d.proprietary, d.mfr[:])
		if !ok {
			return CharInvalid
		}
		d.msg = t
		return Completed
	}
	return d.recog.step(pos, c, d.proprietary, d.mfr[:])
}

func (d *Decoder) parseField(c byte) bool {
	if d.fieldIndex < len(d.fields) {
		if p := d.fields[d.fieldIndex]; p != nil {
			return p(d, c)
		}
	}
	return true
}

func (d *Decoder) sentenceBegin() {
	d.abortSentence()
	if d.intervalEnd {
		d.intervalEnd = false
		d.satCount = 0
	}
	d.state = stateHeader
	d.crc = 0
	d.msg = MsgUnknown
	d.fields = nil
	d.fieldIndex = 0
	d.ctx = fieldContext{}
	d.proprietary = false
	d.talker = [talkerIDLen]byte{}
	d.mfr = [mfrIDLen]byte{}
	d.recog.reset()
}

func (d *Decoder) headerReceived() {
	if !d.opts.Accumulate {
		d.live.Valid.Clear()
	}
	d.before = d.live.Valid
	d.touched = 0
	d.satsBefore = d.satCount
	d.satsReset = false
	d.fieldIndex = 1
	d.ctx = fieldContext{}
	d.state = stateData
	d.selectFields()
}

func (d *Decoder) selectFields() {
	d.fields = nil
	if d.parses(d.msg) {
		d.fields = d.dialect.Fields(d.msg)
	}
}

func (d *Decoder) sentenceOK() {
	if d.ctx.commaNeeded {
		d.ctx.commaNeeded = false
		d.parseField(',')
	}
	d.stats.Sentences++
	d.intervalEnd = d.msg == d.opts.LastSentence
	d.state = stateIdle
}

// sentenceInvalid drops whatever the broken sentence contributed.
func (d *Decoder) sentenceInvalid() {
	d.abortSentence()
	d.live.Valid.Clear()
	d.sentenceUnrecognized()
}

func (d *Decoder) sentenceUnrecognized() {
	d.msg = MsgUnknown
	d.state = stateIdle
}

// abortSentence undoes a sentence cut short by a new '$' or Reset: every
// field it reparsed or newly validated goes back to invalid.
func (d *Decoder) abortSentence() {
	if d.state != stateData && d.state != stateCRC {
		return
	}
	d.live.Valid &^= d.touched | (d.live.Valid &^ d.before)
	d.touched = 0
	switch {
	case d.satsReset:
		d.satCount = 0
	case d.satCount > d.satsBefore:
		d.satCount = d.satsBefore
	}
	d.satsReset = false
}

// Ignore drops the rest of the sentence in progress as unsupported, as if
// its name had not been recognized. Dialects use it for sub-messages they
// do not parse.
func (d *Decoder) Ignore() {
	d.abortSentence()
	d.sentenceUnrecognized()
}

// SetMessage switches the type of the sentence being parsed. Dialects use
// it when a field selects a sub-message, as in "$PUBX,04".
func (d *Decoder) SetMessage(t MsgType) {
	d.msg = t
	d.selectFields()
}

func (d *Decoder) isSafe() bool { return d.state == stateIdle }

// IsSafe reports whether no sentence is in progress, so the live fix is
// not being modified.
func (d *Decoder) IsSafe() bool {
	d.lock()
	defer d.unlock()
	return d.isSafe()
}

// Available returns the number of fixes Read can return.
func (d *Decoder) Available() int {
	d.lock()
	defer d.unlock()
	return d.store.available()
}

// Read removes and returns the oldest stored fix.
func (d *Decoder) Read() (fix.Fix, bool) {
	d.lock()
	defer d.unlock()
	return d.store.read(&d.live, d.isSafe())
}

// Overrun reports whether a fix was dropped or overwritten before it was
// read.
func (d *Decoder) Overrun() bool {
	d.lock()
	defer d.unlock()
	return d.store.overrun
}

func (d *Decoder) ClearOverrun() {
	d.lock()
	d.store.overrun = false
	d.unlock()
}

// Fix returns a copy of the live fix.
func (d *Decoder) Fix() fix.Fix {
	d.lock()
	defer d.unlock()
	return d.live
}

// Live exposes the fix being built to dialect field parsers.
func (d *Decoder) Live() *fix.Fix { return &d.live }

// Reset abandons any sentence in progress.
func (d *Decoder) Reset() {
	d.lock()
	defer d.unlock()
	d.abortSentence()
	d.sentenceUnrecognized()
	d.ctx = fieldContext{}
	d.fields = nil
}

// ClearData forgets the live fix, stored fixes and satellites.
func (d *Decoder) ClearData() {
	d.lock()
	defer d.unlock()
	d.live.Init()
	d.store.reset()
	d.satCount = 0
	d.intervalEnd = false
}

func (d *Decoder) Stats() Stats {
	d.lock()
	defer d.unlock()
	return d.stats
}

// Message is the type of the sentence in progress or just completed.
func (d *Decoder) Message() MsgType {
	d.lock()
	defer d.unlock()
	return d.msg
}

// IntervalComplete reports whether the last completed sentence ended a
// reporting interval.
func (d *Decoder) IntervalComplete() bool {
	d.lock()
	defer d.unlock()
	return d.intervalEnd
}

// TalkerID is the talker of the current or last sentence ("GP", "GN").
// It is empty for proprietary sentences.
func (d *Decoder) TalkerID() string {
	d.lock()
	defer d.unlock()
	if d.proprietary {
		return ""
	}
	return string(d.talker[:])
}

// MfrID is the manufacturer of the current or last proprietary sentence.
func (d *Decoder) MfrID() string {
	d.lock()
	defer d.unlock()
	if !d.proprietary {
		return ""
	}
	return string(d.mfr[:])
}

// FieldIndex is the index of the field being parsed; 0 is the name.
func (d *Decoder) FieldIndex() int { return d.fieldIndex }

// CharCount is the number of characters seen in the current field.
func (d *Decoder) CharCount() int { return d.ctx.count }

// Satellites returns the satellites seen in the current interval.
func (d *Decoder) Satellites() []SatelliteView {
	d.lock()
	defer d.unlock()
	out := make([]SatelliteView, d.satCount)
	copy(out, d.sats[:d.satCount])
	return out
}

// Name returns the sentence name of t, "UNK" when unknown.
func (d *Decoder) Name(t MsgType) string {
	if n, ok := NameOf(d.dialect, t); ok {
		return n
	}
	return "UNK"
}

// Dialect returns the dialect the decoder was built with.
func (d *Decoder) Dialect() Dialect { return d.dialect }
