package nmea

import "strings"

// FieldParser consumes one character of a field. The terminating comma is
// delivered too, so parsers can finish their value. Returning false marks
// the whole sentence invalid.
type FieldParser func(d *Decoder, c byte) bool

// Dialect is the set of sentences a decoder knows about. Vendor dialects
// extend the standard one by composition: prepend their own tables and fall
// back to the wrapped dialect for the rest.
type Dialect interface {
	// Tables lists the sentence tables in search order.
	Tables() []*Table
	// Fields returns the parsers for t indexed by field number; index 0 is
	// the sentence name and is never called. nil entries are skipped.
	Fields(t MsgType) []FieldParser
}

// TalkerFilter is implemented by dialects that restrict talker IDs. The ID
// is passed as received so far, one character longer on each call.
type TalkerFilter interface {
	AcceptTalkerID(id []byte) bool
}

// MfrFilter is the manufacturer ID counterpart of TalkerFilter.
type MfrFilter interface {
	AcceptMfrID(id []byte) bool
}

// Namer names message types that do not appear in any table, such as types
// a dialect switches to while parsing fields.
type Namer interface {
	Name(t MsgType) (string, bool)
}

// NameOf returns the sentence name of t in d.
func NameOf(d Dialect, t MsgType) (string, bool) {
	if t == MsgUnknown {
		return "", false
	}
	if n, ok := d.(Namer); ok {
		if name, ok := n.Name(t); ok {
			return name, true
		}
	}
	for _, tb := range d.Tables() {
		for _, e := range tb.Entries {
			if e.Type != t {
				continue
			}
			if tb.MfrID != "" {
				return "P" + tb.MfrID + e.Name, true
			}
			return e.Name, true
		}
	}
	return "", false
}

// Lookup is the inverse of NameOf.
func Lookup(d Dialect, name string) (MsgType, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for t := MsgType(1); t != 0; t++ {
		if n, ok := NameOf(d, t); ok && n == name {
			return t, true
		}
	}
	return MsgUnknown, false
}

// Standard is the dialect of plain NMEA-0183 receivers.
type Standard struct{}

func (Standard) Tables() []*Table { return []*Table{StandardTable} }

func (Standard) Fields(t MsgType) []FieldParser {
	if int(t) < len(standardFields) {
		return standardFields[t]
	}
	return nil
}

// WithTalkerIDs restricts d to sentences from the given talkers ("GP",
// "GN", ...). d itself is left unchanged.
func WithTalkerIDs(d Dialect, ids ...string) Dialect {
	f := refilter(d)
	f.talkers = upper(ids)
	return f
}

// WithMfrIDs restricts the proprietary sentences of d to the given
// manufacturers. d itself is left unchanged.
func WithMfrIDs(d Dialect, ids ...string) Dialect {
	f := refilter(d)
	f.mfrs = upper(ids)
	return f
}

// refilter returns a new filter over d, carrying over the lists of an
// existing one.
func refilter(d Dialect) *filtered {
	if f, ok := d.(*filtered); ok {
		c := *f
		return &c
	}
	return &filtered{Dialect: d}
}

type filtered struct {
	Dialect
	talkers []string
	mfrs    []string
}

func (f *filtered) Name(t MsgType) (string, bool) { return NameOf(f.Dialect, t) }

func (f *filtered) AcceptTalkerID(id []byte) bool {
	if len(f.talkers) == 0 {
		return true
	}
	return anyHasPrefix(f.talkers, id)
}

func (f *filtered) AcceptMfrID(id []byte) bool {
	if len(f.mfrs) == 0 {
		return true
	}
	return anyHasPrefix(f.mfrs, id)
}

func anyHasPrefix(list []string, id []byte) bool {
	for _, s := range list {
		if strings.HasPrefix(s, string(id)) {
			return true
		}
	}
	return false
}

func upper(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
