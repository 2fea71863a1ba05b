package nmea

import "strings"

// recognizer matches a sentence name against a chain of tables one
// character at a time. The characters seen so far are always the prefix of
// the current entry's name, so nothing is buffered.
type recognizer struct {
	tables  []*Table
	ti, ei  int
	matched bool
}

func (r *recognizer) reset() {
	r.ti, r.ei, r.matched = 0, 0, false
}

func (r *recognizer) prefix(pos int) string {
	if !r.matched {
		return ""
	}
	return r.tables[r.ti].Entries[r.ei].Name[:pos]
}

func (r *recognizer) start(ti int) int {
	if ti == r.ti && r.matched {
		return r.ei
	}
	return 0
}

// step consumes the name character at pos.
func (r *recognizer) step(pos int, c byte, proprietary bool, mfr []byte) Result {
	prefix := r.prefix(pos)
	for ti := r.ti; ti < len(r.tables); ti++ {
		t := r.tables[ti]
		if !t.accepts(proprietary, mfr) {
			continue
		}
		for ei := r.start(ti); ei < len(t.Entries); ei++ {
			name := t.Entries[ei].Name
			head := name
			if len(head) > pos {
				head = head[:pos]
			}
			if head < prefix {
				continue
			}
			if head > prefix {
				break
			}
			if len(name) == pos {
				continue
			}
			rc := name[pos]
			if c == rc {
				r.ti, r.ei, r.matched = ti, ei, true
				return CharOK
			}
			if c < rc {
				break
			}
		}
	}
	return CharInvalid
}

// complete resolves the name once its terminating comma arrives.
func (r *recognizer) complete(pos int, proprietary bool, mfr []byte) (MsgType, bool) {
	prefix := r.prefix(pos)
	for ti := r.ti; ti < len(r.tables); ti++ {
		t := r.tables[ti]
		if !t.accepts(proprietary, mfr) {
			continue
		}
		for ei := r.start(ti); ei < len(t.Entries); ei++ {
			name := t.Entries[ei].Name
			if name == prefix {
				return t.Entries[ei].Type, true
			}
			if name > prefix && !strings.HasPrefix(name, prefix) {
				break
			}
		}
	}
	return MsgUnknown, false
}

// hasProprietary reports whether any table matches "$P..." sentences.
func (r *recognizer) hasProprietary() bool {
	for _, t := range r.tables {
		if t.MfrID != "" {
			return true
		}
	}
	return false
}
