package nmea

import "nmeafix/internal/fix"

// fixStore queues completed fixes for Read. With zero capacity it only
// remembers that the live fix holds a finished interval.
type fixStore struct {
	buf        []fix.Fix
	first      int
	count      int
	pending    fix.Fix
	flag       bool
	overrun    bool
	merging    Merging
	keepNewest bool
}

func newFixStore(capacity int, merging Merging, keepNewest bool) fixStore {
	return fixStore{
		buf:        make([]fix.Fix, capacity),
		merging:    merging,
		keepNewest: keepNewest,
	}
}

// commit is called for every completed sentence.
func (s *fixStore) commit(live *fix.Fix, intervalDone bool) {
	if s.merging == ExplicitMerging {
		s.pending.Merge(live)
		if !intervalDone {
			return
		}
		s.push(&s.pending)
		s.pending.Init()
		return
	}
	if intervalDone {
		s.push(live)
	}
}

func (s *fixStore) push(f *fix.Fix) {
	if len(s.buf) == 0 {
		if s.flag {
			s.overrun = true
		}
		s.flag = true
		return
	}
	if s.count == len(s.buf) {
		s.overrun = true
		if !s.keepNewest {
			return
		}
		s.first = (s.first + 1) % len(s.buf)
		s.count--
	}
	s.buf[(s.first+s.count)%len(s.buf)] = *f
	s.count++
}

func (s *fixStore) available() int {
	if len(s.buf) == 0 {
		if s.flag {
			return 1
		}
		return 0
	}
	return s.count
}

// read hands out the oldest fix. With zero capacity the live fix is only
// handed out while no sentence is modifying it.
func (s *fixStore) read(live *fix.Fix, safe bool) (fix.Fix, bool) {
	if len(s.buf) == 0 {
		if !s.flag || !safe {
			return fix.Fix{}, false
		}
		s.flag = false
		return *live, true
	}
	if s.count == 0 {
		return fix.Fix{}, false
	}
	f := s.buf[s.first]
	s.first = (s.first + 1) % len(s.buf)
	s.count--
	return f, true
}

func (s *fixStore) reset() {
	s.first, s.count = 0, 0
	s.flag, s.overrun = false, false
	s.pending.Init()
}
