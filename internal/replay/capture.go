package replay

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Capture format: line-oriented text.
//
// - Blank lines and lines starting with '#' are ignored.
// - "START" resets the origin; the next record time is relative to 0 again.
// - Data lines are <t_ns>,<hex>: nanoseconds since START and the raw bytes
//   of one read from the receiver, hex encoded so CR/LF survive unchanged.

type Record struct {
	At   time.Duration
	Data []byte
}

// IsStart reports whether r is a START marker.
func (r Record) IsStart() bool { return r.Data == nil }

type Reader struct {
	s    *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{s: s}
}

// Next returns the next record, or io.EOF.
func (rr *Reader) Next() (Record, error) {
	for rr.s.Scan() {
		rr.line++
		line := strings.TrimSpace(rr.s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			return Record{}, nil
		}
		return parseLine(rr.line, line)
	}
	if err := rr.s.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}

// ReadAll returns every record left in the capture.
func (rr *Reader) ReadAll() ([]Record, error) {
	recs := make([]Record, 0, 1024)
	for {
		r, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
}

func parseLine(n int, line string) (Record, error) {
	tsStr, hexStr, ok := strings.Cut(line, ",")
	if !ok {
		return Record{}, fmt.Errorf("capture line %d: missing comma", n)
	}
	tsStr = strings.TrimSpace(tsStr)
	hexStr = strings.ReplaceAll(strings.TrimSpace(hexStr), " ", "")
	if tsStr == "" || hexStr == "" {
		return Record{}, fmt.Errorf("capture line %d: empty field", n)
	}
	tsNs, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("capture line %d: timestamp: %w", n, err)
	}
	if tsNs < 0 {
		return Record{}, fmt.Errorf("capture line %d: negative timestamp %d", n, tsNs)
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return Record{}, fmt.Errorf("capture line %d: payload: %w", n, err)
	}
	return Record{At: time.Duration(tsNs), Data: b}, nil
}

// ReadFile loads a whole capture.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

// Writer appends timestamped chunks to a capture file. It is safe for use
// by one writer goroutine while another calls Close.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	start  time.Time
	now    func() time.Time
	closed bool
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if _, err := bw.WriteString("START\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: bw, start: time.Now(), now: time.Now}, nil
}

// WriteChunk records p as received at now.
func (ww *Writer) WriteChunk(now time.Time, p []byte) error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return errors.New("capture writer is closed")
	}
	if len(p) == 0 {
		return nil
	}
	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(ww.w, "%d,%s\n", d.Nanoseconds(), hex.EncodeToString(p))
	return err
}

// Write records p as received now, so a Writer can sit behind io.TeeReader.
func (ww *Writer) Write(p []byte) (int, error) {
	if err := ww.WriteChunk(ww.now(), p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (ww *Writer) Flush() error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.f.Close()
		return err
	}
	return ww.f.Close()
}

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Play replays records with their relative timing, calling cb for every
// data record. START markers reset the origin.
//
// speed: 1.0 = real time, 2.0 = twice as fast, 0.5 = half speed.
func Play(ctx context.Context, records []Record, speed float64, loop bool, sleeper Sleeper, cb func(data []byte) error) error {
	if speed <= 0 {
		return fmt.Errorf("speed must be > 0")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if cb == nil {
		return errors.New("callback is nil")
	}
	if len(records) == 0 {
		return errors.New("no records")
	}

	for {
		var origin, lastAt time.Duration
		haveLast := false

		for _, r := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if r.IsStart() {
				origin = r.At
				lastAt = 0
				haveLast = false
				continue
			}

			at := r.At - origin
			if at < 0 {
				at = 0
			}
			if haveLast {
				wait := time.Duration(float64(at-lastAt) / speed)
				if wait > 0 {
					if err := sleeper.Sleep(ctx, wait); err != nil {
						return err
					}
				}
			}

			if err := cb(r.Data); err != nil {
				return err
			}
			lastAt = at
			haveLast = true
		}

		if !loop {
			return nil
		}
	}
}
