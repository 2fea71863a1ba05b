package gps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"nmeafix/internal/fix"
	"nmeafix/internal/nmea"
	"nmeafix/internal/replay"
)

// Config controls the GPS reader.
//
// Device may be empty to auto-detect a USB receiver (/dev/ttyACM*,
// /dev/ttyUSB*). Baud must be a rate the platform serial driver supports.
type Config struct {
	Enable bool

	// Source selects the byte source: "serial", "tcp" or "replay".
	// When empty, defaults to "serial".
	Source string

	Device string
	Baud   int

	// Addr is host:port of a raw NMEA TCP stream when Source=="tcp".
	Addr string

	ReplayPath  string
	ReplaySpeed float64
	ReplayLoop  bool

	// RecordPath, when set, captures every received byte for later replay.
	RecordPath string

	// InitCommands are NMEA bodies sent (with checksum) after the source
	// opens. Poll names sentences requested once with $EIGPQ.
	InitCommands []string
	Poll         []string

	Decoder nmea.Options
	Sinks   []Sink
	PPS     PulseSource

	// DrainInterval is how often the consumer reads fixes with interrupt
	// processing. Default 50ms.
	DrainInterval time.Duration
}

type Snapshot struct {
	Enabled bool `json:"enabled"`
	Valid   bool `json:"valid"`

	Source     string `json:"source,omitempty"`
	Device     string `json:"device,omitempty"`
	Baud       int    `json:"baud,omitempty"`
	Addr       string `json:"addr,omitempty"`
	ReplayPath string `json:"replay_path,omitempty"`
	Processing string `json:"processing,omitempty"`

	Fix        *fix.Report          `json:"fix,omitempty"`
	Satellites []nmea.SatelliteView `json:"satellites,omitempty"`

	Stats      nmea.Stats `json:"stats"`
	Fixes      uint64     `json:"fixes"`
	Overruns   uint64     `json:"overruns"`
	SinkErrors uint64     `json:"sink_errors"`

	LastFixUTC string `json:"last_fix_utc,omitempty"`
	LastPPSUTC string `json:"last_pps_utc,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

type Service struct {
	cfg Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	last atomic.Value // Snapshot

	mu     sync.Mutex
	closer io.Closer
	port   io.Writer
	dec    *nmea.Decoder
	feed   *feeder
	rec    *replay.Writer

	writeMu sync.Mutex
}

func New(cfg Config) *Service {
	s := &Service{cfg: cfg}
	s.last.Store(Snapshot{
		Enabled:    cfg.Enable,
		Source:     sourceOf(cfg),
		Device:     cfg.Device,
		Baud:       cfg.Baud,
		Addr:       strings.TrimSpace(cfg.Addr),
		ReplayPath: cfg.ReplayPath,
		Processing: cfg.Decoder.Processing.String(),
	})
	return s
}

func sourceOf(cfg Config) string {
	src := strings.ToLower(strings.TrimSpace(cfg.Source))
	if src == "" {
		src = "serial"
	}
	return src
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gps service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	dec, err := nmea.New(s.cfg.Decoder)
	if err != nil {
		s.setErrorLocked(fmt.Sprintf("gps decoder: %v", err))
		return err
	}
	s.dec = dec
	s.feed = newFeeder(dec, s.cfg.Decoder.Processing, s.cfg.Sinks)

	if p := strings.TrimSpace(s.cfg.RecordPath); p != "" {
		w, err := replay.CreateWriter(p)
		if err != nil {
			s.setErrorLocked(fmt.Sprintf("gps record open failed path=%s: %v", p, err))
			return err
		}
		s.rec = w
		log.Printf("gps recording path=%s", p)
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	switch src := sourceOf(s.cfg); src {
	case "serial":
		err = s.startSerialLocked(childCtx)
	case "tcp":
		err = s.startTCPLocked(childCtx)
	case "replay":
		err = s.startReplayLocked(childCtx)
	default:
		err = fmt.Errorf("unknown gps source %q", src)
		s.setErrorLocked(err.Error())
	}
	if err != nil {
		cancel()
		s.cancel = nil
		if s.rec != nil {
			_ = s.rec.Close()
			s.rec = nil
		}
		return err
	}

	if s.cfg.Decoder.Processing == nmea.Interrupt {
		s.wg.Add(1)
		go s.consume(childCtx)
	}
	return nil
}

func (s *Service) startSerialLocked(ctx context.Context) error {
	device := strings.TrimSpace(s.cfg.Device)
	if device == "" {
		device = autoDetectDevice()
		if device == "" {
			s.setErrorLocked("gps auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
			return fmt.Errorf("gps auto-detect failed")
		}
	}

	baud := s.cfg.Baud
	if baud == 0 {
		baud = 9600
	}

	port, err := openSerial(device, baud)
	if err != nil {
		s.setErrorLocked(fmt.Sprintf("gps open failed device=%s baud=%d: %v", device, baud, err))
		return err
	}
	s.closer = port
	s.port = port

	cur := s.Snapshot()
	cur.Device = device
	cur.Baud = baud
	s.last.Store(cur)

	s.sendInitLocked(port)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			_ = port.Close()
		}()

		log.Printf("gps enabled source=serial device=%s baud=%d processing=%s", device, baud, s.cfg.Decoder.Processing)
		if err := s.pump(ctx, port); err != nil && ctx.Err() == nil {
			s.setError(fmt.Sprintf("gps read stopped: %v", err))
		}
	}()
	return nil
}

func (s *Service) startTCPLocked(ctx context.Context) error {
	addr := strings.TrimSpace(s.cfg.Addr)
	if addr == "" {
		s.setErrorLocked("gps tcp source needs addr")
		return fmt.Errorf("gps tcp source needs addr")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Printf("gps enabled source=tcp addr=%s processing=%s", addr, s.cfg.Decoder.Processing)
		backoff := 250 * time.Millisecond
		maxBackoff := 10 * time.Second

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			conn, err := dialStream(ctx, addr)
			if err != nil {
				s.setError(fmt.Sprintf("gps dial failed addr=%s: %v", addr, err))
				t := backoff
				if t > maxBackoff {
					t = maxBackoff
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(t):
				}
				if backoff < maxBackoff {
					backoff *= 2
				}
				continue
			}

			backoff = 250 * time.Millisecond

			s.mu.Lock()
			// Swap the closer so Close() can interrupt an active connection.
			s.closer = conn
			s.port = conn
			s.sendInitLocked(conn)
			s.mu.Unlock()

			// Restart framing; the previous connection may have ended mid-sentence.
			s.dec.Reset()
			err = s.pump(ctx, conn)
			_ = conn.Close()

			s.mu.Lock()
			s.port = nil
			s.mu.Unlock()

			if ctx.Err() != nil {
				return
			}
			if err == nil {
				err = io.EOF
			}
			s.setError(fmt.Sprintf("gps stream stopped addr=%s: %v", addr, err))
		}
	}()
	return nil
}

func (s *Service) startReplayLocked(ctx context.Context) error {
	path := strings.TrimSpace(s.cfg.ReplayPath)
	recs, err := replay.ReadFile(path)
	if err != nil {
		s.setErrorLocked(fmt.Sprintf("gps replay open failed path=%s: %v", path, err))
		return err
	}
	speed := s.cfg.ReplaySpeed
	if speed <= 0 {
		speed = 1
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Printf("gps enabled source=replay path=%s records=%d speed=%.2f loop=%t", path, len(recs), speed, s.cfg.ReplayLoop)
		err := replay.Play(ctx, recs, speed, s.cfg.ReplayLoop, nil, func(data []byte) error {
			s.ingest(data)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.setError(fmt.Sprintf("gps replay stopped: %v", err))
			return
		}
		if s.feed.interrupt {
			s.feed.drain()
		}
		s.refresh()
		log.Printf("gps replay finished path=%s", path)
	}()
	return nil
}

// sendInitLocked writes the configured commands and polls to a freshly
// opened source.
func (s *Service) sendInitLocked(w io.Writer) {
	if len(s.cfg.InitCommands) == 0 && len(s.cfg.Poll) == 0 {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, cmd := range s.cfg.InitCommands {
		if err := nmea.Send(w, cmd); err != nil {
			s.setErrorLocked(fmt.Sprintf("gps init command failed cmd=%q: %v", cmd, err))
		}
	}
	for _, name := range s.cfg.Poll {
		t, ok := nmea.Lookup(s.dec.Dialect(), name)
		if !ok {
			s.setErrorLocked(fmt.Sprintf("gps poll: unknown sentence %q", name))
			continue
		}
		if err := s.dec.Poll(w, t); err != nil {
			s.setErrorLocked(fmt.Sprintf("gps poll failed sentence=%s: %v", name, err))
		}
	}
	log.Printf("gps init sent commands=%d polls=%d", len(s.cfg.InitCommands), len(s.cfg.Poll))
}

// pump reads r until it fails or ctx ends.
func (s *Service) pump(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 512)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			s.ingest(buf[:n])
		}
		if err != nil {
			return err
		}
	}
}

func (s *Service) ingest(p []byte) {
	if s.rec != nil {
		if err := s.rec.WriteChunk(time.Now(), p); err != nil {
			s.setError(fmt.Sprintf("gps record failed: %v", err))
		}
	}
	if s.feed.handle(p) {
		s.refresh()
	}
}

// consume drains the decoder on a timer, for interrupt processing.
func (s *Service) consume(ctx context.Context) {
	defer s.wg.Done()
	interval := s.cfg.DrainInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			if s.feed.drain() > 0 {
				s.refresh()
			}
			return
		case <-t.C:
			if s.feed.drain() > 0 {
				s.refresh()
			}
		}
	}
}

func (s *Service) refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.Snapshot()
	s.feed.fill(&cur)
	if s.cfg.PPS != nil {
		if t := s.cfg.PPS.LastPulse(); !t.IsZero() {
			cur.LastPPSUTC = t.UTC().Format(time.RFC3339Nano)
		}
	}
	s.last.Store(cur)
}

// Send writes an NMEA command body to the receiver.
func (s *Service) Send(cmd string) error {
	s.mu.Lock()
	w := s.port
	s.mu.Unlock()
	if w == nil {
		return fmt.Errorf("gps source is not writable")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return nmea.Send(w, cmd)
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.cancel = nil
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()

	s.mu.Lock()
	rec := s.rec
	s.rec = nil
	s.mu.Unlock()
	if rec != nil {
		if err := rec.Close(); err != nil {
			log.Printf("gps record close failed: %v", err)
		}
	}
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	v := s.last.Load()
	if v == nil {
		return Snapshot{}
	}
	return v.(Snapshot)
}

func (s *Service) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErrorLocked(msg)
}

func (s *Service) setErrorLocked(msg string) {
	cur := s.Snapshot()
	cur.LastError = msg
	s.last.Store(cur)
}

func dialStream(ctx context.Context, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: 2 * time.Second}
	return d.DialContext(ctx, "tcp", addr)
}

func autoDetectDevice() string {
	var candidates []string
	for _, prefix := range []string{"/dev/ttyACM", "/dev/ttyUSB"} {
		for i := 0; i < 10; i++ {
			candidates = append(candidates, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
