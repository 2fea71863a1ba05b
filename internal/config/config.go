package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GPS     GPSConfig     `yaml:"gps"`
	Decoder DecoderConfig `yaml:"decoder"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	UDP     UDPConfig     `yaml:"udp"`
	Web     WebConfig     `yaml:"web"`
	PPS     PPSConfig     `yaml:"pps"`
}

type GPSConfig struct {
	Enable bool `yaml:"enable"`
	// Source is serial, tcp or replay.
	Source string `yaml:"source"`
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	Addr   string `yaml:"addr"`

	ReplayPath  string  `yaml:"replay_path"`
	ReplaySpeed float64 `yaml:"replay_speed"`
	ReplayLoop  bool    `yaml:"replay_loop"`
	RecordPath  string  `yaml:"record_path"`

	InitCommands []string `yaml:"init_commands"`
	Poll         []string `yaml:"poll"`
	// UbloxRates sets per-sentence output rates with PUBX,40 (u-blox only).
	UbloxRates map[string]int `yaml:"ublox_rates"`

	DrainInterval time.Duration `yaml:"drain_interval"`
}

type DecoderConfig struct {
	Dialect          string   `yaml:"dialect"`
	Parse            []string `yaml:"parse"`
	Fields           []string `yaml:"fields"`
	Merging          string   `yaml:"merging"`
	Accumulate       bool     `yaml:"accumulate"`
	FixBuffer        int      `yaml:"fix_buffer"`
	KeepNewest       bool     `yaml:"keep_newest"`
	LastSentence     string   `yaml:"last_sentence"`
	ChecksumOptional bool     `yaml:"checksum_optional"`
	Processing       string   `yaml:"processing"`
	TalkerIDs        []string `yaml:"talker_ids"`
	MfrIDs           []string `yaml:"mfr_ids"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      int    `yaml:"qos"`
	Retain   bool   `yaml:"retain"`
}

type UDPConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

type PPSConfig struct {
	Enable bool   `yaml:"enable"`
	Chip   string `yaml:"chip"`
	Line   int    `yaml:"line"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes YAML config bytes, applies defaults and validates.
func Parse(b []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return Config{}, unknownFields(te)
		}
		return Config{}, err
	}

	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// unknownFields flattens yaml's per-line errors into one message.
func unknownFields(te *yaml.TypeError) error {
	msgs := make([]string, 0, len(te.Errors))
	for _, e := range te.Errors {
		if _, rest, ok := strings.Cut(e, ": "); ok && strings.HasPrefix(e, "line ") {
			e = rest
		}
		msgs = append(msgs, e)
	}
	return fmt.Errorf("config contains unknown fields: %s", strings.Join(msgs, "; "))
}

func applyDefaults(cfg *Config) {
	g := &cfg.GPS
	g.Source = strings.ToLower(strings.TrimSpace(g.Source))
	if g.Source == "" {
		g.Source = "serial"
	}
	if g.Baud == 0 {
		g.Baud = 9600
	}
	if g.ReplaySpeed == 0 {
		g.ReplaySpeed = 1
	}
	if g.DrainInterval <= 0 {
		g.DrainInterval = 50 * time.Millisecond
	}

	d := &cfg.Decoder
	d.Dialect = strings.ToLower(strings.TrimSpace(d.Dialect))
	if d.Dialect == "" {
		d.Dialect = "standard"
	}
	if d.Merging == "" {
		d.Merging = "none"
	}
	if d.LastSentence == "" {
		d.LastSentence = "RMC"
	}
	if d.Processing == "" {
		d.Processing = "polling"
	}

	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "nmeafix/fix"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "nmeafix"
	}
	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}
	if cfg.PPS.Chip == "" {
		cfg.PPS.Chip = "gpiochip0"
	}
}

func validate(cfg Config) error {
	g := cfg.GPS
	if g.Enable {
		switch g.Source {
		case "serial":
		case "tcp":
			if strings.TrimSpace(g.Addr) == "" {
				return fmt.Errorf("gps.addr is required when gps.source is tcp")
			}
		case "replay":
			if strings.TrimSpace(g.ReplayPath) == "" {
				return fmt.Errorf("gps.replay_path is required when gps.source is replay")
			}
		default:
			return fmt.Errorf("gps.source must be serial, tcp or replay")
		}
	}
	if g.ReplaySpeed < 0 {
		return fmt.Errorf("gps.replay_speed must be > 0")
	}
	if g.Baud < 0 {
		return fmt.Errorf("gps.baud must be > 0")
	}
	if len(g.UbloxRates) > 0 && cfg.Decoder.Dialect != "ublox" {
		return fmt.Errorf("gps.ublox_rates requires decoder.dialect ublox")
	}
	for name, rate := range g.UbloxRates {
		if rate < 0 || rate > 255 {
			return fmt.Errorf("gps.ublox_rates.%s must be 0..255", name)
		}
	}

	d := cfg.Decoder
	switch d.Dialect {
	case "standard", "ublox":
	default:
		return fmt.Errorf("decoder.dialect must be standard or ublox")
	}
	switch d.Merging {
	case "none", "explicit", "implicit":
	default:
		return fmt.Errorf("decoder.merging must be none, explicit or implicit")
	}
	switch d.Processing {
	case "polling", "interrupt":
	default:
		return fmt.Errorf("decoder.processing must be polling or interrupt")
	}
	if d.FixBuffer < 0 {
		return fmt.Errorf("decoder.fix_buffer must be >= 0")
	}
	if d.Merging == "implicit" && !d.Accumulate {
		return fmt.Errorf("decoder.merging implicit requires decoder.accumulate")
	}
	if d.Merging == "explicit" && d.FixBuffer < 1 {
		return fmt.Errorf("decoder.merging explicit requires decoder.fix_buffer >= 1")
	}
	for _, id := range d.TalkerIDs {
		if len(id) != 2 {
			return fmt.Errorf("decoder.talker_ids entries must be 2 characters: %q", id)
		}
	}
	for _, id := range d.MfrIDs {
		if len(id) != 3 {
			return fmt.Errorf("decoder.mfr_ids entries must be 3 characters: %q", id)
		}
	}

	if cfg.MQTT.Enable {
		if strings.TrimSpace(cfg.MQTT.Broker) == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
		}
		if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
	}
	if cfg.UDP.Enable && strings.TrimSpace(cfg.UDP.Dest) == "" {
		return fmt.Errorf("udp.dest is required when udp.enable is true")
	}
	if cfg.PPS.Enable && cfg.PPS.Line < 0 {
		return fmt.Errorf("pps.line must be >= 0")
	}
	return nil
}
