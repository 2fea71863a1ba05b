package main

import (
	"fmt"
	"sort"
	"strings"

	"nmeafix/internal/config"
	"nmeafix/internal/fix"
	"nmeafix/internal/gps"
	"nmeafix/internal/nmea"
	"nmeafix/internal/ubx"
)

// decoderOptions turns the decoder section into construction-time options.
func decoderOptions(c config.DecoderConfig) (nmea.Options, error) {
	var d nmea.Dialect = nmea.Standard{}
	switch c.Dialect {
	case "", "standard":
	case "ublox":
		d = ubx.New()
	default:
		return nmea.Options{}, fmt.Errorf("decoder.dialect %q is unknown", c.Dialect)
	}
	if len(c.TalkerIDs) > 0 {
		d = nmea.WithTalkerIDs(d, c.TalkerIDs...)
	}
	if len(c.MfrIDs) > 0 {
		d = nmea.WithMfrIDs(d, c.MfrIDs...)
	}

	opts := nmea.Options{
		Dialect:          d,
		Accumulate:       c.Accumulate,
		FixBuffer:        c.FixBuffer,
		KeepNewest:       c.KeepNewest,
		ChecksumOptional: c.ChecksumOptional,
	}

	for _, name := range c.Parse {
		t, ok := nmea.Lookup(d, name)
		if !ok {
			return nmea.Options{}, fmt.Errorf("decoder.parse: unknown sentence %q", name)
		}
		opts.Parse = append(opts.Parse, t)
	}
	for _, name := range c.Fields {
		f, ok := fix.ParseField(name)
		if !ok {
			return nmea.Options{}, fmt.Errorf("decoder.fields: unknown field %q", name)
		}
		opts.Fields.Set(f)
	}
	if c.LastSentence != "" {
		t, ok := nmea.Lookup(d, c.LastSentence)
		if !ok {
			return nmea.Options{}, fmt.Errorf("decoder.last_sentence: unknown sentence %q", c.LastSentence)
		}
		opts.LastSentence = t
	}

	var err error
	if opts.Merging, err = nmea.ParseMerging(c.Merging); err != nil {
		return nmea.Options{}, fmt.Errorf("decoder.merging: %w", err)
	}
	if opts.Processing, err = nmea.ParseProcessing(c.Processing); err != nil {
		return nmea.Options{}, fmt.Errorf("decoder.processing: %w", err)
	}
	return opts, nil
}

// ubloxCommands builds PUBX,40 rate commands in a stable order.
func ubloxCommands(rates map[string]int) ([]string, error) {
	ids := make([]string, 0, len(rates))
	for id := range rates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		cmd, err := ubx.RateCommand(id, ubx.AllPorts(uint8(rates[id])))
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

func gpsConfig(cfg config.Config, opts nmea.Options) (gps.Config, error) {
	g := cfg.GPS
	rateCmds, err := ubloxCommands(g.UbloxRates)
	if err != nil {
		return gps.Config{}, err
	}
	return gps.Config{
		Enable:        g.Enable,
		Source:        g.Source,
		Device:        g.Device,
		Baud:          g.Baud,
		Addr:          g.Addr,
		ReplayPath:    g.ReplayPath,
		ReplaySpeed:   g.ReplaySpeed,
		ReplayLoop:    g.ReplayLoop,
		RecordPath:    g.RecordPath,
		InitCommands:  append(rateCmds, g.InitCommands...),
		Poll:          g.Poll,
		Decoder:       opts,
		DrainInterval: g.DrainInterval,
	}, nil
}

// sentenceNames lists every sentence the dialect recognizes.
func sentenceNames(d nmea.Dialect) []string {
	var out []string
	for t := nmea.MsgType(1); t != nmea.MsgUnknown; t++ {
		if name, ok := nmea.NameOf(d, t); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func dialectName(c config.DecoderConfig) string {
	name := strings.TrimSpace(c.Dialect)
	if name == "" {
		return "standard"
	}
	return name
}
