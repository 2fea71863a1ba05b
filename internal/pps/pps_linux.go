//go:build linux

package pps

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Open watches line offset on chip ("gpiochip0" or "/dev/gpiochip0") for
// rising edges.
func Open(chip string, offset int) (*Watcher, error) {
	if offset < 0 {
		return nil, fmt.Errorf("pps: invalid line %d", offset)
	}
	chip = strings.TrimSpace(chip)
	if chip == "" {
		chip = "gpiochip0"
	}
	if !strings.HasPrefix(chip, "/") {
		chip = filepath.Join("/dev", chip)
	}

	w := &Watcher{}
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.WithConsumer("nmeafix-pps"),
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type == gpiocdev.LineEventRisingEdge {
				w.mark(time.Now())
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pps: request %s line %d: %w", chip, offset, err)
	}
	w.closer = line.Close
	log.Printf("pps enabled chip=%s line=%d", chip, offset)
	return w, nil
}
