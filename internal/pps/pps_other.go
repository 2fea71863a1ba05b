//go:build !linux

package pps

import "fmt"

func Open(chip string, offset int) (*Watcher, error) {
	return nil, fmt.Errorf("pps: gpio unsupported on this platform")
}
