//go:build !linux && !darwin && !windows

package gps

import (
	"fmt"
	"io"
)

func openSerial(path string, baud int) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("serial gps not supported on this platform")
}
