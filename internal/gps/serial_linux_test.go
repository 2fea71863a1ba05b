//go:build linux

package gps

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestBaudToUnix(t *testing.T) {
	cases := map[int]uint32{
		4800:   unix.B4800,
		9600:   unix.B9600,
		115200: unix.B115200,
		460800: unix.B460800,
	}
	for baud, want := range cases {
		got, err := baudToUnix(baud)
		if err != nil {
			t.Fatalf("baud=%d err: %v", baud, err)
		}
		if got != want {
			t.Fatalf("baud=%d got %d want %d", baud, got, want)
		}
	}
	if _, err := baudToUnix(12345); err == nil {
		t.Fatalf("expected unsupported baud error")
	}
}
