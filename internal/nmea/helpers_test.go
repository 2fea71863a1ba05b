package nmea

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	rmcLine   = "$GPRMC,162254.00,A,3723.02837,N,12159.39853,W,0.820,188.36,110706,,,A*74\r\n"
	rmc2Line  = "$GPRMC,162255.00,A,3723.02838,S,00159.39853,E,1.5,,110706,,,D*67\r\n"
	ggaLine   = "$GPGGA,092750.000,5321.6802,N,00630.3372,W,1,8,1.03,61.7,M,55.2,M,,*76\r\n"
	gga2Line  = "$GPGGA,162254.00,3723.02837,N,12159.39853,W,2,09,0.9,12.5,M,-25.6,M,,*60\r\n"
	gsaLine   = "$GPGSA,A,3,10,07,05,02,29,04,08,13,,,,,1.72,1.03,1.38*0A\r\n"
	gsvLine   = "$GPGSV,3,1,11,10,63,137,17,07,61,098,15,05,59,290,20,08,54,157,30*70\r\n"
	gsv3Line  = "$GPGSV,3,3,11,22,42,067,42,24,14,311,43,27,05,244,00*4D\r\n"
	gstLine   = "$GPGST,172814.0,0.006,0.023,0.020,273.6,0.023,0.020,0.031*6A\r\n"
	vtgLine   = "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K,D*20\r\n"
	zdaLine   = "$GPZDA,201530.00,04,07,2002,00,00*60\r\n"
	gllLine   = "$GPGLL,4916.45,N,12311.12,W,225444,A,A*5C\r\n"
	voidLine  = "$GNRMC,000001.00,V,,,,,,,010100,,,N*62\r\n"
	txtLine   = "$GPTXT,01,01,02,ANTSTATUS=OK*3B\r\n"
	pollReply = "$EIGPQ,RMC*3A\r\n"
)

func newDecoder(t *testing.T, opts Options) *Decoder {
	t.Helper()
	d, err := New(opts)
	require.NoError(t, err)
	return d
}

// feed pushes s through Handle and returns how many sentences completed.
func feed(d *Decoder, s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if d.Handle(s[i]) == Completed {
			n++
		}
	}
	return n
}

// decodeLine pushes s through Decode and returns the results per byte.
func decodeLine(d *Decoder, s string) []Result {
	out := make([]Result, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = d.Decode(s[i])
	}
	return out
}

// sentence returns the line up to and including its checksum.
func sentence(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '*' {
			return line[:i+3]
		}
	}
	return line
}
