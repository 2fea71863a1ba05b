package nmea

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nmeafix/internal/fix"
)

func TestDecodeRMCEndToEnd(t *testing.T) {
	d := newDecoder(t, Options{})
	res := decodeLine(d, rmcLine)

	checksumEnd := len(sentence(rmcLine)) - 1
	for i, r := range res[:checksumEnd] {
		require.Equal(t, CharOK, r, "byte %d %q", i, rmcLine[i])
	}
	require.Equal(t, Completed, res[checksumEnd])
	assert.Equal(t, CharInvalid, res[checksumEnd+1])
	assert.Equal(t, CharInvalid, res[checksumEnd+2])

	f := d.Fix()
	assert.True(t, f.Valid.Status())
	assert.Equal(t, fix.StatusStandard, f.Status)
	assert.True(t, f.Valid.Time())
	assert.Equal(t, fix.DateTime{Year: 6, Month: 7, Date: 11, Hours: 16, Minutes: 22, Seconds: 54}, f.DateTime)
	assert.Equal(t, uint8(0), f.Centiseconds)
	assert.True(t, f.Valid.Date())
	assert.True(t, f.Valid.Location())
	assert.Equal(t, int32(373838062), f.Lat)
	assert.Equal(t, int32(-1219899755), f.Lon)
	assert.True(t, f.Valid.Speed())
	assert.Equal(t, int32(820), f.Speed.Int32x1000())
	assert.True(t, f.Valid.Heading())
	assert.Equal(t, int32(18836), f.Heading.Int32x100())
	assert.False(t, f.Valid.Altitude())

	st := d.Stats()
	assert.Equal(t, uint32(1), st.Sentences)
	assert.Equal(t, uint32(0), st.ChecksumErrors)
	assert.Equal(t, uint32(0), st.FramingErrors)
	assert.Equal(t, uint32(len(rmcLine)), st.Chars)
}

func TestMessageAndTalkerAfterCompletion(t *testing.T) {
	d := newDecoder(t, Options{})
	var got MsgType
	s := sentence(rmcLine)
	for i := 0; i < len(s); i++ {
		if d.Decode(s[i]) == Completed {
			got = d.Message()
		}
	}
	assert.Equal(t, MsgRMC, got)
	assert.Equal(t, "GP", d.TalkerID())
	assert.Equal(t, "", d.MfrID())
	assert.Equal(t, "RMC", d.Name(got))
	assert.Equal(t, "UNK", d.Name(MsgUnknown))
}

func TestChecksumMismatchInvalidatesSentence(t *testing.T) {
	corrupt := strings.Replace(rmcLine, "0.820", "0.821", 1)
	d := newDecoder(t, Options{})
	res := decodeLine(d, corrupt)

	star := strings.IndexByte(corrupt, '*')
	assert.NotContains(t, res, Completed)
	// Only the low nibble differs.
	assert.Equal(t, CharOK, res[star+1])
	assert.Equal(t, CharInvalid, res[star+2])

	st := d.Stats()
	assert.Equal(t, uint32(0), st.Sentences)
	assert.Equal(t, uint32(1), st.ChecksumErrors)
	assert.True(t, d.Fix().Valid.Empty())
}

func TestChecksumLowercaseHex(t *testing.T) {
	d := newDecoder(t, Options{})
	assert.Equal(t, 1, feed(d, strings.Replace(gsaLine, "*0A", "*0a", 1)))
}

func TestDollarRestartsSentence(t *testing.T) {
	d := newDecoder(t, Options{})
	n := feed(d, "$GPRMC,1622"+rmcLine)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint32(1), d.Stats().Sentences)
	assert.Equal(t, int32(373838062), d.Fix().Lat)
}

func TestUnknownSentenceIsNotCounted(t *testing.T) {
	d := newDecoder(t, Options{})
	res := decodeLine(d, txtLine)

	// "$GPT": the 'T' cannot start any known name.
	assert.Equal(t, CharInvalid, res[3])
	for _, r := range res[4:] {
		assert.Equal(t, CharInvalid, r)
	}
	st := d.Stats()
	assert.Equal(t, uint32(0), st.Sentences)
	assert.Equal(t, uint32(0), st.ChecksumErrors)
	assert.Equal(t, uint32(0), st.FramingErrors)

	assert.Equal(t, 1, feed(d, rmcLine))
}

func TestPollRequestIsNotRecognized(t *testing.T) {
	d := newDecoder(t, Options{})
	assert.Equal(t, 0, feed(d, pollReply))
	assert.Equal(t, uint32(0), d.Stats().Sentences)
}

func TestFramingError(t *testing.T) {
	d := newDecoder(t, Options{})
	line := strings.Replace(rmcLine, "188.36", "188\x0136", 1)
	assert.Equal(t, 0, feed(d, line))
	assert.Equal(t, uint32(1), d.Stats().FramingErrors)
	assert.True(t, d.Fix().Valid.Empty())
}

func TestResetIsIdempotent(t *testing.T) {
	fresh := newDecoder(t, Options{})
	used := newDecoder(t, Options{})
	feed(used, "$GPGGA,0927")
	used.Reset()
	used.Reset()
	assert.True(t, used.IsSafe())

	a := decodeLine(fresh, rmcLine)
	b := decodeLine(used, rmcLine)
	assert.Equal(t, a, b)
	assert.Equal(t, fresh.Fix(), used.Fix())
}

func TestResetIsIdempotentWhileAccumulating(t *testing.T) {
	opts := Options{Accumulate: true}
	fresh := newDecoder(t, opts)
	used := newDecoder(t, opts)
	feed(used, "$GPRMC,162254.00,A,37")
	used.Reset()
	assert.True(t, used.IsSafe())
	assert.True(t, used.Fix().Valid.Empty())

	require.Equal(t, 1, feed(fresh, gstLine))
	require.Equal(t, 1, feed(used, gstLine))
	a, b := fresh.Fix(), used.Fix()
	assert.Equal(t, a.Valid, b.Valid)
	assert.Equal(t, a.Report(), b.Report())
}

func TestAbortedSentenceIsNotStored(t *testing.T) {
	d := newDecoder(t, Options{
		Accumulate:   true,
		Merging:      ImplicitMerging,
		FixBuffer:    1,
		LastSentence: MsgGST,
	})
	require.Equal(t, 1, feed(d, "$GPRMC,162254.00,A,37"+gstLine))

	f, ok := d.Read()
	require.True(t, ok)
	assert.False(t, f.Valid.Status())
	assert.False(t, f.Valid.Location())
	assert.True(t, f.Valid.Time())
	assert.True(t, f.Valid.LatErr())
	assert.Equal(t, uint8(14), f.DateTime.Seconds)
}

func TestAbortKeepsEarlierSentences(t *testing.T) {
	d := newDecoder(t, Options{Accumulate: true})
	require.Equal(t, 1, feed(d, ggaLine))
	before := d.Fix()

	// A cut-off RMC reparses time and status before the next '$'.
	feed(d, "$GPRMC,162254.00,A,3723.0")
	feed(d, "$")
	after := d.Fix()
	assert.Equal(t, before.Valid&^fix.ValidOf(fix.FieldTime, fix.FieldStatus, fix.FieldLocation), after.Valid)
	assert.Equal(t, before.Altitude, after.Altitude)
	assert.Equal(t, before.HDOP, after.HDOP)
}

func TestAbortDropsPartialSatellites(t *testing.T) {
	d := newDecoder(t, Options{Accumulate: true})
	require.Equal(t, 1, feed(d, gsvLine))
	require.Len(t, d.Satellites(), 4)

	feed(d, "$GPGSV,3,2,11,01,40,083,46,02,17,308")
	d.Reset()
	assert.Len(t, d.Satellites(), 4)
}

func TestBadTimeDigitVoidsOnlyTime(t *testing.T) {
	d := newDecoder(t, Options{})
	line := string(Frame("GPRMC,16225X.00,A,3723.02837,N,12159.39853,W,0.820,188.36,110706,,,A"))
	require.Equal(t, 1, feed(d, line))

	f := d.Fix()
	assert.False(t, f.Valid.Time())
	assert.True(t, f.Valid.Status())
	assert.True(t, f.Valid.Date())
	assert.True(t, f.Valid.Location())
	assert.Equal(t, int32(373838062), f.Lat)
	assert.Equal(t, uint32(1), d.Stats().Sentences)
}

func TestBadDateDigitVoidsOnlyDate(t *testing.T) {
	d := newDecoder(t, Options{})
	rmc := string(Frame("GPRMC,162254.00,A,3723.02837,N,12159.39853,W,0.820,188.36,11O706,,,A"))
	require.Equal(t, 1, feed(d, rmc))
	assert.False(t, d.Fix().Valid.Date())
	assert.True(t, d.Fix().Valid.Time())

	zda := string(Frame("GPZDA,201530.00,04,07,20X2,00,00"))
	require.Equal(t, 1, feed(d, zda))
	assert.False(t, d.Fix().Valid.Date())
	assert.True(t, d.Fix().Valid.Time())
	assert.Equal(t, uint32(2), d.Stats().Sentences)
}

func TestCorruptedByteNeverValidates(t *testing.T) {
	body := sentence(rmcLine)
	for i := 1; i < len(body); i++ {
		if body[i] == '*' {
			break
		}
		b := []byte(body)
		b[i] ^= 0x01
		if b[i] == '$' || b[i] == '*' {
			continue
		}
		d := newDecoder(t, Options{})
		assert.Equal(t, 0, feed(d, string(b)), "flipped byte %d", i)
	}
}

func TestGGAFields(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 1, feed(d, ggaLine))
	f := d.Fix()

	assert.Equal(t, fix.DateTime{Hours: 9, Minutes: 27, Seconds: 50}, f.DateTime)
	assert.Equal(t, int32(533613367), f.Lat)
	assert.Equal(t, int32(-65056200), f.Lon)
	assert.Equal(t, fix.StatusStandard, f.Status)
	assert.Equal(t, uint8(8), f.Satellites)
	assert.Equal(t, uint16(1030), f.HDOP)
	assert.Equal(t, fix.WholeFrac{Whole: 61, Frac: 70}, f.Altitude)
	assert.Equal(t, fix.WholeFrac{Whole: 55, Frac: 20}, f.GeoidHeight)
	assert.Equal(t, fix.ValidOf(fix.FieldTime, fix.FieldLocation, fix.FieldStatus, fix.FieldSatellites,
		fix.FieldHDOP, fix.FieldAltitude, fix.FieldGeoidHeight), f.Valid)
}

func TestGGANegativeGeoidAndDGPS(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 1, feed(d, gga2Line))
	f := d.Fix()
	assert.Equal(t, fix.StatusDifferential, f.Status)
	assert.Equal(t, uint8(9), f.Satellites)
	assert.Equal(t, uint16(900), f.HDOP)
	assert.Equal(t, fix.WholeFrac{Whole: 12, Frac: 50}, f.Altitude)
	assert.Equal(t, fix.WholeFrac{Whole: -25, Frac: -60}, f.GeoidHeight)
}

func TestGSAFieldsAndTrailingComma(t *testing.T) {
	d := newDecoder(t, Options{Parse: []MsgType{MsgGSA, MsgRMC}})
	require.Equal(t, 1, feed(d, gsaLine))
	f := d.Fix()
	assert.Equal(t, fix.StatusStandard, f.Status)
	assert.Equal(t, uint16(1720), f.PDOP)
	assert.Equal(t, uint16(1030), f.HDOP)
	// VDOP is the last field; it is finished by the synthesized comma.
	assert.True(t, f.Valid.VDOP())
	assert.Equal(t, uint16(1380), f.VDOP)

	sats := d.Satellites()
	ids := make([]uint8, len(sats))
	for i, s := range sats {
		ids[i] = s.ID
	}
	assert.Equal(t, []uint8{10, 7, 5, 2, 29, 4, 8, 13}, ids)
}

func TestGSAIgnoresSatellitesWhenGSVParsed(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 1, feed(d, gsaLine))
	assert.Empty(t, d.Satellites())
}

func TestGSVSatellites(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 2, feed(d, gsvLine+gsv3Line))
	sats := d.Satellites()
	require.Len(t, sats, 7)
	assert.Equal(t, SatelliteView{ID: 10, Elevation: 63, Azimuth: 137, SNR: 17, Tracked: true}, sats[0])
	assert.Equal(t, SatelliteView{ID: 8, Elevation: 54, Azimuth: 157, SNR: 30, Tracked: true}, sats[3])
	assert.Equal(t, SatelliteView{ID: 27, Elevation: 5, Azimuth: 244, SNR: 0, Tracked: true}, sats[6])
}

func TestGSVResetsAtIntervalStart(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 2, feed(d, gsvLine+rmcLine))
	assert.Len(t, d.Satellites(), 4)
	require.Equal(t, 1, feed(d, gsv3Line))
	assert.Len(t, d.Satellites(), 3)
}

func TestGSTErrors(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 1, feed(d, gstLine))
	f := d.Fix()
	assert.Equal(t, fix.DateTime{Hours: 17, Minutes: 28, Seconds: 14}, f.DateTime)
	assert.Equal(t, uint16(2), f.LatErrCM)
	assert.Equal(t, uint16(2), f.LonErrCM)
	assert.True(t, f.Valid.AltErr())
	assert.Equal(t, uint16(3), f.AltErrCM)
}

func TestVTGFields(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 1, feed(d, vtgLine))
	f := d.Fix()
	assert.Equal(t, fix.WholeFrac{Whole: 54, Frac: 70}, f.Heading)
	assert.Equal(t, fix.WholeFrac{Whole: 5, Frac: 500}, f.Speed)
	assert.Equal(t, fix.StatusDifferential, f.Status)
}

func TestZDAFields(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 1, feed(d, zdaLine))
	f := d.Fix()
	assert.Equal(t, fix.DateTime{Year: 2, Month: 7, Date: 4, Hours: 20, Minutes: 15, Seconds: 30}, f.DateTime)
	assert.True(t, f.Valid.Date())
	assert.True(t, f.Valid.Time())
}

func TestGLLFields(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 1, feed(d, gllLine))
	f := d.Fix()
	assert.Equal(t, int32(492741667), f.Lat)
	assert.Equal(t, int32(-1231853333), f.Lon)
	assert.Equal(t, fix.DateTime{Hours: 22, Minutes: 54, Seconds: 44}, f.DateTime)
	assert.Equal(t, fix.StatusStandard, f.Status)
}

func TestSouthEastAndEmptyHeading(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 1, feed(d, rmc2Line))
	f := d.Fix()
	assert.Equal(t, int32(-373838063), f.Lat)
	assert.Equal(t, int32(19899755), f.Lon)
	assert.Equal(t, fix.WholeFrac{Whole: 1, Frac: 500}, f.Speed)
	assert.False(t, f.Valid.Heading())
	assert.Equal(t, fix.StatusDifferential, f.Status)
}

func TestVoidRMC(t *testing.T) {
	d := newDecoder(t, Options{})
	require.Equal(t, 1, feed(d, voidLine))
	f := d.Fix()
	assert.Equal(t, "GN", d.TalkerID())
	assert.True(t, f.Valid.Status())
	assert.Equal(t, fix.StatusNone, f.Status)
	assert.False(t, f.Valid.Location())
	assert.False(t, f.Valid.Speed())
	assert.True(t, f.Valid.Date())
}

func TestFieldsMaskSkipsOtherFields(t *testing.T) {
	d := newDecoder(t, Options{Fields: fix.ValidOf(fix.FieldLocation)})
	require.Equal(t, 1, feed(d, rmcLine))
	f := d.Fix()
	assert.Equal(t, fix.ValidOf(fix.FieldLocation), f.Valid)
	assert.Equal(t, fix.WholeFrac{}, f.Speed)
}

func TestParseSubsetStillRecognizes(t *testing.T) {
	d := newDecoder(t, Options{Parse: []MsgType{MsgRMC}})
	require.Equal(t, 1, feed(d, ggaLine))
	assert.Equal(t, uint32(1), d.Stats().Sentences)
	assert.True(t, d.Fix().Valid.Empty())
}

func TestTalkerFilter(t *testing.T) {
	d := newDecoder(t, Options{Dialect: WithTalkerIDs(Standard{}, "GP")})
	assert.Equal(t, 0, feed(d, voidLine))
	assert.Equal(t, 1, feed(d, rmcLine))
	assert.Equal(t, uint32(1), d.Stats().Sentences)
}

func TestFiltersLeaveInputDialectAlone(t *testing.T) {
	talkers := WithTalkerIDs(Standard{}, "GP")
	ublox := WithMfrIDs(talkers, "UBX")
	sirf := WithMfrIDs(talkers, "SRF")

	assert.True(t, talkers.(MfrFilter).AcceptMfrID([]byte("SRF")))
	assert.True(t, ublox.(MfrFilter).AcceptMfrID([]byte("UBX")))
	assert.False(t, ublox.(MfrFilter).AcceptMfrID([]byte("SRF")))
	assert.True(t, sirf.(MfrFilter).AcceptMfrID([]byte("SRF")))
	assert.False(t, sirf.(MfrFilter).AcceptMfrID([]byte("UBX")))

	// The talker list carries over to the copies.
	assert.False(t, ublox.(TalkerFilter).AcceptTalkerID([]byte("GN")))
	assert.True(t, sirf.(TalkerFilter).AcceptTalkerID([]byte("GP")))
}

func TestChecksumOptional(t *testing.T) {
	line := "$GPGLL,4916.45,N,12311.12,W,225444,A,A\r\n"

	strict := newDecoder(t, Options{})
	assert.Equal(t, 0, feed(strict, line))
	assert.Equal(t, uint32(1), strict.Stats().FramingErrors)

	relaxed := newDecoder(t, Options{ChecksumOptional: true})
	assert.Equal(t, 1, feed(relaxed, line))
	assert.Equal(t, int32(492741667), relaxed.Fix().Lat)

	// A checksum that is present is still checked.
	assert.Equal(t, 1, feed(relaxed, gllLine))
	assert.Equal(t, uint32(2), relaxed.Stats().Sentences)
}

func TestOptionsValidation(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		want string
	}{
		{"negative buffer", Options{FixBuffer: -1}, "fix buffer"},
		{"implicit without accumulate", Options{Merging: ImplicitMerging, FixBuffer: 1}, "implicit merging"},
		{"explicit without buffer", Options{Merging: ExplicitMerging}, "explicit merging"},
		{"unknown last sentence", Options{LastSentence: MsgType(200)}, "last sentence"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestPoll(t *testing.T) {
	d := newDecoder(t, Options{})
	var buf bytes.Buffer
	require.NoError(t, d.Poll(&buf, MsgRMC))
	assert.Equal(t, pollReply, buf.String())
	assert.Error(t, d.Poll(&buf, MsgUnknown))
}

func TestLookup(t *testing.T) {
	mt, ok := Lookup(Standard{}, "gsv")
	require.True(t, ok)
	assert.Equal(t, MsgGSV, mt)
	_, ok = Lookup(Standard{}, "TXT")
	assert.False(t, ok)
}

func TestInterruptProcessingConcurrentReader(t *testing.T) {
	d := newDecoder(t, Options{Processing: Interrupt, FixBuffer: 64})
	const intervals = 50

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < intervals; i++ {
			feed(d, ggaLine+rmcLine)
		}
	}()

	got := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		for d.Available() > 0 {
			if f, ok := d.Read(); ok {
				require.Equal(t, int32(373838062), f.Lat)
				got++
			}
		}
		select {
		case <-done:
			for d.Available() > 0 {
				if _, ok := d.Read(); ok {
					got++
				}
			}
			assert.Equal(t, intervals, got)
			assert.False(t, d.Overrun())
			return
		default:
		}
	}
}
