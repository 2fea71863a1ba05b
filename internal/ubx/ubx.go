// Package ubx adds the u-blox proprietary PUBX sentences to the standard
// NMEA dialect.
package ubx

import (
	"fmt"
	"strings"

	"nmeafix/internal/fix"
	"nmeafix/internal/nmea"
)

const (
	// MsgPUBX00 is the "$PUBX,00" position sentence.
	MsgPUBX00 = nmea.MsgStandardEnd + iota
	_
	_
	_
	// MsgPUBX04 is the "$PUBX,04" time sentence. It is only reached by
	// switching from PUBX00 when the subtype field reads 04.
	MsgPUBX04
)

// Table holds the proprietary sentences. Every PUBX sentence has the same
// (empty) name; the subtype in field 1 selects the message.
var Table = nmea.MustTable("UBX", []nmea.Entry{
	{Name: "", Type: MsgPUBX00},
})

// Dialect recognizes PUBX sentences and defers everything else to Base.
type Dialect struct {
	Base nmea.Dialect
}

// New returns the u-blox dialect layered over the standard one.
func New() Dialect { return Dialect{Base: nmea.Standard{}} }

func (u Dialect) base() nmea.Dialect {
	if u.Base == nil {
		return nmea.Standard{}
	}
	return u.Base
}

func (u Dialect) Tables() []*nmea.Table {
	return append([]*nmea.Table{Table}, u.base().Tables()...)
}

func (u Dialect) Fields(t nmea.MsgType) []nmea.FieldParser {
	switch t {
	case MsgPUBX00:
		return pubx00Fields
	case MsgPUBX04:
		return pubx04Fields
	}
	return u.base().Fields(t)
}

func (u Dialect) Name(t nmea.MsgType) (string, bool) {
	switch t {
	case MsgPUBX00:
		return "PUBX,00", true
	case MsgPUBX04:
		return "PUBX,04", true
	}
	return nmea.NameOf(u.base(), t)
}

var pubx00Fields = []nmea.FieldParser{
	1:  parseSubtype,
	2:  (*nmea.Decoder).ParseTime,
	3:  (*nmea.Decoder).ParseLat,
	4:  (*nmea.Decoder).ParseNS,
	5:  (*nmea.Decoder).ParseLon,
	6:  (*nmea.Decoder).ParseEW,
	7:  (*nmea.Decoder).ParseAltitude,
	8:  parseNavStatus,
	11: parseSpeedKph,
	12: (*nmea.Decoder).ParseHeading,
	15: (*nmea.Decoder).ParseHDOP,
	16: (*nmea.Decoder).ParseVDOP,
	18: (*nmea.Decoder).ParseSatellites,
}

var pubx04Fields = []nmea.FieldParser{
	1: parseSubtype,
	2: (*nmea.Decoder).ParseTime,
	3: (*nmea.Decoder).ParseDDMMYY,
}

// parseSubtype accepts "00" and switches to PUBX04 on "04". Other
// subtypes, including echoed PUBX,40 commands, are skipped.
func parseSubtype(d *nmea.Decoder, c byte) bool {
	switch d.CharCount() {
	case 0:
		if c != '0' {
			d.Ignore()
		}
	case 1:
		switch c {
		case '0':
		case '4':
			d.SetMessage(MsgPUBX04)
		default:
			d.Ignore()
		}
	default:
		if c != ',' {
			d.Ignore()
		}
	}
	return true
}

// parseNavStatus maps the two-letter navigation status.
func parseNavStatus(d *nmea.Decoder, c byte) bool {
	if !d.Keeps(fix.FieldStatus) {
		return true
	}
	f := d.Live()
	switch d.CharCount() {
	case 0:
		d.Invalidate(fix.FieldStatus)
		switch c {
		case 'N':
			f.Status = fix.StatusNone
		case 'T':
			f.Status = fix.StatusTimeOnly
		case 'R':
			f.Status = fix.StatusEstimated
		case 'G':
			f.Status = fix.StatusStandard
		case 'D':
			f.Status = fix.StatusDifferential
		default:
			return true
		}
		f.Valid.Set(fix.FieldStatus)
	case 1:
		// "DR" is dead reckoning, not differential.
		if f.Status == fix.StatusDifferential && c == 'R' {
			f.Status = fix.StatusEstimated
		}
	}
	return true
}

// parseSpeedKph reads speed in km/h and stores it in knots.
func parseSpeedKph(d *nmea.Decoder, c byte) bool {
	ok := d.ParseSpeed(c)
	if c == ',' && d.Keeps(fix.FieldSpeed) {
		if f := d.Live(); f.Valid.Speed() {
			f.Speed = KphToKnots(f.Speed)
		}
	}
	return ok
}

// KphToKnots converts a km/h value (Frac x1000) to knots (Frac x1000),
// rounding to nearest.
func KphToKnots(kph fix.WholeFrac) fix.WholeFrac {
	v := int64(kph.Int32x1000()) * 1000
	half := int64(926)
	if v < 0 {
		half = -half
	}
	return fix.SplitWholeFrac(int32((v+half)/1852), 1000)
}

// Port rates for RateCommand, in the order of the PUBX,40 fields.
type Rates struct {
	DDC, USART1, USART2, USB, SPI uint8
}

// AllPorts sets the same rate on every port.
func AllPorts(rate uint8) Rates {
	return Rates{DDC: rate, USART1: rate, USART2: rate, USB: rate, SPI: rate}
}

// RateCommand builds the PUBX,40 body that sets how often msgID (a standard
// sentence name such as "GSV") is emitted, in navigation solutions per
// message. Zero disables it.
func RateCommand(msgID string, r Rates) (string, error) {
	msgID = strings.ToUpper(strings.TrimSpace(msgID))
	if len(msgID) != 3 {
		return "", fmt.Errorf("ubx: message id %q must be 3 characters", msgID)
	}
	return fmt.Sprintf("PUBX,40,%s,%d,%d,%d,%d,%d,0", msgID, r.DDC, r.USART1, r.USART2, r.USB, r.SPI), nil
}
