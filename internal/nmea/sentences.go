package nmea

import (
	"nmeafix/internal/fix"
	"nmeafix/internal/fixedpt"
)

// MaxSatellites bounds the satellite view array filled from GSV (or GSA).
const MaxSatellites = 20

// SatelliteView is one entry of the satellites-in-view list.
type SatelliteView struct {
	ID        uint8  `json:"id"`
	Elevation uint8  `json:"elevation"` // degrees
	Azimuth   uint16 `json:"azimuth"`   // degrees
	SNR       uint8  `json:"snr"`       // dB-Hz
	Tracked   bool   `json:"tracked"`
}

func fields(n int, m map[int]FieldParser) []FieldParser {
	out := make([]FieldParser, n)
	for i, p := range m {
		out[i] = p
	}
	return out
}

func location(first int, m map[int]FieldParser) map[int]FieldParser {
	m[first] = (*Decoder).ParseLat
	m[first+1] = (*Decoder).ParseNS
	m[first+2] = (*Decoder).ParseLon
	m[first+3] = (*Decoder).ParseEW
	return m
}

var standardFields = [MsgStandardEnd][]FieldParser{
	MsgGGA: fields(12, location(2, map[int]FieldParser{
		1:  (*Decoder).ParseTime,
		6:  (*Decoder).ParseStatus,
		7:  (*Decoder).ParseSatellites,
		8:  (*Decoder).ParseHDOP,
		9:  (*Decoder).ParseAltitude,
		11: (*Decoder).ParseGeoidHeight,
	})),
	MsgGLL: fields(8, location(1, map[int]FieldParser{
		5: (*Decoder).ParseTime,
		7: (*Decoder).ParseStatus,
	})),
	MsgGSA: gsaFields(),
	MsgGST: fields(9, map[int]FieldParser{
		1: (*Decoder).ParseTime,
		6: (*Decoder).ParseLatErr,
		7: (*Decoder).ParseLonErr,
		8: (*Decoder).ParseAltErr,
	}),
	MsgGSV: gsvFields(),
	MsgRMC: fields(13, location(3, map[int]FieldParser{
		1:  (*Decoder).ParseTime,
		2:  (*Decoder).ParseStatus,
		7:  (*Decoder).ParseSpeed,
		8:  (*Decoder).ParseHeading,
		9:  (*Decoder).ParseDDMMYY,
		12: (*Decoder).ParseStatus,
	})),
	MsgVTG: fields(10, map[int]FieldParser{
		1: (*Decoder).ParseHeading,
		5: (*Decoder).ParseSpeed,
		9: (*Decoder).ParseStatus,
	}),
	MsgZDA: fields(5, map[int]FieldParser{
		1: (*Decoder).ParseTime,
		2: (*Decoder).parseZDADay,
		3: (*Decoder).parseZDAMonth,
		4: (*Decoder).parseZDAYear,
	}),
}

func gsaFields() []FieldParser {
	out := make([]FieldParser, 18)
	out[2] = (*Decoder).parseGSAMode
	for i := 3; i <= 14; i++ {
		out[i] = (*Decoder).parseGSASatellite
	}
	out[15] = (*Decoder).ParsePDOP
	out[16] = (*Decoder).ParseHDOP
	out[17] = (*Decoder).ParseVDOP
	return out
}

func gsvFields() []FieldParser {
	// Four fields per satellite after the header fields; receivers report
	// at most four satellites per sentence but some pack more.
	out := make([]FieldParser, 4+4*MaxSatellites)
	for i := 4; i < len(out); i++ {
		out[i] = (*Decoder).parseGSVSatellite
	}
	return out
}

// parseGSAMode reads the 1/2/3 fix mode.
func (d *Decoder) parseGSAMode(c byte) bool {
	if !d.Keeps(fix.FieldStatus) || d.ctx.count != 0 {
		return true
	}
	switch c {
	case '2', '3':
		d.Invalidate(fix.FieldStatus)
		d.live.Status = fix.StatusStandard
		d.live.Valid.Set(fix.FieldStatus)
	case '1':
		d.Invalidate(fix.FieldStatus)
		d.live.Status = fix.StatusNone
		d.live.Valid.Set(fix.FieldStatus)
	}
	return true
}

// parseGSASatellite collects the PRNs used in the solution. GSV has the
// richer view, so GSA only fills the array when GSV is not parsed.
func (d *Decoder) parseGSASatellite(c byte) bool {
	if d.parses(MsgGSV) {
		return true
	}
	if d.fieldIndex == 3 && d.ctx.count == 0 {
		d.satCount = 0
		d.satsReset = true
	}
	if c == ',' {
		if d.ctx.count > 0 && d.satCount < MaxSatellites {
			d.satCount++
		}
		return true
	}
	if d.satCount >= MaxSatellites {
		return true
	}
	if d.ctx.count == 0 {
		d.sats[d.satCount] = SatelliteView{}
	}
	d.parseUint8(&d.sats[d.satCount].ID, c)
	return true
}

// parseGSVSatellite fills one id,elevation,azimuth,snr group. The group
// is claimed when its id starts, so empty trailing groups are ignored.
func (d *Decoder) parseGSVSatellite(c byte) bool {
	ctx := &d.ctx
	if d.fieldIndex%4 == 0 && ctx.count == 0 {
		ctx.groupValid = c != ',' && d.satCount < MaxSatellites
		if ctx.groupValid {
			d.sats[d.satCount] = SatelliteView{}
			d.satCount++
		}
	}
	if !ctx.groupValid {
		return true
	}
	sat := &d.sats[d.satCount-1]
	switch d.fieldIndex % 4 {
	case 0:
		d.parseUint8(&sat.ID, c)
	case 1:
		d.parseUint8(&sat.Elevation, c)
	case 2:
		d.parseUint16(&sat.Azimuth, c)
	case 3:
		if c == ',' {
			sat.Tracked = ctx.count != 0
		} else {
			d.parseUint8(&sat.SNR, c)
			d.CommaNeeded()
		}
	}
	return true
}

func (d *Decoder) parseZDADay(c byte) bool {
	if !d.Keeps(fix.FieldDate) {
		return true
	}
	if d.ctx.count == 0 {
		d.Invalidate(fix.FieldDate)
	}
	d.parseUint8(&d.live.DateTime.Date, c)
	return true
}

func (d *Decoder) parseZDAMonth(c byte) bool {
	if !d.Keeps(fix.FieldDate) {
		return true
	}
	d.parseUint8(&d.live.DateTime.Month, c)
	return true
}

// parseZDAYear keeps the last two digits of the four-digit year, collected
// as BCD until the comma.
func (d *Decoder) parseZDAYear(c byte) bool {
	if !d.Keeps(fix.FieldDate) {
		return true
	}
	ctx := &d.ctx
	if ctx.bad {
		return true
	}
	if c == ',' {
		if ctx.count != 0 {
			d.live.DateTime.Year = fixedpt.BCDToBinary(uint8(ctx.scratch))
			d.live.Valid.Set(fix.FieldDate)
		}
		return true
	}
	v, ok := fixedpt.Digit(c)
	if !ok {
		return d.badField(fix.FieldDate)
	}
	if ctx.count == 0 {
		d.CommaNeeded()
	}
	ctx.scratch = fixedpt.AppendBCD(ctx.scratch, v)
	return true
}
