package nmea

import (
	"nmeafix/internal/fix"
	"nmeafix/internal/fixedpt"
)

// fieldContext is the per-field parse state. It is reset at every comma,
// except groupValid which spans the fields of a multi-field group such as
// lat,N,lon,W.
type fieldContext struct {
	count       int    // characters seen in the current field
	decimals    uint8  // 0 before '.', then 1 + fractional digits kept
	negative    bool   // leading '-'
	groupValid  bool   // current multi-field group is still usable
	commaNeeded bool   // the field parser must see its terminator
	bad         bool   // the current field held a bad character
	scratch     uint32 // integer accumulator for the current field
}

func (c *fieldContext) nextField() {
	c.count = 0
	c.decimals = 0
	c.negative = false
	c.bad = false
	c.scratch = 0
}

// CommaNeeded asks for the field terminator to be delivered even when the
// checksum follows the field directly ("...,12.5*3F").
func (d *Decoder) CommaNeeded() { d.ctx.commaNeeded = true }

// Keeps reports whether f is collected by this decoder.
func (d *Decoder) Keeps(f fix.Field) bool { return d.keep.Has(f) }

// Invalidate clears f on the live fix before it is reparsed. Without
// accumulation the whole fix was already cleared at the sentence header.
func (d *Decoder) Invalidate(f fix.Field) {
	d.touched.Set(f)
	if d.opts.Accumulate {
		d.live.Valid.Unset(f)
	}
}

// badField voids f for the rest of the current field. The sentence itself
// stays usable.
func (d *Decoder) badField(f fix.Field) bool {
	d.ctx.bad = true
	d.touched.Set(f)
	d.live.Valid.Unset(f)
	return true
}

// ParseStatus reads a one-character fix status code.
func (d *Decoder) ParseStatus(c byte) bool {
	if !d.Keeps(fix.FieldStatus) || d.ctx.count != 0 {
		return true
	}
	d.Invalidate(fix.FieldStatus)
	var s fix.Status
	switch c {
	case '1', 'A':
		s = fix.StatusStandard
	case '0', 'N', 'V':
		s = fix.StatusNone
	case '2', 'D':
		s = fix.StatusDifferential
	case '6', 'E':
		s = fix.StatusEstimated
	default:
		return true
	}
	d.live.Status = s
	d.live.Valid.Set(fix.FieldStatus)
	return true
}

// ParseTime reads hhmmss[.ss]. The time is valid once the seconds are in;
// centiseconds refine it when present.
func (d *Decoder) ParseTime(c byte) bool {
	if !d.Keeps(fix.FieldTime) || c == ',' || d.ctx.bad {
		return true
	}
	switch {
	case d.ctx.count == 6:
		if c != '.' {
			return d.badField(fix.FieldTime)
		}
		return true
	case d.ctx.count > 8:
		return true
	}
	v, ok := fixedpt.Digit(c)
	if !ok {
		return d.badField(fix.FieldTime)
	}
	dt := &d.live.DateTime
	switch d.ctx.count {
	case 0:
		d.Invalidate(fix.FieldTime)
		dt.Hours = v * 10
	case 1:
		dt.Hours += v
	case 2:
		dt.Minutes = v * 10
	case 3:
		dt.Minutes += v
	case 4:
		dt.Seconds = v * 10
	case 5:
		dt.Seconds += v
		d.live.Centiseconds = 0
		d.live.Valid.Set(fix.FieldTime)
	case 7:
		d.live.Centiseconds = v * 10
	case 8:
		d.live.Centiseconds += v
	}
	return true
}

// ParseDDMMYY reads a date field.
func (d *Decoder) ParseDDMMYY(c byte) bool {
	if !d.Keeps(fix.FieldDate) || c == ',' || d.ctx.bad {
		return true
	}
	v, ok := fixedpt.Digit(c)
	if !ok {
		return d.badField(fix.FieldDate)
	}
	dt := &d.live.DateTime
	switch d.ctx.count {
	case 0:
		d.Invalidate(fix.FieldDate)
		dt.Date = v * 10
	case 1:
		dt.Date += v
	case 2:
		dt.Month = v * 10
	case 3:
		dt.Month += v
	case 4:
		dt.Year = v * 10
	case 5:
		dt.Year += v
		d.live.Valid.Set(fix.FieldDate)
	}
	return true
}

// parseDDDMM accumulates dddmm.mmmmm into *val as degrees x 1e7.
func (d *Decoder) parseDDDMM(val *int32, c byte) {
	ctx := &d.ctx
	if ctx.count == 0 {
		ctx.scratch = 0
		ctx.decimals = 0
		d.CommaNeeded()
	}

	if c == '.' || (c == ',' && ctx.decimals == 0) {
		// All but the last two integer digits were degrees.
		ctx.decimals = 1
		ctx.scratch = fixedpt.BCDMinutes(ctx.scratch)
		if c == '.' {
			return
		}
	}

	switch {
	case c == ',':
		if ctx.decimals <= 6 {
			v := ctx.scratch * fixedpt.MinutesScale(ctx.decimals)
			ctx.scratch = fixedpt.MinutesToDegrees(v)
		}
		*val = int32(ctx.scratch)
	case ctx.decimals == 0:
		v, _ := fixedpt.Digit(c)
		ctx.scratch = fixedpt.AppendBCD(ctx.scratch, v)
	default:
		ctx.decimals++
		v, _ := fixedpt.Digit(c)
		switch {
		case ctx.decimals <= 6:
			ctx.scratch = ctx.scratch*10 + uint32(v)
		case ctx.decimals == 7:
			// A sixth minutes digit is below the resolution kept; round on it.
			ctx.scratch = fixedpt.RoundSixthDigit(ctx.scratch, c)
		}
	}
}

// ParseLat starts the lat,N,lon,W group. An empty latitude voids the group.
func (d *Decoder) ParseLat(c byte) bool {
	if !d.Keeps(fix.FieldLocation) {
		return true
	}
	if d.ctx.count == 0 {
		d.ctx.groupValid = c != ','
		if d.ctx.groupValid {
			d.Invalidate(fix.FieldLocation)
		}
	}
	if d.ctx.groupValid {
		d.parseDDDMM(&d.live.Lat, c)
	}
	return true
}

func (d *Decoder) ParseNS(c byte) bool {
	if d.Keeps(fix.FieldLocation) && d.ctx.groupValid && c == 'S' {
		d.live.Lat = -d.live.Lat
	}
	return true
}

func (d *Decoder) ParseLon(c byte) bool {
	if !d.Keeps(fix.FieldLocation) {
		return true
	}
	if c == ',' && d.ctx.count == 0 {
		d.ctx.groupValid = false
	}
	if d.ctx.groupValid {
		d.parseDDDMM(&d.live.Lon, c)
	}
	return true
}

// ParseEW closes the location group.
func (d *Decoder) ParseEW(c byte) bool {
	if !d.Keeps(fix.FieldLocation) || !d.ctx.groupValid {
		return true
	}
	if c == 'W' {
		d.live.Lon = -d.live.Lon
	}
	d.live.Valid.Set(fix.FieldLocation)
	return true
}

// parseWholeFrac accumulates [-]whole[.frac] into *val, keeping at most
// maxDecimals fractional digits. It returns true at the terminating comma.
func (d *Decoder) parseWholeFrac(val *fix.WholeFrac, c byte, maxDecimals uint8) bool {
	ctx := &d.ctx
	if ctx.count == 0 {
		*val = fix.WholeFrac{}
		d.CommaNeeded()
		ctx.decimals = 0
		ctx.negative = c == '-'
		if ctx.negative {
			return false
		}
	}

	switch {
	case c == ',':
		val.Frac = int16(fixedpt.ScaleFraction(int32(val.Frac), ctx.decimals, maxDecimals))
		if ctx.negative {
			val.Whole = -val.Whole
			val.Frac = -val.Frac
		}
		return true
	case c == '.':
		ctx.decimals = 1
	case ctx.decimals == 0:
		v, _ := fixedpt.Digit(c)
		val.Whole = val.Whole*10 + int16(v)
	default:
		if ctx.decimals <= maxDecimals {
			v, _ := fixedpt.Digit(c)
			val.Frac = val.Frac*10 + int16(v)
		}
		ctx.decimals++
	}
	return false
}

// parseScaled accumulates an unsigned whole.frac field as an integer
// scaled by 10^maxDecimals, saturating at the uint16 range. The integer
// value lives in the field scratch so a missing '.' still scales.
func (d *Decoder) parseScaled(val *uint16, c byte, maxDecimals uint8) bool {
	ctx := &d.ctx
	if ctx.count == 0 {
		*val = 0
		d.CommaNeeded()
		ctx.decimals = 0
		ctx.scratch = 0
	}

	switch {
	case c == ',':
		v := ctx.scratch
		if ctx.decimals == 0 {
			ctx.decimals = 1
		}
		for ; ctx.decimals <= maxDecimals; ctx.decimals++ {
			v *= 10
			if v > 0xffff {
				break
			}
		}
		*val = fixedpt.SaturateUint16(v)
		return true
	case c == '.':
		ctx.decimals = 1
	default:
		if ctx.decimals <= maxDecimals && ctx.scratch <= 0xffff {
			v, _ := fixedpt.Digit(c)
			ctx.scratch = ctx.scratch*10 + uint32(v)
		}
		if ctx.decimals > 0 {
			ctx.decimals++
		}
	}
	return false
}

func (d *Decoder) wholeFracField(f fix.Field, val *fix.WholeFrac, c byte, maxDecimals uint8) bool {
	if !d.Keeps(f) {
		return true
	}
	if d.ctx.count == 0 {
		d.Invalidate(f)
	}
	if d.parseWholeFrac(val, c, maxDecimals) {
		d.live.Valid.Put(f, d.ctx.count != 0)
	}
	return true
}

func (d *Decoder) scaledField(f fix.Field, val *uint16, c byte, maxDecimals uint8) bool {
	if !d.Keeps(f) {
		return true
	}
	if d.ctx.count == 0 {
		d.Invalidate(f)
	}
	if d.parseScaled(val, c, maxDecimals) {
		d.live.Valid.Put(f, d.ctx.count != 0)
	}
	return true
}

// ParseSpeed reads speed over ground in knots.
func (d *Decoder) ParseSpeed(c byte) bool {
	return d.wholeFracField(fix.FieldSpeed, &d.live.Speed, c, 3)
}

// ParseHeading reads true course over ground in degrees.
func (d *Decoder) ParseHeading(c byte) bool {
	return d.wholeFracField(fix.FieldHeading, &d.live.Heading, c, 2)
}

// ParseAltitude reads altitude above mean sea level in meters.
func (d *Decoder) ParseAltitude(c byte) bool {
	return d.wholeFracField(fix.FieldAltitude, &d.live.Altitude, c, 2)
}

func (d *Decoder) ParseGeoidHeight(c byte) bool {
	return d.wholeFracField(fix.FieldGeoidHeight, &d.live.GeoidHeight, c, 2)
}

func (d *Decoder) ParseHDOP(c byte) bool { return d.scaledField(fix.FieldHDOP, &d.live.HDOP, c, 3) }
func (d *Decoder) ParseVDOP(c byte) bool { return d.scaledField(fix.FieldVDOP, &d.live.VDOP, c, 3) }
func (d *Decoder) ParsePDOP(c byte) bool { return d.scaledField(fix.FieldPDOP, &d.live.PDOP, c, 3) }

// ParseLatErr and friends read one-sigma errors in meters, kept in cm.
func (d *Decoder) ParseLatErr(c byte) bool {
	return d.scaledField(fix.FieldLatErr, &d.live.LatErrCM, c, 2)
}

func (d *Decoder) ParseLonErr(c byte) bool {
	return d.scaledField(fix.FieldLonErr, &d.live.LonErrCM, c, 2)
}

func (d *Decoder) ParseAltErr(c byte) bool {
	return d.scaledField(fix.FieldAltErr, &d.live.AltErrCM, c, 2)
}

// ParseSatellites reads the number of satellites used.
func (d *Decoder) ParseSatellites(c byte) bool {
	if !d.Keeps(fix.FieldSatellites) {
		return true
	}
	if d.ctx.count == 0 {
		d.Invalidate(fix.FieldSatellites)
	}
	if d.parseUint8(&d.live.Satellites, c) {
		d.live.Valid.Set(fix.FieldSatellites)
	}
	return true
}

// parseUint8 accumulates a decimal integer. It returns false for an empty
// field.
func (d *Decoder) parseUint8(val *uint8, c byte) bool {
	if c == ',' {
		return d.ctx.count != 0
	}
	v, _ := fixedpt.Digit(c)
	if d.ctx.count == 0 {
		*val = v
	} else {
		*val = *val*10 + v
	}
	return true
}

func (d *Decoder) parseUint16(val *uint16, c byte) bool {
	if c == ',' {
		return d.ctx.count != 0
	}
	v, _ := fixedpt.Digit(c)
	if d.ctx.count == 0 {
		*val = uint16(v)
	} else {
		*val = *val*10 + uint16(v)
	}
	return true
}
