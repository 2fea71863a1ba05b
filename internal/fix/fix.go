// Package fix defines the fixed-point GPS fix record filled in by the NMEA
// decoder, and the merge rules used to combine the sentences of one
// reporting interval.
package fix

import "time"

// Status is the quality of a fix. The order matters: Merge keeps the
// better of two statuses.
type Status uint8

const (
	StatusNone Status = iota
	StatusEstimated
	StatusTimeOnly
	StatusStandard
	StatusDifferential
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusEstimated:
		return "estimated"
	case StatusTimeOnly:
		return "time_only"
	case StatusStandard:
		return "standard"
	case StatusDifferential:
		return "dgps"
	default:
		return "unknown"
	}
}

// WholeFrac is a signed number stored as separate integer and fractional
// parts. The scale of Frac depends on the field: x1000 for speed, x100 for
// heading and heights.
type WholeFrac struct {
	Whole int16
	Frac  int16
}

// Int32x100 returns the value scaled by 100 (Frac holds two decimals).
func (w WholeFrac) Int32x100() int32 { return int32(w.Whole)*100 + int32(w.Frac) }

// Int32x1000 returns the value scaled by 1000 (Frac holds three decimals).
func (w WholeFrac) Int32x1000() int32 { return int32(w.Whole)*1000 + int32(w.Frac) }

// Float64 returns the value for a Frac holding the given number of decimals.
func (w WholeFrac) Float64(decimals int) float64 {
	scale := 1.0
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	return float64(w.Whole) + float64(w.Frac)/scale
}

// SplitWholeFrac is the inverse of Int32x100/Int32x1000 for the given scale.
func SplitWholeFrac(v int32, scale int32) WholeFrac {
	return WholeFrac{Whole: int16(v / scale), Frac: int16(v % scale)}
}

// DateTime is the UTC date and time of a fix. Year is two digits, 20yy.
type DateTime struct {
	Year    uint8
	Month   uint8
	Date    uint8
	Hours   uint8
	Minutes uint8
	Seconds uint8
}

// Fix is one GPS solution. Only the fields whose bit is set in Valid carry
// meaning; everything is integer so the decoder never touches floats.
type Fix struct {
	Status Status

	DateTime     DateTime
	Centiseconds uint8

	// Degrees x 1e7; south and west are negative.
	Lat int32
	Lon int32

	Altitude    WholeFrac // meters, Frac x100
	GeoidHeight WholeFrac // meters, Frac x100
	Speed       WholeFrac // knots, Frac x1000
	Heading     WholeFrac // degrees, Frac x100

	Satellites uint8

	// Dilution of precision x1000.
	HDOP uint16
	VDOP uint16
	PDOP uint16

	// One-sigma errors in centimeters.
	LatErrCM uint16
	LonErrCM uint16
	AltErrCM uint16

	Valid Valid
}

// Init resets f to the empty fix.
func (f *Fix) Init() { *f = Fix{} }

// Merge copies every field valid in r into f. The status is only replaced
// when it improves on the one f already has. Validity bits are unioned.
func (f *Fix) Merge(r *Fix) {
	if r.Valid.Status() && (!f.Valid.Status() || f.Status < r.Status) {
		f.Status = r.Status
	}
	if r.Valid.Date() {
		f.DateTime.Year = r.DateTime.Year
		f.DateTime.Month = r.DateTime.Month
		f.DateTime.Date = r.DateTime.Date
	}
	if r.Valid.Time() {
		f.DateTime.Hours = r.DateTime.Hours
		f.DateTime.Minutes = r.DateTime.Minutes
		f.DateTime.Seconds = r.DateTime.Seconds
		f.Centiseconds = r.Centiseconds
	}
	if r.Valid.Location() {
		f.Lat = r.Lat
		f.Lon = r.Lon
	}
	if r.Valid.Altitude() {
		f.Altitude = r.Altitude
	}
	if r.Valid.GeoidHeight() {
		f.GeoidHeight = r.GeoidHeight
	}
	if r.Valid.Speed() {
		f.Speed = r.Speed
	}
	if r.Valid.Heading() {
		f.Heading = r.Heading
	}
	if r.Valid.Satellites() {
		f.Satellites = r.Satellites
	}
	if r.Valid.HDOP() {
		f.HDOP = r.HDOP
	}
	if r.Valid.VDOP() {
		f.VDOP = r.VDOP
	}
	if r.Valid.PDOP() {
		f.PDOP = r.PDOP
	}
	if r.Valid.LatErr() {
		f.LatErrCM = r.LatErrCM
	}
	if r.Valid.LonErr() {
		f.LonErrCM = r.LonErrCM
	}
	if r.Valid.AltErr() {
		f.AltErrCM = r.AltErrCM
	}
	f.Valid = f.Valid.Union(r.Valid)
}

// Time returns the UTC instant of the fix, or false unless both date and
// time are valid.
func (f *Fix) Time() (time.Time, bool) {
	if !f.Valid.Date() || !f.Valid.Time() {
		return time.Time{}, false
	}
	dt := f.DateTime
	return time.Date(2000+int(dt.Year), time.Month(dt.Month), int(dt.Date),
		int(dt.Hours), int(dt.Minutes), int(dt.Seconds),
		int(f.Centiseconds)*int(10*time.Millisecond), time.UTC), true
}

func (f *Fix) LatitudeDeg() float64  { return float64(f.Lat) / 1e7 }
func (f *Fix) LongitudeDeg() float64 { return float64(f.Lon) / 1e7 }
func (f *Fix) AltitudeM() float64    { return f.Altitude.Float64(2) }
func (f *Fix) GeoidHeightM() float64 { return f.GeoidHeight.Float64(2) }
func (f *Fix) SpeedKnots() float64   { return f.Speed.Float64(3) }
func (f *Fix) SpeedKph() float64     { return f.SpeedKnots() * 1.852 }
func (f *Fix) HeadingDeg() float64   { return f.Heading.Float64(2) }
func (f *Fix) HDOPf() float64        { return float64(f.HDOP) / 1000 }
func (f *Fix) VDOPf() float64        { return float64(f.VDOP) / 1000 }
func (f *Fix) PDOPf() float64        { return float64(f.PDOP) / 1000 }
