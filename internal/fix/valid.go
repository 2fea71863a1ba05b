package fix

import "strings"

// Field names one validity bit of a Fix.
type Field uint8

const (
	FieldStatus Field = iota
	FieldDate
	FieldTime
	FieldLocation
	FieldAltitude
	FieldSpeed
	FieldHeading
	FieldSatellites
	FieldHDOP
	FieldVDOP
	FieldPDOP
	FieldLatErr
	FieldLonErr
	FieldAltErr
	FieldGeoidHeight

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldStatus:      "status",
	FieldDate:        "date",
	FieldTime:        "time",
	FieldLocation:    "location",
	FieldAltitude:    "altitude",
	FieldSpeed:       "speed",
	FieldHeading:     "heading",
	FieldSatellites:  "satellites",
	FieldHDOP:        "hdop",
	FieldVDOP:        "vdop",
	FieldPDOP:        "pdop",
	FieldLatErr:      "lat_err",
	FieldLonErr:      "lon_err",
	FieldAltErr:      "alt_err",
	FieldGeoidHeight: "geoid_height",
}

func (f Field) String() string {
	if f < fieldCount {
		return fieldNames[f]
	}
	return "unknown"
}

// ParseField maps a configuration name ("hdop", "location", ...) to a Field.
func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Valid is the set of fields holding meaningful values.
type Valid uint16

// AllFields has every validity bit set.
const AllFields Valid = 1<<fieldCount - 1

// ValidOf builds a set from individual fields.
func ValidOf(fields ...Field) Valid {
	var v Valid
	for _, f := range fields {
		v.Set(f)
	}
	return v
}

func (v Valid) Has(f Field) bool { return v&(1<<f) != 0 }

func (v *Valid) Set(f Field) { *v |= 1 << f }

func (v *Valid) Unset(f Field) { *v &^= 1 << f }

// Put sets or clears f.
func (v *Valid) Put(f Field, ok bool) {
	if ok {
		v.Set(f)
	} else {
		v.Unset(f)
	}
}

// Clear empties the set.
func (v *Valid) Clear() { *v = 0 }

// Union returns the fields valid in either set.
func (v Valid) Union(o Valid) Valid { return v | o }

func (v Valid) Empty() bool { return v == 0 }

func (v Valid) Status() bool      { return v.Has(FieldStatus) }
func (v Valid) Date() bool        { return v.Has(FieldDate) }
func (v Valid) Time() bool        { return v.Has(FieldTime) }
func (v Valid) Location() bool    { return v.Has(FieldLocation) }
func (v Valid) Altitude() bool    { return v.Has(FieldAltitude) }
func (v Valid) Speed() bool       { return v.Has(FieldSpeed) }
func (v Valid) Heading() bool     { return v.Has(FieldHeading) }
func (v Valid) Satellites() bool  { return v.Has(FieldSatellites) }
func (v Valid) HDOP() bool        { return v.Has(FieldHDOP) }
func (v Valid) VDOP() bool        { return v.Has(FieldVDOP) }
func (v Valid) PDOP() bool        { return v.Has(FieldPDOP) }
func (v Valid) LatErr() bool      { return v.Has(FieldLatErr) }
func (v Valid) LonErr() bool      { return v.Has(FieldLonErr) }
func (v Valid) AltErr() bool      { return v.Has(FieldAltErr) }
func (v Valid) GeoidHeight() bool { return v.Has(FieldGeoidHeight) }

// Names lists the valid fields in bit order.
func (v Valid) Names() []string {
	var out []string
	for f := Field(0); f < fieldCount; f++ {
		if v.Has(f) {
			out = append(out, f.String())
		}
	}
	return out
}
