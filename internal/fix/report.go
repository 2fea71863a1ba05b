package fix

import "time"

// Report is the JSON view of a Fix. Fields that are not valid are omitted.
type Report struct {
	Status string `json:"status,omitempty"`
	UTC    string `json:"utc,omitempty"`
	Date   string `json:"date,omitempty"`
	Time   string `json:"time,omitempty"`

	LatE7  *int32   `json:"lat_e7,omitempty"`
	LonE7  *int32   `json:"lon_e7,omitempty"`
	LatDeg *float64 `json:"lat_deg,omitempty"`
	LonDeg *float64 `json:"lon_deg,omitempty"`

	AltitudeM    *float64 `json:"alt_m,omitempty"`
	GeoidHeightM *float64 `json:"geoid_height_m,omitempty"`
	SpeedKnots   *float64 `json:"speed_kt,omitempty"`
	HeadingDeg   *float64 `json:"heading_deg,omitempty"`
	Satellites   *int     `json:"satellites,omitempty"`

	HDOP *float64 `json:"hdop,omitempty"`
	VDOP *float64 `json:"vdop,omitempty"`
	PDOP *float64 `json:"pdop,omitempty"`

	LatErrM *float64 `json:"lat_err_m,omitempty"`
	LonErrM *float64 `json:"lon_err_m,omitempty"`
	AltErrM *float64 `json:"alt_err_m,omitempty"`

	Valid []string `json:"valid,omitempty"`
}

func ptrF(v float64) *float64 { return &v }

// Report builds the JSON view of f.
func (f *Fix) Report() Report {
	var r Report
	v := f.Valid
	if v.Status() {
		r.Status = f.Status.String()
	}
	dt := f.DateTime
	if v.Date() {
		r.Date = time.Date(2000+int(dt.Year), time.Month(dt.Month), int(dt.Date), 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	}
	if v.Time() {
		r.Time = time.Date(2000, 1, 1, int(dt.Hours), int(dt.Minutes), int(dt.Seconds),
			int(f.Centiseconds)*int(10*time.Millisecond), time.UTC).Format("15:04:05.00")
	}
	if t, ok := f.Time(); ok {
		r.UTC = t.Format(time.RFC3339Nano)
	}
	if v.Location() {
		lat, lon := f.Lat, f.Lon
		r.LatE7, r.LonE7 = &lat, &lon
		r.LatDeg, r.LonDeg = ptrF(f.LatitudeDeg()), ptrF(f.LongitudeDeg())
	}
	if v.Altitude() {
		r.AltitudeM = ptrF(f.AltitudeM())
	}
	if v.GeoidHeight() {
		r.GeoidHeightM = ptrF(f.GeoidHeightM())
	}
	if v.Speed() {
		r.SpeedKnots = ptrF(f.SpeedKnots())
	}
	if v.Heading() {
		r.HeadingDeg = ptrF(f.HeadingDeg())
	}
	if v.Satellites() {
		n := int(f.Satellites)
		r.Satellites = &n
	}
	if v.HDOP() {
		r.HDOP = ptrF(f.HDOPf())
	}
	if v.VDOP() {
		r.VDOP = ptrF(f.VDOPf())
	}
	if v.PDOP() {
		r.PDOP = ptrF(f.PDOPf())
	}
	if v.LatErr() {
		r.LatErrM = ptrF(float64(f.LatErrCM) / 100)
	}
	if v.LonErr() {
		r.LonErrM = ptrF(float64(f.LonErrCM) / 100)
	}
	if v.AltErr() {
		r.AltErrM = ptrF(float64(f.AltErrCM) / 100)
	}
	r.Valid = v.Names()
	return r
}
