// Package fixedpt holds the integer-only arithmetic the NMEA field parsers
// use to build fixed-point values one character at a time.
package fixedpt

// Digit returns the value of an ASCII decimal digit.
func Digit(c byte) (uint8, bool) {
	if c < '0' || c > '9' {
		return 0, false
	}
	return c - '0', true
}

// BCDToBinary converts one packed BCD byte (two decimal digits) to binary.
func BCDToBinary(v uint8) uint8 {
	return (v>>4)*10 + v&0x0f
}

// Div3 divides by three with shifts and adds only.
func Div3(n uint32) uint32 {
	q := (n >> 2) + (n >> 4)
	q += q >> 4
	q += q >> 8
	q += q >> 16
	r := n - q*3
	return q + (11*r)>>5
}

// Pow10 returns 10^n for n <= 9.
func Pow10(n uint8) uint32 {
	v := uint32(1)
	for ; n > 0; n-- {
		v *= 10
	}
	return v
}

// ScaleFraction pads a fraction out to maxDecimals digits. decimals is the
// running count used by the parsers: 0 before any '.', then one plus the
// number of fractional digits kept. A zero fraction stays zero.
func ScaleFraction(frac int32, decimals, maxDecimals uint8) int32 {
	if frac == 0 {
		return 0
	}
	if decimals == 0 {
		decimals = 1
	}
	for ; decimals <= maxDecimals; decimals++ {
		frac *= 10
	}
	return frac
}

// SaturateUint16 clamps v into the uint16 range.
func SaturateUint16(v uint32) uint16 {
	if v > 0xffff {
		return 0xffff
	}
	return uint16(v)
}
