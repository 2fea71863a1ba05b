package fixedpt

// Coordinates arrive as dddmm.mmmmm. The integer part is collected as BCD
// nibbles because the number of degree digits is only known once the '.'
// (or the field end) shows up.

// AppendBCD shifts one more decimal digit into a packed BCD accumulator.
func AppendBCD(acc uint32, digit uint8) uint32 {
	return acc<<4 | uint32(digit&0x0f)
}

// BCDMinutes converts a packed BCD dddmm accumulator into whole minutes.
func BCDMinutes(acc uint32) uint32 {
	deg := uint32(BCDToBinary(uint8(acc >> 8)))
	if (acc>>16)&0xff != 0 {
		deg += 100
	}
	min := uint32(BCDToBinary(uint8(acc)))
	return deg*60 + min
}

// MinutesScale returns the factor that brings a minutes value holding
// decimals-1 fractional digits to minutes x 1e5. decimals follows the
// convention of ScaleFraction.
func MinutesScale(decimals uint8) uint32 {
	if decimals == 0 {
		decimals = 1
	}
	if decimals >= 6 {
		return 1
	}
	return Pow10(6 - decimals)
}

// MinutesToDegrees converts minutes x 1e5 to degrees x 1e7, rounding to
// nearest. Equivalent to v*5/3 without the intermediate overflow.
func MinutesToDegrees(v uint32) uint32 {
	return v + Div3(v*2+1)
}

// RoundSixthDigit converts minutes x 1e5 to degrees x 1e7 while the sixth
// fractional minutes digit is still at hand, rounding on it.
func RoundSixthDigit(v uint32, c byte) uint32 {
	v = MinutesToDegrees(v)
	switch {
	case c >= '9':
		v += 2
	case c >= '4':
		v++
	}
	return v
}
