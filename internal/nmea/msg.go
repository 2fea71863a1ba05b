// Package nmea decodes NMEA-0183 sentences one byte at a time into fix.Fix
// values, without buffering whole lines and without floating point.
package nmea

// MsgType identifies a recognized sentence.
type MsgType uint8

const (
	MsgUnknown MsgType = iota
	MsgGGA
	MsgGLL
	MsgGSA
	MsgGST
	MsgGSV
	MsgRMC
	MsgVTG
	MsgZDA

	// MsgStandardEnd is the first value free for vendor dialects.
	MsgStandardEnd
)

// Result is the outcome of feeding one character.
type Result uint8

const (
	// CharInvalid means the byte did not fit the current sentence (or no
	// sentence is in progress).
	CharInvalid Result = iota
	// CharOK means the byte was consumed.
	CharOK
	// Completed means a full sentence was received with a good checksum.
	Completed
)

func (r Result) String() string {
	switch r {
	case CharOK:
		return "ok"
	case Completed:
		return "completed"
	default:
		return "invalid"
	}
}

const (
	talkerIDLen = 2
	mfrIDLen    = 3
)
