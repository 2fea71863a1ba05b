package nmea

// Stats counts decoder outcomes since construction.
type Stats struct {
	Sentences      uint32 `json:"sentences"`
	ChecksumErrors uint32 `json:"checksum_errors"`
	FramingErrors  uint32 `json:"framing_errors"`
	Chars          uint32 `json:"chars"`
}
