package nmea

import (
	"fmt"
	"io"
	"strings"
)

const hexDigits = "0123456789ABCDEF"

// Checksum is the XOR of every byte of body.
func Checksum(body string) byte {
	var crc byte
	for i := 0; i < len(body); i++ {
		crc ^= body[i]
	}
	return crc
}

// Frame returns msg as a complete sentence: "$" + body + "*hh\r\n". A
// leading '$' is optional. A body that already carries a '*' is framed as
// is, without a new checksum.
func Frame(msg string) []byte {
	msg = strings.TrimPrefix(msg, "$")
	buf := make([]byte, 0, len(msg)+6)
	buf = append(buf, '$')
	buf = append(buf, msg...)
	if strings.IndexByte(msg, '*') >= 0 {
		return buf
	}
	crc := Checksum(msg)
	return append(buf, '*', hexDigits[crc>>4], hexDigits[crc&0x0f], '\r', '\n')
}

// Send writes msg to w as a framed sentence. An empty msg writes nothing.
func Send(w io.Writer, msg string) error {
	if msg == "" || msg == "$" {
		return nil
	}
	_, err := w.Write(Frame(msg))
	return err
}

// Poll asks the receiver to emit sentence t once.
func (d *Decoder) Poll(w io.Writer, t MsgType) error {
	if t == MsgUnknown || t >= MsgStandardEnd {
		return fmt.Errorf("nmea: cannot poll message type %d", t)
	}
	return Send(w, "EIGPQ,"+d.Name(t))
}
