package nmea

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	msgA MsgType = MsgStandardEnd + iota
	msgB
	msgC
	msgP
)

// recognize runs a header (after '$', including the comma) through a
// recognizer over tables.
func recognize(tables []*Table, header string) (MsgType, bool) {
	d := &Decoder{}
	d.recog.tables = tables
	d.propOK = d.recog.hasProprietary()
	d.sentenceBegin()
	for i := 0; i < len(header); i++ {
		switch d.parseCommand(header[i]) {
		case CharOK:
			d.ctx.count++
		case Completed:
			return d.msg, true
		default:
			return MsgUnknown, false
		}
	}
	return MsgUnknown, false
}

func TestRecognizeStandard(t *testing.T) {
	tables := []*Table{StandardTable}
	for _, e := range StandardTable.Entries {
		mt, ok := recognize(tables, "GP"+e.Name+",")
		require.True(t, ok, e.Name)
		assert.Equal(t, e.Type, mt)
	}
	for _, h := range []string{"GPGG,", "GPGGAA,", "GPXYZ,", "G,", "GPRMB,", "GP,"} {
		_, ok := recognize(tables, h)
		assert.False(t, ok, h)
	}
}

func TestRecognizeFallsBackToLaterTables(t *testing.T) {
	ext := MustTable("", []Entry{{Name: "GSAX", Type: msgA}, {Name: "TXT", Type: msgB}})
	tables := []*Table{ext, StandardTable}

	mt, ok := recognize(tables, "GPGSAX,")
	require.True(t, ok)
	assert.Equal(t, msgA, mt)

	mt, ok = recognize(tables, "GPGSA,")
	require.True(t, ok)
	assert.Equal(t, MsgGSA, mt)

	mt, ok = recognize(tables, "GPGSV,")
	require.True(t, ok)
	assert.Equal(t, MsgGSV, mt)

	mt, ok = recognize(tables, "GPTXT,")
	require.True(t, ok)
	assert.Equal(t, msgB, mt)
}

func TestRecognizePrefixNames(t *testing.T) {
	tb := MustTable("", []Entry{{Name: "AB", Type: msgA}, {Name: "ABC", Type: msgB}, {Name: "ABD", Type: msgC}})
	tables := []*Table{tb}

	cases := map[string]MsgType{"XXAB,": msgA, "XXABC,": msgB, "XXABD,": msgC}
	for h, want := range cases {
		mt, ok := recognize(tables, h)
		require.True(t, ok, h)
		assert.Equal(t, want, mt, h)
	}
	_, ok := recognize(tables, "XXA,")
	assert.False(t, ok)
}

func TestRecognizeProprietary(t *testing.T) {
	prop := MustTable("ABC", []Entry{{Name: "", Type: msgP}, {Name: "Z", Type: msgA}})
	tables := []*Table{prop, StandardTable}

	mt, ok := recognize(tables, "PABC,")
	require.True(t, ok)
	assert.Equal(t, msgP, mt)

	mt, ok = recognize(tables, "PABCZ,")
	require.True(t, ok)
	assert.Equal(t, msgA, mt)

	_, ok = recognize(tables, "PXYZ,")
	assert.False(t, ok)

	mt, ok = recognize(tables, "GPRMC,")
	require.True(t, ok)
	assert.Equal(t, MsgRMC, mt)
}

func TestNewTableRejectsUnsorted(t *testing.T) {
	_, err := NewTable("", []Entry{{Name: "RMC", Type: MsgRMC}, {Name: "GGA", Type: MsgGGA}})
	assert.Error(t, err)
	_, err = NewTable("TOOLONG", nil)
	assert.Error(t, err)
	_, err = NewTable("", []Entry{{Name: "X", Type: MsgUnknown}})
	assert.Error(t, err)
}
