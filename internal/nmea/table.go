package nmea

import (
	"fmt"
	"strings"
)

// Entry maps a sentence name (without talker or manufacturer ID) to a type.
type Entry struct {
	Name string
	Type MsgType
}

// Table is an alphabetically ordered set of sentence names. A table with a
// MfrID only matches proprietary sentences ("$P" + MfrID + name).
type Table struct {
	MfrID   string
	Entries []Entry
}

// NewTable checks that entries are sorted and unique.
func NewTable(mfrID string, entries []Entry) (*Table, error) {
	if mfrID != "" && len(mfrID) != mfrIDLen {
		return nil, fmt.Errorf("nmea: manufacturer id %q must be %d characters", mfrID, mfrIDLen)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Name >= entries[i].Name {
			return nil, fmt.Errorf("nmea: table %q not sorted at %q", mfrID, entries[i].Name)
		}
	}
	for _, e := range entries {
		if e.Type == MsgUnknown {
			return nil, fmt.Errorf("nmea: table %q entry %q has no type", mfrID, e.Name)
		}
		if strings.ContainsAny(e.Name, ",*$") {
			return nil, fmt.Errorf("nmea: table %q entry %q has a reserved character", mfrID, e.Name)
		}
	}
	return &Table{MfrID: mfrID, Entries: entries}, nil
}

// MustTable is NewTable for package-level tables.
func MustTable(mfrID string, entries []Entry) *Table {
	t, err := NewTable(mfrID, entries)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) accepts(proprietary bool, mfr []byte) bool {
	if proprietary {
		return t.MfrID != "" && t.MfrID == string(mfr)
	}
	return t.MfrID == ""
}

// StandardTable holds the sentences every receiver emits.
var StandardTable = MustTable("", []Entry{
	{Name: "GGA", Type: MsgGGA},
	{Name: "GLL", Type: MsgGLL},
	{Name: "GSA", Type: MsgGSA},
	{Name: "GST", Type: MsgGST},
	{Name: "GSV", Type: MsgGSV},
	{Name: "RMC", Type: MsgRMC},
	{Name: "VTG", Type: MsgVTG},
	{Name: "ZDA", Type: MsgZDA},
})
