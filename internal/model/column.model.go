package model

import (
	"errors"
	"fmt"
)

var ErrMissingColumn = errors.New("missing critical column")

type ColumnKey string

const (
	ColumnUsername ColumnKey = "username"
	ColumnDMPref   ColumnKey = "dm_pref"
	ColumnCode     ColumnKey = "code"
	ColumnStatus   ColumnKey = "status"
	ColumnDMStatus ColumnKey = "dm_status"
)

type Column struct {
	Key  ColumnKey
	Name string
}

// ColumnSpec is the ordered set of columns a run needs. Missing columns are
// appended to the sheet in this order.
type ColumnSpec []Column

func DefaultColumnSpec() ColumnSpec {
	return ColumnSpec{
		{Key: ColumnUsername, Name: "Reddit Username:"},
		{Key: ColumnDMPref, Name: "Do You Accept DM Notifications About Your Match?"},
		{Key: ColumnCode, Name: "Code"},
		{Key: ColumnStatus, Name: "Status"},
		{Key: ColumnDMStatus, Name: "DM Status"},
	}
}

// ColumnMap maps a logical column to its 1-based position in the sheet.
type ColumnMap map[ColumnKey]int

// Validate fails with ErrMissingColumn if any column of spec is unmapped.
func (m ColumnMap) Validate(spec ColumnSpec) error {
	for _, c := range spec {
		if m[c.Key] < 1 {
			return fmt.Errorf("%w: '%s'", ErrMissingColumn, c.Name)
		}
	}
	return nil
}
