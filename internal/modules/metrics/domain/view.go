package domain

import (
	"fmt"
	"time"
)

// ViewState is everything the presentation layer renders. It is derived, never persisted.
type ViewState struct {
	Rows      []MetricRow
	Columns   []Column
	Loading   bool
	Error     string
	Page      int
	PageSize  int
	Total     int
	UpdatedAt time.Time
}

func (v ViewState) CanNext() bool {
	return v.Page*v.PageSize < v.Total
}

func (v ViewState) CanPrev() bool {
	return v.Page > 1
}

func (v ViewState) Summary() string {
	return fmt.Sprintf("Page %d — %d rows", v.Page, v.Total)
}

// Matrix renders the visible rows as strings in column order.
func (v ViewState) Matrix() [][]string {
	out := make([][]string, 0, len(v.Rows))
	for _, row := range v.Rows {
		cells := make([]string, len(v.Columns))
		for i, col := range v.Columns {
			cells[i] = row.Value(col.Key)
		}
		out = append(out, cells)
	}
	return out
}
