package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"adsdash/internal/modules/metrics/domain"
	"adsdash/internal/platform/slug"
)

// WriteCSV writes the visible rows with a label header, in column order.
func WriteCSV(w io.Writer, view domain.ViewState) error {
	headers := make([]string, len(view.Columns))
	for i, col := range view.Columns {
		headers[i] = col.Label
	}
	return WriteTable(w, headers, view.Matrix())
}

func WriteTable(w io.Writer, headers []string, records [][]string) error {
	if len(headers) == 0 {
		return fmt.Errorf("csv requires at least one column")
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ExportFileName names an export after the active filter and page.
func ExportFileName(query domain.QuerySpec, view domain.ViewState) string {
	return slug.FileName("csv", "metrics", query.StartDate, query.EndDate, "page "+strconv.Itoa(view.Page))
}
