package domain

import (
	"fmt"
	"strings"

	apperrors "adsdash/internal/platform/errors"
)

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

func (d SortDir) Flip() SortDir {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

func ParseSortDir(raw string) (SortDir, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	}
	return "", fmt.Errorf("%w: sort direction %q", apperrors.ErrInvalidInput, raw)
}

// QuerySpec is the dashboard's filter, sort and page intent. Empty strings mean absent.
// SortDir only carries meaning while SortBy is set.
type QuerySpec struct {
	StartDate string
	EndDate   string
	SortBy    string
	SortDir   SortDir
	Page      int
	PageSize  int
}

func DefaultQuery(pageSize int) QuerySpec {
	if pageSize < 1 {
		pageSize = 1
	}
	return QuerySpec{SortDir: SortAsc, Page: 1, PageSize: pageSize}
}

// Every mutation below except WithPage lands on page 1.

func (q QuerySpec) WithDateRange(start, end string) QuerySpec {
	q.StartDate = strings.TrimSpace(start)
	q.EndDate = strings.TrimSpace(end)
	q.Page = 1
	return q
}

func (q QuerySpec) WithStartDate(start string) QuerySpec {
	return q.WithDateRange(start, q.EndDate)
}

func (q QuerySpec) WithEndDate(end string) QuerySpec {
	return q.WithDateRange(q.StartDate, end)
}

// ToggleSort flips the direction of the current sort column; any other column starts ascending.
func (q QuerySpec) ToggleSort(column string) QuerySpec {
	if q.SortBy != "" && q.SortBy == column {
		q.SortDir = q.SortDir.Flip()
	} else {
		q.SortBy = column
		q.SortDir = SortAsc
	}
	q.Page = 1
	return q
}

func (q QuerySpec) WithSort(column string, dir SortDir) QuerySpec {
	q.SortBy = strings.TrimSpace(column)
	q.SortDir = dir
	if q.SortDir == "" {
		q.SortDir = SortAsc
	}
	q.Page = 1
	return q
}

func (q QuerySpec) WithPageSize(size int) (QuerySpec, error) {
	if size < 1 {
		return q, fmt.Errorf("%w: page size must be at least 1, got %d", apperrors.ErrInvalidInput, size)
	}
	q.PageSize = size
	q.Page = 1
	return q, nil
}

func (q QuerySpec) WithPage(page int) QuerySpec {
	if page < 1 {
		page = 1
	}
	q.Page = page
	return q
}

func (q QuerySpec) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be at least 1, got %d", apperrors.ErrInvalidInput, q.Page)
	}
	if q.PageSize < 1 {
		return fmt.Errorf("%w: page size must be at least 1, got %d", apperrors.ErrInvalidInput, q.PageSize)
	}
	if q.SortDir != SortAsc && q.SortDir != SortDesc {
		return fmt.Errorf("%w: sort direction %q", apperrors.ErrInvalidInput, q.SortDir)
	}
	return nil
}
