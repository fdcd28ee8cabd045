package domain_test

import (
	"errors"
	"testing"

	"adsdash/internal/modules/metrics/domain"
	apperrors "adsdash/internal/platform/errors"
)

func TestMutationsResetPage(t *testing.T) {
	t.Parallel()
	base := domain.DefaultQuery(100).WithPage(4)

	if got := base.WithStartDate("2024-01-01"); got.Page != 1 || got.StartDate != "2024-01-01" {
		t.Fatalf("start date: %+v", got)
	}
	if got := base.WithEndDate("2024-01-31"); got.Page != 1 || got.EndDate != "2024-01-31" {
		t.Fatalf("end date: %+v", got)
	}
	if got := base.ToggleSort(domain.ColumnClicks); got.Page != 1 {
		t.Fatalf("sort must reset page, got %d", got.Page)
	}
	got, err := base.WithPageSize(25)
	if err != nil || got.Page != 1 || got.PageSize != 25 {
		t.Fatalf("page size: %+v err=%v", got, err)
	}
	if base.Page != 4 {
		t.Fatalf("mutations must not alter the receiver")
	}
}

func TestToggleSort(t *testing.T) {
	t.Parallel()
	q := domain.DefaultQuery(10).ToggleSort(domain.ColumnImpressions)
	if q.SortBy != domain.ColumnImpressions || q.SortDir != domain.SortAsc {
		t.Fatalf("new column must start asc: %+v", q)
	}
	q = q.ToggleSort(domain.ColumnImpressions)
	if q.SortDir != domain.SortDesc {
		t.Fatalf("same column must flip: %+v", q)
	}
	q = q.ToggleSort(domain.ColumnImpressions)
	if q.SortDir != domain.SortAsc {
		t.Fatalf("toggle twice must return to asc: %+v", q)
	}
	q = q.ToggleSort(domain.ColumnImpressions).ToggleSort(domain.ColumnDate)
	if q.SortBy != domain.ColumnDate || q.SortDir != domain.SortAsc {
		t.Fatalf("switching column must reset to asc: %+v", q)
	}
}

func TestWithPageSizeRejectsNonPositive(t *testing.T) {
	t.Parallel()
	q := domain.DefaultQuery(10).WithPage(3)
	got, err := q.WithPageSize(0)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if got != q {
		t.Fatalf("rejected size must leave query unchanged")
	}
}

func TestParseSortDirAndValidate(t *testing.T) {
	t.Parallel()
	if dir, err := domain.ParseSortDir(" DESC "); err != nil || dir != domain.SortDesc {
		t.Fatalf("desc: %q %v", dir, err)
	}
	if dir, err := domain.ParseSortDir(""); err != nil || dir != domain.SortAsc {
		t.Fatalf("empty defaults to asc: %q %v", dir, err)
	}
	if _, err := domain.ParseSortDir("sideways"); err == nil {
		t.Fatalf("unknown direction should fail")
	}
	bad := domain.DefaultQuery(10)
	bad.Page = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("page 0 should fail")
	}
	if err := domain.DefaultQuery(10).Validate(); err != nil {
		t.Fatalf("default query should be valid: %v", err)
	}
}
