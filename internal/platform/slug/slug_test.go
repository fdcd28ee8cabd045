package slug

import "testing"

func TestMake(t *testing.T) {
	t.Parallel()
	if got := Make("  Cost (micros) "); got != "cost-micros" {
		t.Fatalf("unexpected slug %q", got)
	}
	if got := Make("!!!"); got != "untitled" {
		t.Fatalf("unexpected slug %q", got)
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()
	if got := FileName(".csv", "Metrics", "2024-01-01", "", "page 2"); got != "metrics-2024-01-01-page-2.csv" {
		t.Fatalf("unexpected file name %q", got)
	}
	if got := FileName("csv"); got != "untitled.csv" {
		t.Fatalf("unexpected file name %q", got)
	}
}
