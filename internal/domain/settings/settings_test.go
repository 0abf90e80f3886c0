package settings

import "testing"

func TestPreviousYear(t *testing.T) {
	if got := previousYear("2025"); got != "2024" {
		t.Fatalf("expected 2024, got %s", got)
	}
	if got := previousYear("not-a-year"); got != "" {
		t.Fatalf("expected empty for invalid year, got %s", got)
	}
}
