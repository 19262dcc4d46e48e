package controllers

import (
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	input := "DayNumber,ContentRef,Title\n1, eng/day-001,Day One\n2,eng/day-002,Day Two\n"

	rows, err := readCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1][1] != "eng/day-001" {
		t.Fatalf("expected leading space trimmed, got %q", rows[1][1])
	}
}

func TestBuildHeaderIndex(t *testing.T) {
	col := buildHeaderIndex([]string{" DayNumber", "ContentRef ", "Title"})

	for name, want := range map[string]int{
		"DayNumber":  0,
		"ContentRef": 1,
		"Title":      2,
	} {
		if got, ok := col[name]; !ok || got != want {
			t.Fatalf("column %s: expected index %d, got %d (present=%v)", name, want, got, ok)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain name",
			input:    "items.xlsx",
			expected: "items.xlsx",
		},
		{
			name:     "path stripped",
			input:    "../../etc/passwd",
			expected: "passwd",
		},
		{
			name:     "unsafe runes replaced",
			input:    "term 1 (draft).csv",
			expected: "term_1__draft_.csv",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := sanitizeFilename(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
