package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	const today = "2025-03-10"

	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{"no completions", nil, 0},
		{"empty slice", []string{}, 0},
		{"today only", []string{"2025-03-10"}, 1},
		{"yesterday only", []string{"2025-03-09"}, 1},
		{"two days ago breaks", []string{"2025-03-08"}, 0},
		{"run ending today", []string{"2025-03-08", "2025-03-09", "2025-03-10"}, 3},
		{"run ending yesterday", []string{"2025-03-07", "2025-03-08", "2025-03-09"}, 3},
		{"gap stops the run", []string{"2025-03-10", "2025-03-09", "2025-03-07", "2025-03-06"}, 2},
		{"gap stops a run ending yesterday", []string{"2025-03-09", "2025-03-08", "2025-03-06"}, 2},
		{"duplicates are ignored", []string{"2025-03-10", "2025-03-10", "2025-03-09"}, 2},
		{"unordered input", []string{"2025-03-09", "2025-03-10", "2025-03-08"}, 3},
		{"malformed keys skipped", []string{"junk", "2025-03-10", ""}, 1},
		{"only malformed", []string{"junk"}, 0},
		{"across month boundary", []string{"2025-02-28", "2025-03-01"}, 0},
		{"future date anchors the run", []string{"2025-03-11", "2025-03-10"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.dates, today))
		})
	}
}

func TestCompute_MonthAndYearBoundaries(t *testing.T) {
	assert.Equal(t, 3, Compute([]string{"2025-02-27", "2025-02-28", "2025-03-01"}, "2025-03-01"))
	assert.Equal(t, 2, Compute([]string{"2024-12-31", "2025-01-01"}, "2025-01-02"))
	assert.Equal(t, 3, Compute([]string{"2024-02-28", "2024-02-29", "2024-03-01"}, "2024-03-01"))
}

func TestCompute_BadToday(t *testing.T) {
	assert.Equal(t, 0, Compute([]string{"2025-03-10"}, "today"))
}
