// Package streak computes the current run of consecutive completed days.
package streak

import (
	"sort"

	"habitkeeper/internal/dateutil"
)

// Compute returns the length of the consecutive-day run ending at today or
// yesterday. A most-recent completion two or more days before today means
// the streak is broken. Malformed keys are ignored.
func Compute(completedDates []string, today string) int {
	if len(completedDates) == 0 {
		return 0
	}
	todayNum, err := dateutil.DayNumber(today)
	if err != nil {
		return 0
	}

	days := make([]int, 0, len(completedDates))
	for _, key := range completedDates {
		n, err := dateutil.DayNumber(key)
		if err != nil {
			continue
		}
		days = append(days, n)
	}
	if len(days) == 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.IntSlice(days)))

	prev := days[0]
	if todayNum-prev > 1 {
		return 0
	}

	count := 1
	for _, d := range days[1:] {
		switch diff := prev - d; {
		case diff == 0:
			continue
		case diff == 1:
			count++
			prev = d
		default:
			return count
		}
	}
	return count
}
