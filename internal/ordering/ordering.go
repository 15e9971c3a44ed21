// Package ordering arranges habits for list views.
package ordering

import (
	"sort"
	"time"

	"habitkeeper/internal/dateutil"
	"habitkeeper/internal/model"
	"habitkeeper/internal/stats"
)

// SortForDisplay returns a copy ordered by urgency, most urgent first.
// Equal urgencies keep their input order.
func SortForDisplay(habits []model.Habit) []model.Habit {
	out := make([]model.Habit, len(habits))
	copy(out, habits)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Urgency > out[j].Urgency
	})
	return out
}

// ActiveInLastWeek keeps the habits that count as active at now. now's
// location decides the calendar day; pass the calendar's Current().
func ActiveInLastWeek(habits []model.Habit, now time.Time) []model.Habit {
	out := make([]model.Habit, 0, len(habits))
	for _, h := range habits {
		if stats.IsActive(h, now) {
			out = append(out, h)
		}
	}
	return out
}

func CompletedOn(h model.Habit, key string) bool {
	return h.HasCompletion(key)
}

type DayStatus struct {
	Date string `json:"date"`
	Done bool   `json:"done"`
}

// RecentDays reports the done flag for today and the n-1 preceding days,
// most recent first.
func RecentDays(h model.Habit, today string, n int) ([]DayStatus, error) {
	days, err := dateutil.LastNDays(today, n)
	if err != nil {
		return nil, err
	}
	out := make([]DayStatus, 0, len(days))
	for _, d := range days {
		out = append(out, DayStatus{Date: d, Done: h.HasCompletion(d)})
	}
	return out, nil
}
