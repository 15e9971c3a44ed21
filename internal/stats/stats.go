// Package stats derives per-habit and collection-wide statistics. Nothing
// here is cached; callers pass a snapshot and the current instant.
package stats

import (
	"math"
	"time"

	"habitkeeper/internal/dateutil"
	"habitkeeper/internal/model"
)

// ActiveWindowDays is the trailing window, inclusive, in which a completion
// makes a habit active.
const ActiveWindowDays = 7

type HabitStats struct {
	HabitID          string `json:"habitId"`
	Title            string `json:"title"`
	CompletionRate   int    `json:"completionRate"` // percent, lifetime
	CurrentStreak    int    `json:"currentStreak"`
	TotalCompletions int    `json:"totalCompletions"`
}

type TopHabit struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	StreakCount    int    `json:"streakCount"`
	CompletionRate int    `json:"completionRate"`
}

type OverallStats struct {
	TotalHabits           int        `json:"totalHabits"`
	ActiveHabits          int        `json:"activeHabits"`
	AverageCompletionRate int        `json:"averageCompletionRate"`
	TopHabits             []TopHabit `json:"topHabits"`
}

// ForHabit computes lifetime completion rate over the days since creation.
// The rate is not normalized by TargetDays and is not clamped at 100.
func ForHabit(h model.Habit, now time.Time) HabitStats {
	return HabitStats{
		HabitID:          h.ID,
		Title:            h.Title,
		CompletionRate:   CompletionRate(h, now),
		CurrentStreak:    h.StreakCount,
		TotalCompletions: len(h.CompletedDates),
	}
}

func CompletionRate(h model.Habit, now time.Time) int {
	elapsed := now.Sub(h.CreatedAt).Hours() / 24
	totalDays := int(math.Ceil(elapsed))
	if totalDays < 1 {
		totalDays = 1
	}
	return int(math.Round(100 * float64(len(h.CompletedDates)) / float64(totalDays)))
}

// IsActive reports whether h has a completion within ActiveWindowDays of
// now's calendar day (now's own location decides the day).
func IsActive(h model.Habit, now time.Time) bool {
	today := now.Format(dateutil.KeyLayout)
	for _, key := range h.CompletedDates {
		diff, err := dateutil.DayDifference(today, key)
		if err != nil {
			continue
		}
		if diff <= ActiveWindowDays {
			return true
		}
	}
	return false
}

// Overall aggregates a collection. Counts cover every habit, the average
// covers active habits only. As with IsActive, now's location decides
// which calendar day is today, so pass the calendar's Current().
func Overall(habits []model.Habit, now time.Time) OverallStats {
	out := OverallStats{
		TotalHabits: len(habits),
		TopHabits:   []TopHabit{},
	}
	if len(habits) == 0 {
		return out
	}

	rateSum := 0
	maxStreak := 0
	for _, h := range habits {
		if IsActive(h, now) {
			out.ActiveHabits++
			rateSum += CompletionRate(h, now)
		}
		if h.StreakCount > maxStreak {
			maxStreak = h.StreakCount
		}
	}
	if out.ActiveHabits > 0 {
		out.AverageCompletionRate = int(math.Round(float64(rateSum) / float64(out.ActiveHabits)))
	}

	if maxStreak > 0 {
		for _, h := range habits {
			if h.StreakCount == maxStreak {
				out.TopHabits = append(out.TopHabits, TopHabit{
					ID:             h.ID,
					Title:          h.Title,
					StreakCount:    h.StreakCount,
					CompletionRate: CompletionRate(h, now),
				})
			}
		}
	}
	return out
}
