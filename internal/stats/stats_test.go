package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitkeeper/internal/model"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func habit(id string, created time.Time, streak int, dates ...string) model.Habit {
	return model.Habit{
		ID:             id,
		Title:          "habit " + id,
		Frequency:      model.FrequencyDaily,
		TargetDays:     7,
		Urgency:        3,
		CreatedAt:      created,
		CompletedDates: dates,
		StreakCount:    streak,
	}
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		name string
		h    model.Habit
		want int
	}{
		{"nine days, three done", habit("a", now.AddDate(0, 0, -9), 0, "2025-03-08", "2025-03-09", "2025-03-10"), 33},
		{"created just now", habit("b", now, 1, "2025-03-10"), 100},
		{"partial day rounds up", habit("c", now.Add(-10*time.Minute), 1, "2025-03-10"), 100},
		{"partial days", habit("d", now.Add(-36*time.Hour), 1, "2025-03-10"), 50},
		{"no completions", habit("e", now.AddDate(0, 0, -4), 0), 0},
		{"not clamped", habit("f", now.AddDate(0, 0, -2), 0, "2025-03-08", "2025-03-09", "2025-03-10"), 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompletionRate(tt.h, now))
		})
	}
}

func TestCompletionRate_WeeklyIsNotNormalized(t *testing.T) {
	h := habit("w", now.AddDate(0, 0, -14), 0, "2025-03-03", "2025-03-05", "2025-03-07", "2025-03-10")
	h.Frequency = model.FrequencyWeekly
	h.TargetDays = 2

	// 4 of 14 days, regardless of the 2-per-week target
	assert.Equal(t, 29, CompletionRate(h, now))
}

func TestForHabit(t *testing.T) {
	h := habit("a", now.AddDate(0, 0, -4), 2, "2025-03-09", "2025-03-10")

	got := ForHabit(h, now)
	assert.Equal(t, HabitStats{
		HabitID:          "a",
		Title:            "habit a",
		CompletionRate:   50,
		CurrentStreak:    2,
		TotalCompletions: 2,
	}, got)
}

func TestIsActive(t *testing.T) {
	created := now.AddDate(0, -1, 0)

	assert.True(t, IsActive(habit("a", created, 0, "2025-03-10"), now))
	assert.True(t, IsActive(habit("b", created, 0, "2025-03-03"), now), "seven days back is inside the window")
	assert.False(t, IsActive(habit("c", created, 0, "2025-03-02"), now))
	assert.False(t, IsActive(habit("d", created, 0), now))
	assert.True(t, IsActive(habit("e", created, 0, "2025-03-20"), now), "future dates count")
	assert.False(t, IsActive(habit("f", created, 0, "garbage"), now))
}

func TestIsActive_DayFollowsNowsLocation(t *testing.T) {
	h := habit("a", now.AddDate(0, -1, 0), 0, "2025-03-03")
	instant := time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC)

	// 2025-03-11 in UTC is eight days after the completion
	assert.False(t, IsActive(h, instant))
	// still 2025-03-10 four hours west
	assert.True(t, IsActive(h, instant.In(time.FixedZone("EDT", -4*3600))))

	assert.Equal(t, 0, Overall([]model.Habit{h}, instant).ActiveHabits)
	assert.Equal(t, 1, Overall([]model.Habit{h}, instant.In(time.FixedZone("EDT", -4*3600))).ActiveHabits)
}

func TestOverall_Empty(t *testing.T) {
	got := Overall(nil, now)
	assert.Equal(t, OverallStats{TopHabits: []TopHabit{}}, got)
	assert.NotNil(t, got.TopHabits)
}

func TestOverall_AveragesActiveHabitsOnly(t *testing.T) {
	habits := []model.Habit{
		habit("active-high", now.AddDate(0, 0, -2), 2, "2025-03-09", "2025-03-10"), // 100
		habit("active-low", now.AddDate(0, 0, -10), 1, "2025-03-10"),              // 10
		habit("stale", now.AddDate(0, 0, -60), 0, "2025-01-01"),
	}

	got := Overall(habits, now)
	assert.Equal(t, 3, got.TotalHabits)
	assert.Equal(t, 2, got.ActiveHabits)
	assert.Equal(t, 55, got.AverageCompletionRate)
}

func TestOverall_TopHabitsKeepsTies(t *testing.T) {
	habits := []model.Habit{
		habit("a", now.AddDate(0, 0, -10), 5, "2025-03-06", "2025-03-07", "2025-03-08", "2025-03-09", "2025-03-10"),
		habit("b", now.AddDate(0, 0, -10), 3, "2025-03-08", "2025-03-09", "2025-03-10"),
		habit("c", now.AddDate(0, 0, -5), 5, "2025-03-05", "2025-03-06", "2025-03-07", "2025-03-08", "2025-03-09"),
	}

	got := Overall(habits, now)
	require.Len(t, got.TopHabits, 2)
	assert.Equal(t, TopHabit{ID: "a", Title: "habit a", StreakCount: 5, CompletionRate: 50}, got.TopHabits[0])
	assert.Equal(t, TopHabit{ID: "c", Title: "habit c", StreakCount: 5, CompletionRate: 100}, got.TopHabits[1])
}

func TestOverall_NoTopHabitsWithoutStreaks(t *testing.T) {
	habits := []model.Habit{
		habit("a", now.AddDate(0, 0, -3), 0),
		habit("b", now.AddDate(0, 0, -3), 0, "2025-02-01"),
	}

	got := Overall(habits, now)
	assert.Empty(t, got.TopHabits)
	assert.Equal(t, 0, got.ActiveHabits)
	assert.Equal(t, 0, got.AverageCompletionRate)
}
