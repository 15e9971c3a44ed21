package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrgencyLabel(t *testing.T) {
	assert.Equal(t, "Low", UrgencyLabel(1))
	assert.Equal(t, "Medium-Low", UrgencyLabel(2))
	assert.Equal(t, "Medium", UrgencyLabel(3))
	assert.Equal(t, "High", UrgencyLabel(4))
	assert.Equal(t, "Urgent", UrgencyLabel(5))
	assert.Equal(t, "Medium", UrgencyLabel(0))
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, f)

	_, err = ParseFrequency("monthly")
	assert.Error(t, err)
}

func TestHabitForm_Normalize(t *testing.T) {
	got := HabitForm{Title: "  Run ", Description: " far ", Frequency: "DAILY", TargetDays: 2, Urgency: 4}.Normalize()
	assert.Equal(t, HabitForm{Title: "Run", Description: "far", Frequency: FrequencyDaily, TargetDays: 7, Urgency: 4}, got)

	weekly := HabitForm{Title: "Gym", Frequency: "weekly", TargetDays: 3}.Normalize()
	assert.Equal(t, 3, weekly.TargetDays)
}

func TestHabit_Clone(t *testing.T) {
	h := Habit{ID: "a", CompletedDates: []string{"2025-03-10"}}
	c := h.Clone()
	c.CompletedDates[0] = "2000-01-01"
	assert.Equal(t, "2025-03-10", h.CompletedDates[0])

	empty := Habit{}.Clone()
	assert.NotNil(t, empty.CompletedDates)
	assert.True(t, h.HasCompletion("2025-03-10"))
	assert.False(t, h.HasCompletion("2025-03-11"))
}
