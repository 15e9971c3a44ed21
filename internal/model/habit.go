package model

import (
	"fmt"
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly:
		return true
	default:
		return false
	}
}

func ParseFrequency(input string) (Frequency, error) {
	f := Frequency(strings.TrimSpace(strings.ToLower(input)))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid frequency: %q", input)
	}
	return f, nil
}

const (
	MinUrgency     = 1
	MaxUrgency     = 5
	DefaultUrgency = 3

	MinTargetDays = 1
	MaxTargetDays = 7
)

// Habit is the persisted record. Field names follow the stored layout.
type Habit struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Frequency      Frequency `json:"frequency"`
	TargetDays     int       `json:"targetDays"`
	Color          string    `json:"color,omitempty"`
	Urgency        int       `json:"urgency"`
	CompletedDates []string  `json:"completedDates"`
	CreatedAt      time.Time `json:"createdAt"`
	// StreakCount is a cache; the store recomputes it whenever
	// CompletedDates changes.
	StreakCount int `json:"streakCount"`
}

// Clone returns a copy that shares no slices with h.
func (h Habit) Clone() Habit {
	c := h
	c.CompletedDates = make([]string, len(h.CompletedDates))
	copy(c.CompletedDates, h.CompletedDates)
	return c
}

// HasCompletion reports whether key is among the completed days.
func (h Habit) HasCompletion(key string) bool {
	for _, d := range h.CompletedDates {
		if d == key {
			return true
		}
	}
	return false
}

// HabitForm is the user-submitted input for a new habit.
type HabitForm struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Frequency   Frequency `json:"frequency" validate:"required,oneof=daily weekly"`
	TargetDays  int       `json:"targetDays" validate:"min=1,max=7"`
	Color       string    `json:"color"`
	Urgency     int       `json:"urgency" validate:"required,min=1,max=5"`
}

// Normalize trims text fields and pins TargetDays to 7 for daily habits.
func (f HabitForm) Normalize() HabitForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Frequency = Frequency(strings.TrimSpace(strings.ToLower(string(f.Frequency))))
	if f.Frequency == FrequencyDaily {
		f.TargetDays = MaxTargetDays
	}
	return f
}

// UrgencyLabel is the display name of an urgency level.
func UrgencyLabel(urgency int) string {
	switch urgency {
	case 1:
		return "Low"
	case 2:
		return "Medium-Low"
	case 3:
		return "Medium"
	case 4:
		return "High"
	case 5:
		return "Urgent"
	default:
		return "Medium"
	}
}
