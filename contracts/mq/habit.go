package mq

import "time"

// Routing keys on the events exchange.
const (
	RoutingHabitCreated           = "habit.created"
	RoutingHabitCompletionToggled = "habit.completion_toggled"
	RoutingHabitDeleted           = "habit.deleted"
)

type HabitCreatedPayload struct {
	HabitID    string    `json:"habit_id"`
	Title      string    `json:"title"`
	Frequency  string    `json:"frequency"` // daily / weekly
	TargetDays int       `json:"target_days"`
	Urgency    int       `json:"urgency"`
	CreatedAt  time.Time `json:"created_at"`
	TraceID    string    `json:"trace_id,omitempty"`
}

type HabitCompletionToggledPayload struct {
	HabitID     string `json:"habit_id"`
	Date        string `json:"date"` // YYYY-MM-DD format
	Completed   bool   `json:"completed"`
	StreakCount int    `json:"streak_count"`
	TraceID     string `json:"trace_id,omitempty"`
}

type HabitDeletedPayload struct {
	HabitID string `json:"habit_id"`
	TraceID string `json:"trace_id,omitempty"`
}
