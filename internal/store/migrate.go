package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"habitkeeper/internal/dateutil"
	"habitkeeper/internal/model"
	"habitkeeper/internal/streak"
)

// storedHabit is the permissive shape read back from storage. Numeric
// fields stay raw so a missing or non-numeric value can be told apart
// from a real one.
type storedHabit struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Frequency      string          `json:"frequency"`
	TargetDays     json.RawMessage `json:"targetDays"`
	Color          string          `json:"color"`
	Urgency        json.RawMessage `json:"urgency"`
	CompletedDates []string        `json:"completedDates"`
	CreatedAt      string          `json:"createdAt"`
	StreakCount    json.RawMessage `json:"streakCount"`
}

// decodeCollection fails only when the document is not a JSON array.
// Elements that are not habit objects are dropped.
func (s *Store) decodeCollection(data []byte) ([]storedHabit, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make([]storedHabit, 0, len(raw))
	for i, elem := range raw {
		var rec storedHabit
		if err := json.Unmarshal(elem, &rec); err != nil {
			s.logger.Warn("Dropping malformed habit record", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// migrate brings every stored record up to the current rules. It is
// applied on every load; the stored format carries no version.
func (s *Store) migrate(records []storedHabit) []model.Habit {
	today := s.cal.Today()
	seen := make(map[string]bool, len(records))
	habits := make([]model.Habit, 0, len(records))

	for _, rec := range records {
		h, err := s.migrateRecord(rec, today)
		if err != nil {
			s.logger.Warn("Dropping unusable habit record", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		if seen[h.ID] {
			id, err := s.newID()
			if err != nil {
				s.logger.Warn("Dropping duplicate habit id", zap.String("id", h.ID), zap.Error(err))
				continue
			}
			s.logger.Warn("Reassigned duplicate habit id", zap.String("old_id", h.ID), zap.String("new_id", id))
			h.ID = id
		}
		seen[h.ID] = true
		habits = append(habits, h)
	}
	return habits
}

func (s *Store) migrateRecord(rec storedHabit, today string) (model.Habit, error) {
	h := model.Habit{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Color:       rec.Color,
	}

	if h.ID == "" {
		id, err := s.newID()
		if err != nil {
			return model.Habit{}, fmt.Errorf("generate id: %w", err)
		}
		h.ID = id
	}
	if h.Title == "" {
		h.Title = "Untitled habit"
	}

	freq, err := model.ParseFrequency(rec.Frequency)
	if err != nil {
		freq = model.FrequencyDaily
	}
	h.Frequency = freq

	if n, ok := rawInt(rec.Urgency); ok {
		h.Urgency = clamp(n, model.MinUrgency, model.MaxUrgency)
	} else {
		h.Urgency = model.DefaultUrgency
	}

	if n, ok := rawInt(rec.TargetDays); ok {
		h.TargetDays = clamp(n, model.MinTargetDays, model.MaxTargetDays)
	} else {
		h.TargetDays = model.MaxTargetDays
	}
	if h.Frequency == model.FrequencyDaily {
		h.TargetDays = model.MaxTargetDays
	}

	if t, err := time.Parse(time.RFC3339Nano, rec.CreatedAt); err == nil {
		h.CreatedAt = t
	} else {
		h.CreatedAt = s.cal.Current()
	}

	dates, changed := s.canonicalDates(rec.CompletedDates)
	h.CompletedDates = dates

	if n, ok := rawInt(rec.StreakCount); ok && n >= 0 && !changed {
		h.StreakCount = n
	} else {
		h.StreakCount = streak.Compute(h.CompletedDates, today)
	}
	return h, nil
}

// canonicalDates rewrites every entry as a day key, dropping unparseable
// and duplicate entries. changed reports whether anything was altered.
func (s *Store) canonicalDates(in []string) ([]string, bool) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	changed := false
	for _, d := range in {
		key := d
		if !dateutil.IsValidKey(d) {
			parsed, err := s.cal.ParseKey(d)
			if err != nil {
				changed = true
				continue
			}
			key = parsed
		}
		if seen[key] {
			changed = true
			continue
		}
		if key != d {
			changed = true
		}
		seen[key] = true
		out = append(out, key)
	}
	return out, changed
}

func rawInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return int(f), true
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
