// Package dateutil turns instants and ISO strings into canonical day keys
// (YYYY-MM-DD in the configured local timezone) and does calendar-day
// arithmetic on them.
package dateutil

import (
	"strings"
	"time"

	"habitkeeper/internal/apperror"
)

// KeyLayout is the day-key format. It sorts lexicographically in
// chronological order.
const KeyLayout = "2006-01-02"

// zone-less layouts are read in the calendar's location
var localLayouts = []string{
	KeyLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// Calendar binds day-key computation to a timezone and a clock.
type Calendar struct {
	Location *time.Location
	Now      func() time.Time
}

func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{Location: loc, Now: time.Now}
}

// LoadCalendar resolves an IANA zone name. Empty or "Local" means the
// process-local zone.
func LoadCalendar(name string) (*Calendar, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return NewCalendar(time.Local), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperror.Validation("dateutil.LoadCalendar", "unknown timezone %q", name)
	}
	return NewCalendar(loc), nil
}

// Current returns the calendar's now in its location.
func (c *Calendar) Current() time.Time {
	return c.Now().In(c.Location)
}

// Key returns the local calendar day of t.
func (c *Calendar) Key(t time.Time) string {
	return t.In(c.Location).Format(KeyLayout)
}

// ParseKey canonicalizes an ISO date or instant. A bare date is taken as a
// local calendar day, so it maps to itself.
func (c *Calendar) ParseKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperror.Validation("dateutil.ParseKey", "empty date")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return c.Key(t), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, c.Location); err == nil {
			return t.Format(KeyLayout), nil
		}
	}
	return "", apperror.Validation("dateutil.ParseKey", "unparseable date %q", s)
}

func (c *Calendar) Today() string {
	return c.Key(c.Now())
}

func (c *Calendar) IsToday(key string) bool {
	return key == c.Today()
}

// DayNumber is the number of civil days between 1970-01-01 and key.
// Computed in UTC so daylight-saving transitions never shift it.
func DayNumber(key string) (int, error) {
	t, err := time.Parse(KeyLayout, key)
	if err != nil {
		return 0, apperror.Validation("dateutil.DayNumber", "malformed day key %q", key)
	}
	secs := t.Unix()
	days := secs / 86400
	if secs%86400 < 0 {
		days--
	}
	return int(days), nil
}

// DayDifference returns a - b in whole calendar days.
func DayDifference(a, b string) (int, error) {
	na, err := DayNumber(a)
	if err != nil {
		return 0, err
	}
	nb, err := DayNumber(b)
	if err != nil {
		return 0, err
	}
	return na - nb, nil
}

// AddDays shifts a day key by n calendar days.
func AddDays(key string, n int) (string, error) {
	t, err := time.Parse(KeyLayout, key)
	if err != nil {
		return "", apperror.Validation("dateutil.AddDays", "malformed day key %q", key)
	}
	return t.AddDate(0, 0, n).Format(KeyLayout), nil
}

// LastNDays lists today and the n-1 days before it, most recent first.
func LastNDays(today string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	days := make([]string, 0, n)
	for i := 0; i < n; i++ {
		k, err := AddDays(today, -i)
		if err != nil {
			return nil, err
		}
		days = append(days, k)
	}
	return days, nil
}

// IsValidKey reports whether key is already canonical.
func IsValidKey(key string) bool {
	t, err := time.Parse(KeyLayout, key)
	return err == nil && t.Format(KeyLayout) == key
}
