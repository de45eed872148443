package domain

import (
	"sort"
	"time"
)

// Reminder is a notification due at FireAt for one timed todo.
type Reminder struct {
	SprintID string
	Date     string
	TodoID   string
	Text     string
	FireAt   time.Time
}

// Reminders lists a reminder for every incomplete todo that has a time of day
// whose moment (date + time in loc) is still after now. The result is ordered
// by fire time.
func Reminders(s Sprint, loc *time.Location, now time.Time) []Reminder {
	if loc == nil {
		loc = time.Local
	}
	var out []Reminder
	for date, todos := range s.Days {
		day, err := time.ParseInLocation(DateLayout, date, loc)
		if err != nil {
			continue
		}
		for _, t := range todos {
			if t.Completed || t.Time == "" {
				continue
			}
			clock, err := time.Parse(timeLayout, t.Time)
			if err != nil {
				continue
			}
			fireAt := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
			if !fireAt.After(now) {
				continue
			}
			out = append(out, Reminder{SprintID: s.ID, Date: date, TodoID: t.ID, Text: t.Text, FireAt: fireAt})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].TodoID < out[j].TodoID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}
