// Package domain contains the core data types for the JetJot sprint planner
// together with the pure transformations applied to them. Both the server
// services and the client sync engine use these functions, so a mutation
// computes the same result on either side.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Days maps a day key to the ordered todos of that day.
type Days map[string][]Todo

// Keys returns the day keys in date order.
func (d Days) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of the map. Todo slices are shared; every mutation in
// this package returns a fresh slice instead of writing through.
func (d Days) Clone() Days {
	out := make(Days, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Sprint is the aggregate for one user's planned date range.
// ID is derived from the range (see SprintID); Owner and ID together locate
// the document in the store.
type Sprint struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Days      Days      `json:"days"`
	TravelLog TravelLog `json:"travel_log"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSprint builds a sprint with exactly one empty day bucket per calendar day
// in [start, end] and an empty travel log.
func NewSprint(owner string, start, end time.Time, name string, now time.Time) Sprint {
	start, end = TruncateDate(start), TruncateDate(end)
	if strings.TrimSpace(name) == "" {
		name = DefaultSprintName(start, end)
	}
	days := make(Days)
	for _, k := range DayKeys(start, end) {
		days[k] = []Todo{}
	}
	return Sprint{
		ID:        SprintID(start, end),
		Owner:     owner,
		Name:      strings.TrimSpace(name),
		StartDate: start,
		EndDate:   end,
		Days:      days,
		TravelLog: TravelLog{},
		CreatedAt: now.UTC(),
	}
}

// DefaultSprintName renders the name used when the caller supplies none,
// e.g. "Sprint: Jun 1 – Jun 15, 2025".
func DefaultSprintName(start, end time.Time) string {
	return fmt.Sprintf("Sprint: %s – %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
}

// HasDay reports whether date is one of the sprint's day keys.
func (s Sprint) HasDay(date string) bool {
	_, ok := s.Days[date]
	return ok
}

// DayCount returns the number of day buckets.
func (s Sprint) DayCount() int {
	return len(s.Days)
}

// Clone returns a copy whose maps can be replaced without touching s.
func (s Sprint) Clone() Sprint {
	out := s
	out.Days = s.Days.Clone()
	out.TravelLog = s.TravelLog.Clone()
	return out
}

// SprintSummary is the list view of a sprint, without the day contents.
type SprintSummary struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	TodoCount int       `json:"todo_count"`
	DoneCount int       `json:"done_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary counts todos across every day bucket.
func (s Sprint) Summary() SprintSummary {
	sum := SprintSummary{
		ID:        s.ID,
		Owner:     s.Owner,
		Name:      s.Name,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		CreatedAt: s.CreatedAt,
	}
	for _, todos := range s.Days {
		for _, t := range todos {
			sum.TodoCount++
			if t.Completed {
				sum.DoneCount++
			}
		}
	}
	return sum
}
