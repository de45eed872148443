package domain

import (
	"fmt"
	"time"
)

// DateLayout is the format of every day key in a sprint document.
const DateLayout = "2006-01-02"

// sprintIDLayout is the compact date form concatenated into sprint ids.
const sprintIDLayout = "20060102"

// TruncateDate drops the clock part of t and returns midnight UTC of the same
// calendar day.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats t as a day key ("2006-01-02").
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a "2006-01-02" day key.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return t, nil
}

// SprintID derives the identity of a sprint from its date range.
// The same range always yields the same id, independent of name or creation
// order, which is what makes load-or-create safe to repeat.
func SprintID(start, end time.Time) string {
	return start.Format(sprintIDLayout) + "_" + end.Format(sprintIDLayout)
}

// SpanDays returns the number of calendar days in [start, end], inclusive.
func SpanDays(start, end time.Time) int {
	s, e := TruncateDate(start), TruncateDate(end)
	return int(e.Sub(s).Hours()/24) + 1
}

// DayKeys lists every day key in [start, end], inclusive, in date order.
func DayKeys(start, end time.Time) []string {
	s, e := TruncateDate(start), TruncateDate(end)
	var keys []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		keys = append(keys, DateKey(d))
	}
	return keys
}

// ValidateRange enforces start <= end and a maximum span of maxDays.
// maxDays <= 0 disables the span check.
func ValidateRange(start, end time.Time, maxDays int) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrValidation)
	}
	if TruncateDate(end).Before(TruncateDate(start)) {
		return fmt.Errorf("%w: end_date must not be before start_date", ErrValidation)
	}
	if maxDays > 0 && SpanDays(start, end) > maxDays {
		return fmt.Errorf("%w: a sprint may span at most %d days", ErrValidation, maxDays)
	}
	return nil
}
