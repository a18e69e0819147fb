// utils/dates.go
package utils

import (
	"errors"
	"time"
)

var ErrUnparseableTime = errors.New("unparseable timestamp")

// Layouts accepted for incoming timestamps. FullCalendar sends full RFC 3339,
// the booking forms send naive local datetimes.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseAware parses an ISO-8601-ish timestamp. Naive inputs are promoted to
// loc; aware inputs are converted into it. The result is always in loc.
func ParseAware(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, ErrUnparseableTime
}

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}
