package substitute

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for leave dates.
const DateLayout = "2006-01-02"

var dayIDs = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DayIDForDate returns the timetable day id (Mon..Sun) for t.
func DayIDForDate(t time.Time) string {
	return dayIDs[t.Weekday()]
}

// ParseDate parses a YYYY-MM-DD date and returns it with its day id.
func ParseDate(raw string) (time.Time, string, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInputValidation, raw)
	}
	return t, DayIDForDate(t), nil
}
