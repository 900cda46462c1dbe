package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/cmucal/internal/constants"
)

// dateTimeLayout is the local date and time accepted on the command line.
const dateTimeLayout = constants.DateFormat + " " + constants.TimeFormat

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) as midnight in loc.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", dateStr)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ParseDateTimeInLocation parses "YYYY-MM-DD HH:MM" as a wall-clock time in
// loc. RFC 3339 input keeps its own offset.
func ParseDateTimeInLocation(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date and time %q (expected YYYY-MM-DD HH:MM)", s)
	}
	return t, nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// StartOfDay returns midnight of t's date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Horizon returns the window [midnight of from, that midnight + days).
func Horizon(from time.Time, days int, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(from, loc)
	return start, start.AddDate(0, 0, days)
}
