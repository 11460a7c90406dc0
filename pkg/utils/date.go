package utils

import (
	"time"
)

const DateLayout = "2006-01-02"

// Today formats now as a calendar date in now's own location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse(DateLayout, dateStr)
}

func ValidateDate(dateStr string) bool {
	_, err := ParseDate(dateStr)
	return err == nil
}

// DaysBetween returns the number of whole calendar days from `from` to `to`.
// The result is negative when `from` is after `to`.
func DaysBetween(from, to string) (int, error) {
	f, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(f).Hours() / 24), nil
}

// IsWithinDays reports whether date is strictly less than days calendar days
// before today. Unparseable dates are never within the window.
func IsWithinDays(date, today string, days int) bool {
	diff, err := DaysBetween(date, today)
	if err != nil {
		return false
	}
	return diff < days
}
