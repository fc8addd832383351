// Package timegrid converts between "HH:MM" clock strings, minute
// offsets from midnight and UTC calendar dates. All date arithmetic is
// anchored at midnight UTC: availability dates carry no timezone, so
// UTC is the one calendar every caller agrees on.
package timegrid

import (
	"fmt"
	"regexp"
	"time"
)

// MinutesPerDay is the length of one calendar day on the slot grid.
const MinutesPerDay = 24 * 60

var (
	clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ToMinutes parses a zero-padded "HH:MM" string into minutes since
// midnight. Anything that is not exactly two zero-padded numeric
// fields is rejected.
func ToMinutes(s string) (int, error) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	var h, min int
	fmt.Sscanf(s, "%02d:%02d", &h, &min)
	return h*60 + min, nil
}

// FromMinutes formats a minute offset as "HH:MM". Offsets past the end
// of the day wrap into the next day's clock; callers that care about
// the day carry track it themselves.
func FromMinutes(n int) string {
	h := (n / 60) % 24
	return fmt.Sprintf("%02d:%02d", h, n%60)
}

// ParseDate parses a "YYYY-MM-DD" string into midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatDate renders the UTC calendar date of t as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Weekday returns the UTC day of week of a date, 0=Sunday..6=Saturday.
func Weekday(date time.Time) int {
	return int(date.UTC().Weekday())
}

// Instant converts a minute offset on a given UTC date into an
// absolute instant. Offsets >= MinutesPerDay land on the next day.
func Instant(date time.Time, minutes int) time.Time {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(minutes) * time.Minute)
}

// MinuteOfDay returns the minute offset of an instant within its own
// UTC calendar day.
func MinuteOfDay(t time.Time) int {
	t = t.UTC()
	return t.Hour()*60 + t.Minute()
}
