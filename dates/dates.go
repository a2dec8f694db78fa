package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date formats accepted by FormatDateExact
const (
	FormatISO = "iso"
	FormatYMD = "ymd"
	FormatDMY = "dmy"
	FormatMDY = "mdy"
)

// Clock returns the current time. Handlers and the scheduler carry one so
// "today" can be pinned in tests.
type Clock func() time.Time

// ParseLocalDate parses a date-only (or date-time) string into local midnight.
// The string is split on "T" and then on "-" so a date never shifts by a day
// because of a timezone-aware parse.
func ParseLocalDate(s string) (time.Time, error) {
	datePart := strings.SplitN(strings.TrimSpace(s), "T", 2)[0]
	parts := strings.Split(datePart, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year in %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month in %q", s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > DaysIn(year, time.Month(month)) {
		return time.Time{}, fmt.Errorf("invalid day in %q", s)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), nil
}

// LocalDateString renders t as zero-padded YYYY-MM-DD using its own calendar fields.
func LocalDateString(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// FormatDateExact renders t using one of the literal layouts. Field order never
// depends on locale; an unknown or empty format falls back to MM/DD/YYYY.
func FormatDateExact(t time.Time, format string) string {
	y, m, d := t.Year(), int(t.Month()), t.Day()
	switch format {
	case FormatISO:
		return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
	case FormatYMD:
		return fmt.Sprintf("%04d/%02d/%02d", y, m, d)
	case FormatDMY:
		return fmt.Sprintf("%02d/%02d/%04d", d, m, y)
	default:
		return fmt.Sprintf("%02d/%02d/%04d", m, d, y)
	}
}

// IsValidFormat reports whether format is one of the four known layouts
func IsValidFormat(format string) bool {
	switch format {
	case FormatISO, FormatYMD, FormatDMY, FormatMDY:
		return true
	}
	return false
}

// Midnight truncates t to local midnight of its calendar day
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysDiff returns the whole number of days from now's midnight to t's
// midnight. Positive means t is in the future.
func DaysDiff(t, now time.Time) int {
	return DaysBetween(now, t)
}

// DaysBetween counts calendar days from a to b, ignoring clock time and DST.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// AddDays moves t by n calendar days, keeping it at midnight
func AddDays(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in month of year
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeekStart returns the Sunday that starts t's week
func WeekStart(t time.Time) time.Time {
	return AddDays(Midnight(t), -int(t.Weekday()))
}

// EndOfMonth returns the last day of the month offset months after t's month
func EndOfMonth(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(offset)+1, 0, 0, 0, 0, 0, t.Location())
}

// AddMonths moves t by n months, clamping the day to the target month's length
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := min(t.Day(), DaysIn(first.Year(), first.Month()))
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}
