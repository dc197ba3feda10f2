package pension

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DATES - Calendar days, no time of day
// =============================================================================

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// NewDate returns midnight UTC of the given calendar day.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day of clock time now.
func Today(now time.Time) time.Time {
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return t, nil
}

// WholeYearsBetween counts complete years from start to end, anniversary
// based: 2010-06-15 to 2020-06-14 is 9 years. Returns 0 when end is before
// start.
func WholeYearsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	years := end.Year() - start.Year()
	if end.Month() < start.Month() || (end.Month() == start.Month() && end.Day() < start.Day()) {
		years--
	}
	return years
}

// =============================================================================
// YEAR MONTH - Payment and statistics period
// =============================================================================

// YearMonth identifies a calendar month, e.g. 2025-07.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth accepts "MM/YYYY" (the statistics query format) and
// "YYYY-MM" (the storage format).
func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	var yearPart, monthPart string
	switch {
	case strings.Contains(s, "/"):
		parts := strings.SplitN(s, "/", 2)
		monthPart, yearPart = parts[0], parts[1]
	case strings.Contains(s, "-"):
		parts := strings.SplitN(s, "-", 2)
		yearPart, monthPart = parts[0], parts[1]
	default:
		return YearMonth{}, &ValidationError{Field: "period", Reason: fmt.Sprintf("%q is not MM/YYYY or YYYY-MM", s)}
	}

	year, errY := strconv.Atoi(yearPart)
	month, errM := strconv.Atoi(monthPart)
	if errY != nil || errM != nil || len(yearPart) != 4 || month < 1 || month > 12 {
		return YearMonth{}, &ValidationError{Field: "period", Reason: fmt.Sprintf("%q is not MM/YYYY or YYYY-MM", s)}
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

// String returns the storage format YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Display returns the query format MM/YYYY.
func (ym YearMonth) Display() string {
	return fmt.Sprintf("%02d/%04d", int(ym.Month), ym.Year)
}

func (ym YearMonth) IsZero() bool { return ym.Year == 0 && ym.Month == 0 }

// Start is the first day of the month.
func (ym YearMonth) Start() time.Time { return NewDate(ym.Year, ym.Month, 1) }

// End is the last day of the month.
func (ym YearMonth) End() time.Time { return ym.Start().AddDate(0, 1, -1) }

// AddMonths shifts the month by n (negative goes back).
func (ym YearMonth) AddMonths(n int) YearMonth {
	return YearMonthOf(ym.Start().AddDate(0, n, 0))
}

// Previous is the month before ym.
func (ym YearMonth) Previous() YearMonth { return ym.AddMonths(-1) }

// Contains reports whether t falls within the month.
func (ym YearMonth) Contains(t time.Time) bool {
	return t.Year() == ym.Year && t.Month() == ym.Month
}
