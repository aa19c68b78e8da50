package encounter

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the storage format for encounter dates.
const DateLayout = "2006-01-02"

// ParseDate parses a date in the storage format. ok is false for anything
// else; an unparseable date is "unknown", never an error.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseFlexibleDate parses the textual date formats that have appeared in
// date-of-birth fields over the life of the dataset: the storage format,
// M/D/YYYY and M-D-YYYY with or without zero padding, and two-digit-year
// variants of each. Two-digit years resolve against ref: a suffix at or
// below ref's own two-digit year lands in the 2000s, anything above in the
// 1900s.
func ParseFlexibleDate(s string, ref time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := ParseDate(s); ok {
		return t, true
	}

	sep := "/"
	if !strings.Contains(s, "/") {
		sep = "-"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	month, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	day, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	yearStr := strings.TrimSpace(parts[2])
	year, err3 := strconv.Atoi(yearStr)
	if err1 != nil || err2 != nil || err3 != nil || year < 0 {
		return time.Time{}, false
	}

	switch len(yearStr) {
	case 4:
	case 2:
		pivot := ref.Year() % 100
		if year <= pivot {
			year += 2000
		} else {
			year += 1900
		}
	default:
		return time.Time{}, false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 30 -> Mar 2); reject it.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

// YearsBetween returns the whole-year difference between from and to,
// counting a year only once its anniversary has passed.
func YearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	anniversary := from.AddDate(years, 0, 0)
	if anniversary.After(to) {
		years--
	}
	return years
}
