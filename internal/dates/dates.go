// Package dates normalizes the inconsistent date and time text found in
// the roster and invoicing exports. Every calendar comparison in the
// reconciliation and reporting paths goes through this package so that
// format drift in one export cannot silently break matching.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/corecapital/autoreports-api/pkg/errors"
)

// Clock selects how the time portion of a fragment is interpreted. The
// caller knows which export a fragment came from and supplies the form.
type Clock int

const (
	// DateOnly expects DD/MM/YYYY with no time portion.
	DateOnly Clock = iota
	// Clock24 expects DD/MM/YYYY followed by HH:MM or HH:MM:SS.
	Clock24
	// Clock12 expects DD/MM/YYYY followed by HH:MM AM or HH:MM PM.
	Clock12
)

// Parse converts a date/time fragment into a timestamp. It fails with a
// MALFORMED_DATE error when the segment count, separators, or numeric
// ranges are invalid.
func Parse(text string, clock Clock) (time.Time, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return time.Time{}, malformed(text, "empty value")
	}

	year, month, day, err := parseDatePart(fields[0])
	if err != nil {
		return time.Time{}, malformed(text, err.Error())
	}

	var hour, minute, second int
	switch clock {
	case DateOnly:
		if len(fields) != 1 {
			return time.Time{}, malformed(text, "unexpected time portion")
		}
	case Clock24:
		if len(fields) != 2 {
			return time.Time{}, malformed(text, "expected a 24-hour time portion")
		}
		hour, minute, second, err = parseTime24(fields[1])
		if err != nil {
			return time.Time{}, malformed(text, err.Error())
		}
	case Clock12:
		if len(fields) != 3 {
			return time.Time{}, malformed(text, "expected a 12-hour time and period")
		}
		hour, minute, err = parseTime12(fields[1], fields[2])
		if err != nil {
			return time.Time{}, malformed(text, err.Error())
		}
	default:
		return time.Time{}, malformed(text, "unknown clock form")
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

// SameCalendarDay reports whether two timestamps fall on the same
// year/month/day, ignoring time of day.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Day truncates a timestamp to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDatePart(text string) (year, month, day int, err error) {
	segments := strings.Split(text, "/")
	if len(segments) != 3 {
		return 0, 0, 0, fmt.Errorf("expected DD/MM/YYYY, got %d segments", len(segments))
	}
	day, err = atoi(segments[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("day %q is not numeric", segments[0])
	}
	month, err = atoi(segments[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("month %q is not numeric", segments[1])
	}
	year, err = atoi(segments[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("year %q is not numeric", segments[2])
	}
	if day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("day %d out of range", day)
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("month %d out of range", month)
	}
	if year < 1000 || year > 9999 {
		return 0, 0, 0, fmt.Errorf("year %d out of range", year)
	}
	// time.Date silently rolls an impossible day into the next month.
	if t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC); t.Day() != day || int(t.Month()) != month {
		return 0, 0, 0, fmt.Errorf("day %d does not exist in %02d/%04d", day, month, year)
	}
	return year, month, day, nil
}

func parseTime24(text string) (hour, minute, second int, err error) {
	segments := strings.Split(text, ":")
	if len(segments) != 2 && len(segments) != 3 {
		return 0, 0, 0, fmt.Errorf("expected HH:MM or HH:MM:SS, got %q", text)
	}
	hour, err = atoi(segments[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, 0, fmt.Errorf("hour %q out of range", segments[0])
	}
	minute, err = atoi(segments[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, 0, fmt.Errorf("minute %q out of range", segments[1])
	}
	if len(segments) == 3 {
		second, err = atoi(segments[2])
		if err != nil || second < 0 || second > 59 {
			return 0, 0, 0, fmt.Errorf("second %q out of range", segments[2])
		}
	}
	return hour, minute, second, nil
}

func parseTime12(text, period string) (hour, minute int, err error) {
	segments := strings.Split(text, ":")
	if len(segments) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", text)
	}
	hour, err = atoi(segments[0])
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("hour %q out of range for 12-hour clock", segments[0])
	}
	minute, err = atoi(segments[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute %q out of range", segments[1])
	}

	switch strings.ToUpper(period) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, 0, fmt.Errorf("period %q is neither AM nor PM", period)
	}
	return hour, minute, nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func malformed(text, reason string) error {
	return appErrors.Wrap(
		fmt.Errorf("%s", reason),
		appErrors.ErrMalformedDate.Code,
		appErrors.ErrMalformedDate.Status,
		fmt.Sprintf("cannot parse %q", text),
	)
}
