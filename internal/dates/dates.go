// Package dates resolves due-date expressions to calendar dates. Everything
// here is pure: callers pass "today" explicitly and no I/O happens.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISO is the canonical storage format for due dates.
const ISO = "2006-01-02"

const dayMonthYear = "02-01-2006"

var relativeSteps = regexp.MustCompile(`^in_([1-9][0-9]*)_(days|weeks|months)$`)

// Normalize accepts a literal date in DD-MM-YYYY or YYYY-MM-DD form and
// returns it in YYYY-MM-DD. Normalizing an already-normalized value returns
// it unchanged. Any other format is an error.
func Normalize(value string) (string, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dayMonthYear, value); err == nil {
		return t.Format(ISO), nil
	}
	if t, err := time.Parse(ISO, value); err == nil {
		return t.Format(ISO), nil
	}
	return "", fmt.Errorf("invalid due date format: %q", value)
}

// ParseISO parses a canonical YYYY-MM-DD value.
func ParseISO(value string) (time.Time, error) {
	t, err := time.Parse(ISO, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}
	return t, nil
}

// Resolve maps a symbolic time expression to a calendar date relative to
// today. The vocabulary is fixed; anything else means "no date" and returns
// ok=false rather than an error, since a task without a deadline is valid.
func Resolve(expr string, today time.Time) (time.Time, bool) {
	today = Midnight(today)

	switch strings.TrimSpace(expr) {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "next_week":
		return today.AddDate(0, 0, 7), true
	case "next_month":
		return today.AddDate(0, 1, 0), true
	case "next_year":
		return today.AddDate(1, 0, 0), true
	case "start_of_next_week":
		return nextMonday(today), true
	case "end_of_next_week":
		return nextMonday(today).AddDate(0, 0, 6), true
	case "start_of_month":
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), true
	case "end_of_month":
		return time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, today.Location()), true
	}

	if m := relativeSteps.FindStringSubmatch(strings.TrimSpace(expr)); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		switch m[2] {
		case "days":
			return today.AddDate(0, 0, n), true
		case "weeks":
			return today.AddDate(0, 0, 7*n), true
		case "months":
			return today.AddDate(0, n, 0), true
		}
	}

	return time.Time{}, false
}

// EnforceFuture shifts a date that already passed one year forward,
// preserving month and day. A shifted 29 February lands on 1 March in a
// non-leap year. The shift happens at most once: a date two years back still
// moves only a single year.
func EnforceFuture(d, today time.Time) time.Time {
	d = Midnight(d)
	today = Midnight(today)
	if !d.Before(today) {
		return d
	}
	// time.Date normalizes 29 Feb of a non-leap year to 1 March.
	return time.Date(d.Year()+1, d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// Midnight truncates a timestamp to its calendar date.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// nextMonday returns the Monday of the following week (weeks start Monday).
func nextMonday(today time.Time) time.Time {
	ahead := (8 - int(today.Weekday())) % 7
	if ahead == 0 {
		ahead = 7
	}
	return today.AddDate(0, 0, ahead)
}
