package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"viewengine/internal/domain"
)

var relativeOffsetRe = regexp.MustCompile(`^([+-]?)(\d+)([dwMy])$`)

// ParseDateValue parses a user-entered date relative to now. It accepts
// keywords (today, tomorrow, yesterday), offsets (-3d, +2w, 1M, -1y) and any
// layout dateparse understands. Results are UTC midnight unless the input
// carries a time of day.
func ParseDateValue(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, ok := parseRelativeKeyword(strings.ToLower(value), now); ok {
		return t, nil
	}

	if t, err := parseRelativeOffset(value, now); err == nil {
		return t, nil
	}

	if t, err := domain.ParseStoredDate(value); err == nil {
		return t, nil
	}

	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %s (expected ISO date, relative keyword, or offset)", value)
	}
	return t.UTC(), nil
}

func parseRelativeKeyword(value string, now time.Time) (time.Time, bool) {
	switch value {
	case "today":
		return startOfDay(now), true
	case "tomorrow":
		return startOfDay(now.AddDate(0, 0, 1)), true
	case "yesterday":
		return startOfDay(now.AddDate(0, 0, -1)), true
	default:
		return time.Time{}, false
	}
}

func parseRelativeOffset(value string, now time.Time) (time.Time, error) {
	matches := relativeOffsetRe.FindStringSubmatch(value)
	if matches == nil {
		return time.Time{}, fmt.Errorf("invalid offset format")
	}

	num, err := strconv.Atoi(matches[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid number in offset: %s", matches[2])
	}
	if matches[1] == "-" {
		num = -num
	}

	var result time.Time
	switch matches[3] {
	case "d":
		result = now.AddDate(0, 0, num)
	case "w":
		result = now.AddDate(0, 0, num*7)
	case "M":
		result = now.AddDate(0, num, 0)
	case "y":
		result = now.AddDate(num, 0, 0)
	}

	return startOfDay(result), nil
}

// ParseRelativeAmount splits "7d", "2w" or "3M" into a count and unit for the
// "less/more than n ago" operators. A bare number means days.
func ParseRelativeAmount(value string) (int64, domain.DateUnit, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "-")
	if value == "" {
		return 0, "", fmt.Errorf("empty relative amount")
	}

	unit := domain.UnitDay
	switch value[len(value)-1] {
	case 'd':
		value = value[:len(value)-1]
	case 'w':
		unit = domain.UnitWeek
		value = value[:len(value)-1]
	case 'M', 'm':
		unit = domain.UnitMonth
		value = value[:len(value)-1]
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0, "", fmt.Errorf("invalid relative amount %q", value)
	}
	return n, unit, nil
}

// RelativeCutoff is the instant n units before the start of now's day.
func RelativeCutoff(now time.Time, n int64, unit domain.DateUnit) time.Time {
	day := startOfDay(now)
	switch unit {
	case domain.UnitWeek:
		return day.AddDate(0, 0, -7*int(n))
	case domain.UnitMonth:
		return day.AddDate(0, -int(n), 0)
	default:
		return day.AddDate(0, 0, -int(n))
	}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func nextDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1)
}

func FormatDateForSQL(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func FormatDateForDisplay(t time.Time) string {
	return t.Format("2006-01-02")
}
