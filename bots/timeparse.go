package bots

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseRelativeTime resolves strings like "5 minutes ago" or "· 2 days ago"
// against anchor. Only minute, hour and day units are understood.
func ParseRelativeTime(posted string, anchor time.Time) (time.Time, error) {
	fields := strings.Fields(strings.ReplaceAll(posted, "·", " "))
	if len(fields) < 2 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnresolvableTimestamp, posted)
	}

	value, err := strconv.Atoi(fields[0])
	if err != nil || value < 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnresolvableTimestamp, posted)
	}

	var unit time.Duration
	switch name := strings.ToLower(fields[1]); {
	case strings.Contains(name, "minute"):
		unit = time.Minute
	case strings.Contains(name, "hour"):
		unit = time.Hour
	case strings.Contains(name, "day"):
		unit = 24 * time.Hour
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnresolvableTimestamp, posted)
	}

	// Larger values would wrap the duration into the future.
	if int64(value) > math.MaxInt64/int64(unit) {
		return time.Time{}, fmt.Errorf("%w: %q out of range", ErrUnresolvableTimestamp, posted)
	}
	return anchor.Add(-time.Duration(value) * unit), nil
}
