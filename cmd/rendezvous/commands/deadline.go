package commands

import (
	"strconv"
	"time"
)

// parseDeadline accepts either an ISO-8601 instant or an integer number
// of hours from now, per spec.md's CLI surface.
func parseDeadline(s string) (time.Time, error) {
	if hours, err := strconv.Atoi(s); err == nil {
		return time.Now().Add(time.Duration(hours) * time.Hour), nil
	}
	return time.Parse(time.RFC3339, s)
}
