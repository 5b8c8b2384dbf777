package commands

import (
	"fmt"
	"time"
)

// parseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates (midnight UTC)
func parseDate(flag, value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("--%s must be RFC3339 or YYYY-MM-DD, got %q", flag, value)
}
