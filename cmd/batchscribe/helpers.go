package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// parseAudioLength accepts whole seconds ("95"), a Go duration ("1m35s"), or
// a clock form ("1:35", "0:01:35").
func parseAudioLength(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("audio length is required")
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("audio length must not be negative")
		}
		return n, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("audio length must not be negative")
		}
		return int(d / time.Second), nil
	}
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid audio length %q", value)
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid audio length %q", value)
		}
		total = total*60 + n
	}
	return total, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
