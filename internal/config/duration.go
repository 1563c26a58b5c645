package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
)

// DurationOrDefault reads a duration setting such as batch.llm_delay or
// telegram.dedup_ttl, using fallback when value is blank. Besides Go
// durations it accepts whole days ("7d"), since retention-style settings are
// usually thought of in days. Negative values are rejected.
func DurationOrDefault(value, fallback string) (time.Duration, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		s = strings.TrimSpace(fallback)
	}
	if s == "" {
		return 0, jarvisErrors.InvalidInput("duration is empty")
	}

	d, err := parseDuration(s)
	if err != nil {
		return 0, jarvisErrors.InvalidInput(fmt.Sprintf("duration %q: %v", s, err))
	}
	if d < 0 {
		return 0, jarvisErrors.InvalidInput(fmt.Sprintf("duration %q is negative", s))
	}
	return d, nil
}

func parseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
