package utils

import (
	"errors"
	"regexp"
	"time"
)

var ErrInvalidDuration = errors.New("invalid duration notation")

// durationPattern matches compact duration notation like "30d", "1w2d" or "12h".
var durationPattern = regexp.MustCompile(`^(\d+[ymwdh])+$`)

var durationPartPattern = regexp.MustCompile(`(\d+)([ymwdh])`)

// Duration units in hours. Months are four weeks and years twelve
// such months, matching how moderation durations are configured.
var durationUnits = map[string]time.Duration{
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
	"m": 4 * 7 * 24 * time.Hour,
	"y": 12 * 4 * 7 * 24 * time.Hour,
}

// ParseDuration converts compact duration notation into a time.Duration.
// Units may repeat and appear in any order; their values accumulate.
func ParseDuration(input string) (time.Duration, error) {
	if !durationPattern.MatchString(input) {
		return 0, ErrInvalidDuration
	}

	var total time.Duration
	for _, part := range durationPartPattern.FindAllStringSubmatch(input, -1) {
		n := 0
		for _, c := range part[1] {
			n = n*10 + int(c-'0')
		}
		total += time.Duration(n) * durationUnits[part[2]]
	}

	return total, nil
}

// DurationDays returns the duration rounded down to whole days.
func DurationDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
