// Package timeutil parses human-friendly duration strings.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var segmentRe = regexp.MustCompile(`(\d+)\s*([wdhms])`)

var unitSeconds = map[string]int64{
	"w": 604800,
	"d": 86400,
	"h": 3600,
	"m": 60,
	"s": 1,
}

// ParseDuration parses strings like "2h", "1d 30m", or "500s" into a
// time.Duration. Supported units are w, d, h, m, and s; segments may be
// separated by spaces or run together ("1d2h"). A bare integer is read as a
// number of days.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	matches := segmentRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return time.Duration(n) * 24 * time.Hour, nil
		}
		return 0, fmt.Errorf("invalid duration %q (examples: \"2h\", \"1d 30m\")", s)
	}

	// Reject inputs with leftovers the segment regex did not consume,
	// e.g. "2x" or "1h foo".
	if strings.TrimSpace(segmentRe.ReplaceAllString(s, "")) != "" {
		return 0, fmt.Errorf("invalid duration %q (examples: \"2h\", \"1d 30m\")", s)
	}

	var total int64
	for _, m := range matches {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration segment %q: %w", m[0], err)
		}
		total += n * unitSeconds[m[2]]
	}

	return time.Duration(total) * time.Second, nil
}
