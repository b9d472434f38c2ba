// Package analyze sanity-checks a schedule before any planning output is
// acted on.
package analyze

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// maxCommitsPerMinute is the plausibility ceiling for a sustained human
// commit rate.
const maxCommitsPerMinute = 2.0

// ErrImplausibleDensity is returned when the schedule implies a commit rate
// no human would sustain.
var ErrImplausibleDensity = errors.New("schedule is too aggressive")

// CheckDensity validates that committing n times within duration stays under
// the plausibility ceiling. A zero duration with a single commit is allowed;
// anything collapsing multiple commits into no time is not.
func CheckDensity(n int, duration time.Duration) error {
	if n <= 1 {
		return nil
	}
	if duration <= 0 {
		return fmt.Errorf("%w: %d commits in no time", ErrImplausibleDensity, n)
	}

	perMinute := float64(n) / duration.Minutes()
	if perMinute > maxCommitsPerMinute {
		minDuration := time.Duration(float64(n)/maxCommitsPerMinute*60) * time.Second
		return fmt.Errorf("%w: %d commits in %s (%.1f/min); increase duration to at least %s",
			ErrImplausibleDensity, n, duration, perMinute, minDuration)
	}

	return nil
}

// WarnLoad emits a soft warning when a very large file set is squeezed into
// a short window. The run proceeds; staging that many files is slow but
// valid.
func WarnLoad(logger zerolog.Logger, fileCount int, duration time.Duration) {
	if fileCount > 10000 && duration < 10*time.Minute {
		logger.Warn().Int("files", fileCount).Dur("duration", duration).
			Msg("processing a large number of files in a short duration may cause system stress")
	}
}
