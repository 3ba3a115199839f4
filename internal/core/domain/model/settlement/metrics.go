package settlement

import (
	"math"
	"time"
)

// DurationSeconds returns to-from in whole seconds, or nil when either
// timestamp is missing or the delta is negative.
func DurationSeconds(from, to *time.Time) *int {
	if from == nil || to == nil {
		return nil
	}

	d := to.Sub(*from)
	if d < 0 {
		return nil
	}

	secs := int(d / time.Second)
	return &secs
}

// Efficiency returns round(duration / estimate * 100). It is nil when the
// duration is unknown or the estimate is not positive; it is never negative.
func Efficiency(duration *int, estimateSeconds int) *int {
	if duration == nil || estimateSeconds <= 0 {
		return nil
	}

	pct := int(math.Round(float64(*duration) / float64(estimateSeconds) * 100))
	if pct < 0 {
		pct = 0
	}
	return &pct
}
