package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the largest of durations, or zero for an empty slice.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	longest := durations[0]
	for _, d := range durations[1:] {
		if d > longest {
			longest = d
		}
	}
	return longest
}

// ComputeJitter returns a uniformly distributed duration in [0, max).
// A non-positive max yields zero.
func ComputeJitter(max time.Duration, rng *rand.Rand) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes the delay before retry number backoffCount (1-based):
// initialDuration * multiplier^(backoffCount-1), capped at maxDuration, plus jitter.
// Counts below 1 are treated as the first backoff.
func ExponentialBackoffDelay(
	backoffCount int,
	jitter time.Duration,
	rng *rand.Rand,
	backoffParam BackoffParam,
) time.Duration {
	if backoffCount < 1 {
		backoffCount = 1
	}
	backoffParam = backoffParam.Clamped()

	base := float64(backoffParam.InitialDuration()) *
		math.Pow(backoffParam.Multiplier(), float64(backoffCount-1))

	delay := time.Duration(base)
	if base > float64(backoffParam.MaxDuration()) {
		delay = backoffParam.MaxDuration()
	}

	return delay + ComputeJitter(jitter, rng)
}
