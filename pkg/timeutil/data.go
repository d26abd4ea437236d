package timeutil

import "time"

// BackoffParam shapes the exponential delay between store retries:
// initialDuration, then each delay multiplied by multiplier, never above maxDuration.
type BackoffParam struct {
	initialDuration time.Duration
	multiplier      float64
	maxDuration     time.Duration
}

func NewBackoffParam(
	initialDuration time.Duration,
	multiplier float64,
	maxDuration time.Duration,
) BackoffParam {
	return BackoffParam{
		initialDuration: initialDuration,
		multiplier:      multiplier,
		maxDuration:     maxDuration,
	}
}

func (b BackoffParam) InitialDuration() time.Duration {
	return b.initialDuration
}

func (b BackoffParam) Multiplier() float64 {
	return b.multiplier
}

func (b BackoffParam) MaxDuration() time.Duration {
	return b.maxDuration
}

// Clamped returns a copy whose delays never shrink: a multiplier below 1 becomes 1
// and a cap below the initial duration is raised to it.
func (b BackoffParam) Clamped() BackoffParam {
	if b.initialDuration < 0 {
		b.initialDuration = 0
	}
	if b.multiplier < 1 {
		b.multiplier = 1
	}
	if b.maxDuration < b.initialDuration {
		b.maxDuration = b.initialDuration
	}
	return b
}
