package backend

import (
	"math"
	"time"

	"rootedinspeech/internal/config"
)

// RetryPolicy defines exponential backoff for idempotent GETs.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// PolicyFromConfig builds the GET retry policy. Zero retries is the default.
func PolicyFromConfig(cfg config.BackendConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    cfg.GetRetries,
		InitialDelay:  cfg.GetRetryBackoff,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2,
	}
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 200 * time.Millisecond
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = r.InitialDelay
	}
	return d
}
