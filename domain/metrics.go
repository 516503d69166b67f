package domain

import "time"

// Metrics receives one observation per upstream completion call.
type Metrics interface {
	ObserveCompletion(op, provider, outcome string, d time.Duration, usage Usage)
}

const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveCompletion(string, string, string, time.Duration, Usage) {}
