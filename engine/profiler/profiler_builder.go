package profiler

import (
	"time"

	"github.com/Carmen-Shannon/oxy-bloom/common"
)

// ProfilerBuilderOption is a function that configures a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithLogger sets the logger reports are written to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the logger option to a profiler
func WithLogger(logger common.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithInterval sets how often reports are produced.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option to a profiler
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = interval
	}
}

// WithClock replaces the time source.
//
// Parameters:
//   - now: the function returning the current time
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the clock option to a profiler
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
