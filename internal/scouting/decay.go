package scouting

const (
	// DefaultStaticTimeoutTicks is how long building/defense reports live.
	DefaultStaticTimeoutTicks = 2400
	// DefaultTransientTimeoutTicks is how long unit-only reports live.
	DefaultTransientTimeoutTicks = 800
)

// DecayPolicy holds the per-category report lifetimes in ticks.
type DecayPolicy struct {
	StaticTimeoutTicks    int64
	TransientTimeoutTicks int64
}

// DefaultDecayPolicy returns the stock lifetimes.
func DefaultDecayPolicy() DecayPolicy {
	return DecayPolicy{
		StaticTimeoutTicks:    DefaultStaticTimeoutTicks,
		TransientTimeoutTicks: DefaultTransientTimeoutTicks,
	}
}

// Timeout returns the lifetime that applies to r.
func (p DecayPolicy) Timeout(r *ScoutReport) int64 {
	if r.IsStatic() {
		return p.StaticTimeoutTicks
	}
	return p.TransientTimeoutTicks
}

// Expired reports whether r should be evicted at currentTick.
func (p DecayPolicy) Expired(r *ScoutReport, currentTick int64) bool {
	return IsExpired(r, currentTick, p.StaticTimeoutTicks, p.TransientTimeoutTicks)
}

// IsExpired reports whether r.Tick+timeout <= currentTick, choosing the
// timeout by the report's category.
func IsExpired(r *ScoutReport, currentTick, staticTimeoutTicks, transientTimeoutTicks int64) bool {
	timeout := transientTimeoutTicks
	if r.IsStatic() {
		timeout = staticTimeoutTicks
	}
	return r.Tick+timeout <= currentTick
}
