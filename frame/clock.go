package frame

import "time"

const (
	minRefreshInterval = 4 * time.Millisecond
	maxRefreshInterval = 50 * time.Millisecond
	renderSafetyMargin = 2 * time.Millisecond
)

// Clock is an adaptive VBlank predictor for one output, ported from the
// interval-history phase-correction model: it tracks the last observed
// VBlank and a clamped refresh interval, and predicts forward rather than
// waiting for hardware timestamps on every frame (spec §4.F).
type Clock struct {
	lastVBlank      time.Time
	refreshInterval time.Duration
	phaseError      time.Duration // diagnostic only; never fed back into the interval
}

// NewClock builds a clock for a given refresh rate in milli-Hertz.
func NewClock(refreshMilliHz uint32) *Clock {
	c := &Clock{}
	c.refreshInterval = intervalFromMilliHz(refreshMilliHz)
	c.lastVBlank = time.Time{}
	return c
}

func intervalFromMilliHz(mHz uint32) time.Duration {
	if mHz == 0 {
		return 16 * time.Millisecond
	}
	interval := time.Duration(1e12/float64(mHz)) * time.Nanosecond
	return clampInterval(interval)
}

func clampInterval(d time.Duration) time.Duration {
	if d < minRefreshInterval {
		return minRefreshInterval
	}
	if d > maxRefreshInterval {
		return maxRefreshInterval
	}
	return d
}

// UpdateVBlank anchors the clock on an observed presentation timestamp and
// recomputes the refresh interval (clamped to [4ms,50ms]), per spec §4.F.
func (c *Clock) UpdateVBlank(timestamp time.Time, refreshMilliHz uint32) {
	if !c.lastVBlank.IsZero() {
		observed := timestamp.Sub(c.lastVBlank)
		if observed > 0 {
			c.phaseError = observed - c.refreshInterval
		}
	}
	c.refreshInterval = intervalFromMilliHz(refreshMilliHz)
	c.lastVBlank = timestamp
}

// NextVBlank returns the predicted next refresh boundary at or after now.
func (c *Clock) NextVBlank(now time.Time) time.Time {
	if c.lastVBlank.IsZero() {
		return now
	}
	elapsed := now.Sub(c.lastVBlank)
	if elapsed < 0 {
		return c.lastVBlank
	}
	intervals := elapsed / c.refreshInterval
	if elapsed%c.refreshInterval != 0 {
		intervals++
	}
	return c.lastVBlank.Add(c.refreshInterval * intervals)
}

// PlanRender returns when rendering should start to land estRender before
// the next VBlank with a 2ms safety margin (spec §4.F). If the combined
// render time and margin would exceed the refresh interval entirely,
// rendering should start immediately.
func (c *Clock) PlanRender(now time.Time, estRender time.Duration) time.Time {
	next := c.NextVBlank(now)
	budget := estRender + renderSafetyMargin
	if budget >= c.refreshInterval {
		return now
	}
	return next.Add(-budget)
}

// RefreshInterval returns the clock's current clamped interval.
func (c *Clock) RefreshInterval() time.Duration {
	return c.refreshInterval
}

// PhaseError returns the last observed deviation between predicted and
// actual VBlank timing, for diagnostics only.
func (c *Clock) PhaseError() time.Duration {
	return c.phaseError
}
