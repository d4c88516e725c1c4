package frame

import (
	"testing"
	"time"
)

func TestNextVBlankWithinBounds(t *testing.T) {
	c := NewClock(60000) // 60Hz
	base := time.Unix(0, 0)
	c.UpdateVBlank(base, 60000)

	now := base.Add(11 * time.Millisecond)
	next := c.NextVBlank(now)

	if next.Before(now) {
		t.Fatalf("next vblank %v is before now %v", next, now)
	}
	if next.After(now.Add(c.RefreshInterval())) {
		t.Fatalf("next vblank %v exceeds now+interval %v", next, now.Add(c.RefreshInterval()))
	}
}

func TestNextVBlankBeforeAnyUpdateReturnsNow(t *testing.T) {
	c := NewClock(60000)
	now := time.Unix(100, 0)
	if got := c.NextVBlank(now); !got.Equal(now) {
		t.Fatalf("got %v, want %v", got, now)
	}
}

func TestPlanRenderSixMillisecondsBeforeVBlank(t *testing.T) {
	c := NewClock(62500) // ~16ms interval, clamps within [4,50]ms anyway
	base := time.Unix(0, 0)
	c.UpdateVBlank(base, 62500)

	now := base.Add(1 * time.Millisecond)
	next := c.NextVBlank(now)
	plan := c.PlanRender(now, 4*time.Millisecond)

	want := next.Add(-6 * time.Millisecond)
	diff := plan.Sub(want)
	if diff < -time.Millisecond || diff > time.Millisecond {
		t.Fatalf("plan %v, want %v +/-1ms", plan, want)
	}
}

func TestPlanRenderFallsBackToNowWhenBudgetExceedsInterval(t *testing.T) {
	c := NewClock(1000000) // requests an absurdly high rate, clamps to 4ms interval
	base := time.Unix(0, 0)
	c.UpdateVBlank(base, 1000000)

	now := base.Add(1 * time.Millisecond)
	plan := c.PlanRender(now, 10*time.Millisecond)

	if !plan.Equal(now) {
		t.Fatalf("got %v, want immediate %v", plan, now)
	}
}

func TestRefreshIntervalClamped(t *testing.T) {
	if got := intervalFromMilliHz(1000000); got != minRefreshInterval {
		t.Fatalf("1kHz request: got %v, want clamped min %v", got, minRefreshInterval)
	}
	if got := intervalFromMilliHz(1000); got != maxRefreshInterval {
		t.Fatalf("1Hz request: got %v, want clamped max %v", got, maxRefreshInterval)
	}
	if got := clampInterval(1 * time.Millisecond); got != minRefreshInterval {
		t.Fatalf("got %v, want %v", got, minRefreshInterval)
	}
	if got := clampInterval(100 * time.Millisecond); got != maxRefreshInterval {
		t.Fatalf("got %v, want %v", got, maxRefreshInterval)
	}
}
