//go:build linux

package frame

import "testing"

func TestNewOutputDerivesUsableAreaFromMode(t *testing.T) {
	o := NewOutput(1, "WAWONA-1", Mode{Width: 1920, Height: 1080, RefreshMilliHz: 60000, Preferred: true})
	if o.UsableArea != (Rect{X: 0, Y: 0, W: 1920, H: 1080}) {
		t.Errorf("got %+v", o.UsableArea)
	}
	if o.Scale != 1 {
		t.Errorf("default scale = %d, want 1", o.Scale)
	}
	if o.Clock.RefreshInterval() <= 0 {
		t.Errorf("expected a positive refresh interval")
	}
}

func TestUpdateConfigurationNoopWhenUnchanged(t *testing.T) {
	o := NewOutput(1, "WAWONA-1", Mode{Width: 1920, Height: 1080, RefreshMilliHz: 60000})
	before := o.UsableArea
	w := int32(1920)
	h := int32(1080)
	o.UpdateConfiguration(&w, &h, nil, nil, nil, nil)
	if o.UsableArea != before {
		t.Errorf("usable area changed on a no-op update: %+v vs %+v", o.UsableArea, before)
	}
}

func TestUpdateConfigurationResizeUpdatesUsableArea(t *testing.T) {
	o := NewOutput(1, "WAWONA-1", Mode{Width: 1920, Height: 1080, RefreshMilliHz: 60000})
	w := int32(1280)
	h := int32(720)
	o.UpdateConfiguration(&w, &h, nil, nil, nil, nil)
	if o.UsableArea != (Rect{X: 0, Y: 0, W: 1280, H: 720}) {
		t.Errorf("got %+v", o.UsableArea)
	}
}

func TestUpdateConfigurationRefreshRebuildsClock(t *testing.T) {
	o := NewOutput(1, "WAWONA-1", Mode{Width: 1920, Height: 1080, RefreshMilliHz: 60000})
	old := o.Clock
	hz := uint32(144000)
	o.UpdateConfiguration(nil, nil, &hz, nil, nil, nil)
	if o.Clock == old {
		t.Error("expected a new Clock after a refresh-rate change")
	}
}
