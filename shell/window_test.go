package shell

import "testing"

func TestMaximizeUnsetRoundTrip(t *testing.T) {
	w := NewWindow(1, 0, 1)
	w.Geometry = Geometry{X: 100, Y: 100, W: 800, H: 600}

	w.SetMaximized(Geometry{X: 0, Y: 0, W: 1920, H: 1080})
	if w.Geometry.W != 1920 || w.Geometry.H != 1080 {
		t.Fatalf("maximized geometry = %+v", w.Geometry)
	}

	w.UnsetMaximized()
	want := Geometry{X: 100, Y: 100, W: 800, H: 600}
	if w.Geometry != want {
		t.Errorf("post-unset geometry = %+v, want %+v", w.Geometry, want)
	}
}

func TestPositionerResolveAnchorsBottomRightGravity(t *testing.T) {
	p := &Positioner{
		Width: 100, Height: 50,
		AnchorRect: Geometry{X: 10, Y: 10, W: 20, H: 20},
		Anchor:     AnchorBottomRight,
		Gravity:    AnchorBottomRight,
	}
	geo := p.Resolve(Geometry{X: 0, Y: 0, W: 1000, H: 1000})
	want := Geometry{X: 30, Y: 30, W: 100, H: 50}
	if geo != want {
		t.Errorf("resolved geometry = %+v, want %+v", geo, want)
	}
}

func TestPositionerSlideConstraint(t *testing.T) {
	p := &Positioner{
		Width: 100, Height: 50,
		AnchorRect:    Geometry{X: 950, Y: 10, W: 20, H: 20},
		Anchor:        AnchorRight,
		Gravity:       AnchorRight,
		ConstraintAdj: ConstraintSlideX,
	}
	geo := p.Resolve(Geometry{X: 0, Y: 0, W: 1000, H: 1000})
	if geo.X+geo.W > 1000 {
		t.Errorf("popup overflows work area: %+v", geo)
	}
}
