package shell

// Anchor and Gravity mirror xdg_positioner's anchor/gravity enum values.
type Anchor uint32

const (
	AnchorNone Anchor = iota
	AnchorTop
	AnchorBottom
	AnchorLeft
	AnchorRight
	AnchorTopLeft
	AnchorBottomLeft
	AnchorTopRight
	AnchorBottomRight
)

type Gravity = Anchor

// ConstraintAdjustment is the xdg_positioner constraint_adjustment bitmask.
type ConstraintAdjustment uint32

const (
	ConstraintSlideX ConstraintAdjustment = 1 << iota
	ConstraintSlideY
	ConstraintFlipX
	ConstraintFlipY
	ConstraintResizeX
	ConstraintResizeY
)

// Positioner is the configuration copied from an xdg_positioner when a
// popup is created or repositioned (spec §3).
type Positioner struct {
	Width, Height   int32
	AnchorRect      Geometry
	Anchor          Anchor
	Gravity         Gravity
	ConstraintAdj   ConstraintAdjustment
	OffsetX, OffsetY int32
	Reactive        bool
	ParentWidth     int32
	ParentHeight    int32
	ParentSerial    uint32
}

// anchorPoint returns the reference point on the anchor rect the popup
// should be positioned against, per the anchor edges.
func (p *Positioner) anchorPoint() (x, y int32) {
	x, y = p.AnchorRect.X, p.AnchorRect.Y
	switch p.Anchor {
	case AnchorTop, AnchorTopLeft, AnchorTopRight:
		y = p.AnchorRect.Y
	case AnchorBottom, AnchorBottomLeft, AnchorBottomRight:
		y = p.AnchorRect.Y + p.AnchorRect.H
	default:
		y = p.AnchorRect.Y + p.AnchorRect.H/2
	}
	switch p.Anchor {
	case AnchorLeft, AnchorTopLeft, AnchorBottomLeft:
		x = p.AnchorRect.X
	case AnchorRight, AnchorTopRight, AnchorBottomRight:
		x = p.AnchorRect.X + p.AnchorRect.W
	default:
		x = p.AnchorRect.X + p.AnchorRect.W/2
	}
	return
}

// gravityOffset returns the top-left corner of the popup given its anchor
// point and gravity (which corner of the popup touches the anchor point).
func (p *Positioner) gravityOffset() (dx, dy int32) {
	switch p.Gravity {
	case AnchorLeft, AnchorTopLeft, AnchorBottomLeft:
		dx = -p.Width
	case AnchorRight, AnchorTopRight, AnchorBottomRight:
		dx = 0
	default:
		dx = -p.Width / 2
	}
	switch p.Gravity {
	case AnchorTop, AnchorTopLeft, AnchorTopRight:
		dy = -p.Height
	case AnchorBottom, AnchorBottomLeft, AnchorBottomRight:
		dy = 0
	default:
		dy = -p.Height / 2
	}
	return
}

// Resolve computes the popup's geometry relative to its parent, applying
// constraint adjustment by sliding the result back inside workArea when
// the unconstrained placement would overflow it.
func (p *Positioner) Resolve(workArea Geometry) Geometry {
	ax, ay := p.anchorPoint()
	dx, dy := p.gravityOffset()
	x := ax + dx + p.OffsetX
	y := ay + dy + p.OffsetY
	geo := Geometry{X: x, Y: y, W: p.Width, H: p.Height}

	if p.ConstraintAdj&ConstraintSlideX != 0 {
		if geo.X < workArea.X {
			geo.X = workArea.X
		} else if geo.X+geo.W > workArea.X+workArea.W {
			geo.X = workArea.X + workArea.W - geo.W
		}
	}
	if p.ConstraintAdj&ConstraintSlideY != 0 {
		if geo.Y < workArea.Y {
			geo.Y = workArea.Y
		} else if geo.Y+geo.H > workArea.Y+workArea.H {
			geo.Y = workArea.Y + workArea.H - geo.H
		}
	}
	return geo
}

// Popup is a positioner-derived transient surface, spec §3.
type Popup struct {
	ID         uint32
	ParentID   uint32
	Positioner Positioner
	Geometry   Geometry
	GrabSerial uint32
	HasGrab    bool
	RepositionToken uint32

	LastConfigureSerial uint32
}
