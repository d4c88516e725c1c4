package scene

import (
	"sort"

	"github.com/wawona-wm/wawona/ext"
	"github.com/wawona-wm/wawona/shell"
	"github.com/wawona-wm/wawona/surface"
)

// Node is one placed surface in the flattened scene: spec §4.G's
// {surface, absolute_xy, abs_scale, opacity, crop/viewport, blur_flag}
// tuple, as consumed by the renderer.
type Node struct {
	SurfaceID     uint32
	ClientID      uint32
	AbsX, AbsY    int32
	AbsScale      int32
	Opacity       float32
	Crop          surface.Region // viewport src rect in buffer-local coords, zero value means "whole buffer"
	HasCrop       bool
	DstWidth      int32 // viewport dst size, zero means "derived size"
	DstHeight     int32
	Blur          bool
}

// Layer groups nodes by their stacking band: background/bottom windows
// sit below the normal window stack, top/overlay sit above it, and an
// optional session-lock surface sits above everything else when active.
type Layer int

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerWindows
	LayerTop
	LayerOverlay
	LayerLock
)

// WindowPlacement is the input the compositor feeds per mapped toplevel:
// its surface, absolute position, and z-order rank within LayerWindows.
type WindowPlacement struct {
	Window  *shell.Window
	Surface *surface.Surface
	ZOrder  int // higher draws later (on top)
}

// LayerPlacement is the input for a layer-shell surface.
type LayerPlacement struct {
	LayerSurface *shell.LayerSurface
	Surface      *surface.Surface
	AbsX, AbsY   int32
}

// Scene aggregates the current frame's placements into a flat, back-to-front
// sorted node list (bottom-most node first) plus merged absolute-coordinate damage.
type Scene struct {
	Windows    []WindowPlacement
	Layers     []LayerPlacement
	LockActive bool
	LockSurface *surface.Surface
	LockAbsX, LockAbsY int32

	// SurfaceStates holds the per-surface extension state (wp_alpha_modifier,
	// content-type, viewport, ...) a scene node reads at compose time.
	SurfaceStates *ext.SurfaceStates
}

func layerIndexBand(idx shell.LayerIndex) Layer {
	switch idx {
	case shell.LayerBackground:
		return LayerBackground
	case shell.LayerBottom:
		return LayerBottom
	case shell.LayerTop:
		return LayerTop
	case shell.LayerOverlay:
		return LayerOverlay
	default:
		return LayerBottom
	}
}

// Compose flattens windows, layer surfaces, and an optional lock surface
// into one z-ordered Node list (spec §4.G). Lock surfaces, when active,
// suppress everything below LayerLock: only the lock node is returned, per
// the ext-session-lock invariant that nothing else may be presented while
// a lock is active.
func (s *Scene) Compose() []Node {
	if s.LockActive && s.LockSurface != nil {
		return []Node{nodeFromSurface(s.LockSurface, 0, s.LockAbsX, s.LockAbsY, s.SurfaceStates)}
	}

	type banded struct {
		band Layer
		rank int
		node Node
	}
	items := make([]banded, 0, len(s.Windows)+len(s.Layers))

	for _, lp := range s.Layers {
		if lp.Surface == nil {
			continue
		}
		n := nodeFromSurface(lp.Surface, 0, lp.AbsX, lp.AbsY, s.SurfaceStates)
		items = append(items, banded{band: layerIndexBand(lp.LayerSurface.Layer), rank: 0, node: n})
	}
	for _, wp := range s.Windows {
		if wp.Surface == nil {
			continue
		}
		n := nodeFromSurface(wp.Surface, uint32(clientIDOf(wp.Window)), wp.Window.Geometry.X, wp.Window.Geometry.Y, s.SurfaceStates)
		items = append(items, banded{band: LayerWindows, rank: wp.ZOrder, node: n})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].band != items[j].band {
			return items[i].band < items[j].band
		}
		return items[i].rank < items[j].rank
	})

	out := make([]Node, 0, len(items))
	for _, it := range items {
		out = append(out, it.node)
	}
	return out
}

func clientIDOf(w *shell.Window) uint32 {
	return uint32(w.ClientID)
}

func nodeFromSurface(s *surface.Surface, clientID uint32, absX, absY int32, states *ext.SurfaceStates) Node {
	opacity := float32(1.0)
	if states != nil {
		opacity = states.Get(s.ID).Alpha
	}
	return Node{
		SurfaceID: s.ID,
		ClientID:  clientID,
		AbsX:      absX,
		AbsY:      absY,
		AbsScale:  s.Current.Scale,
		Opacity:   opacity,
	}
}

// TranslateDamage maps one surface-local damage rectangle into absolute
// scene coordinates: abs + local·abs_scale, floored (spec §4.G).
func TranslateDamage(r surface.Region, absX, absY, absScale int32) surface.Region {
	if absScale < 1 {
		absScale = 1
	}
	return surface.Region{
		X: absX + r.X*absScale,
		Y: absY + r.Y*absScale,
		W: r.W * absScale,
		H: r.H * absScale,
	}
}

// AggregateDamage translates every node's pending damage into absolute
// coordinates and merges the result to a fixed point via DamageHistory,
// matching the per-surface merge algorithm generalized to scene scope.
func AggregateDamage(nodes []Node, damageBySurface map[uint32][]surface.Region) []surface.Region {
	hist := &surface.DamageHistory{}
	for _, n := range nodes {
		regions := damageBySurface[n.SurfaceID]
		if len(regions) == 0 {
			continue
		}
		translated := make([]surface.Region, 0, len(regions))
		for _, r := range regions {
			translated = append(translated, TranslateDamage(r, n.AbsX, n.AbsY, n.AbsScale))
		}
		hist.AddRegions(translated)
	}
	return hist.Regions()
}
