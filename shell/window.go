package shell

import "github.com/wawona-wm/wawona/object"

// ToplevelState is the xdg_toplevel state machine's current mode, per
// spec §4.C.
type ToplevelState int

const (
	StatePendingConfig ToplevelState = iota
	StateIdle
	StateMaximized
	StateFullscreen
)

// Geometry is a window or popup's rectangle in output-relative coordinates.
type Geometry struct {
	X, Y, W, H int32
}

// DecorationMode selects who draws a toplevel's window chrome.
type DecorationMode int

const (
	DecorationClient DecorationMode = iota
	DecorationServer
)

// DecorationPolicy is the compositor-wide decoration negotiation policy,
// spec §4.C.
type DecorationPolicy int

const (
	PolicyPreferClient DecorationPolicy = iota
	PolicyPreferServer
	PolicyForceServer
)

// Select resolves a client's requested mode against policy.
func (p DecorationPolicy) Select(requested DecorationMode) DecorationMode {
	switch p {
	case PolicyForceServer:
		return DecorationServer
	case PolicyPreferServer:
		return DecorationServer
	default:
		return requested
	}
}

// Window is a toplevel: surface + xdg_surface + xdg_toplevel state, spec §3.
type Window struct {
	ID       uint32 // == xdg_toplevel resource id; the wl_surface id is SurfaceID
	ClientID object.ClientID
	SurfaceID uint32

	Title string
	AppID string

	Geometry    Geometry
	preMaxGeo   Geometry
	havePreMax  bool

	State      ToplevelState
	Activated  bool
	Resizing   bool
	Minimized  bool
	Modal      bool

	ParentID uint32 // 0 if top-level in the window-manager sense

	Decoration DecorationMode

	OutputIDs map[uint32]struct{}

	LastConfigureSerial uint32
	AckedSerial         uint32

	Destroyed bool
}

func NewWindow(id uint32, client object.ClientID, surfaceID uint32) *Window {
	return &Window{ID: id, ClientID: client, SurfaceID: surfaceID, State: StateIdle, OutputIDs: make(map[uint32]struct{})}
}

// StatesBitset returns the xdg_toplevel configure states array content as
// a slice of uint32 state values (the wire encoding is an array of
// little-endian uint32, one per active state).
func (w *Window) StatesBitset() []uint32 {
	var states []uint32
	switch w.State {
	case StateMaximized:
		states = append(states, XdgToplevelStateMaximized)
	case StateFullscreen:
		states = append(states, XdgToplevelStateFullscreen)
	}
	if w.Resizing {
		states = append(states, XdgToplevelStateResizing)
	}
	if w.Activated {
		states = append(states, XdgToplevelStateActivated)
	}
	return states
}

// SetMaximized transitions to StateMaximized, saving pre-maximize geometry
// on first entry (spec §4.C step 2, §8 invariant 7).
func (w *Window) SetMaximized(outputGeo Geometry) {
	if w.State != StateMaximized && w.State != StateFullscreen {
		w.preMaxGeo = w.Geometry
		w.havePreMax = true
	}
	w.State = StateMaximized
	w.Geometry = outputGeo
}

// UnsetMaximized restores pre-maximize geometry if one was saved.
func (w *Window) UnsetMaximized() {
	w.State = StateIdle
	if w.havePreMax {
		w.Geometry = w.preMaxGeo
		w.havePreMax = false
	}
}

// SetFullscreen transitions to StateFullscreen, saving geometry the same
// way SetMaximized does.
func (w *Window) SetFullscreen(outputGeo Geometry) {
	if w.State != StateMaximized && w.State != StateFullscreen {
		w.preMaxGeo = w.Geometry
		w.havePreMax = true
	}
	w.State = StateFullscreen
	w.Geometry = outputGeo
}

func (w *Window) UnsetFullscreen() {
	w.State = StateIdle
	if w.havePreMax {
		w.Geometry = w.preMaxGeo
		w.havePreMax = false
	}
}
