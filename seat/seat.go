package seat

import "github.com/wawona-wm/wawona/object"

// Modifiers is the depressed/latched/locked/group mask quadruple carried
// on every wl_keyboard.modifiers event.
type Modifiers struct {
	Depressed, Latched, Locked, Group uint32
}

// KeyState is a key's up/down state as carried on the wire.
type KeyState uint32

const (
	KeyReleased KeyState = 0
	KeyPressed  KeyState = 1
)

// KeyboardState holds the pressed-keys multiset, modifier mask, and focus
// for one seat's keyboard (spec §4.D).
type KeyboardState struct {
	Keymap       *Keymap
	Pressed      map[uint32]struct{}
	Modifiers    Modifiers
	FocusClient  object.ClientID
	FocusSurface uint32
	HasFocus     bool

	// ShortcutsInhibited is set while a keyboard-shortcuts-inhibit or
	// XWayland keyboard grab is active for the focused surface (spec §4.D).
	ShortcutsInhibited bool
}

func newKeyboardState() KeyboardState {
	return KeyboardState{Keymap: NewFallbackKeymap(), Pressed: make(map[uint32]struct{})}
}

// PointerConstraintKind distinguishes lock (cursor frozen) from confine
// (cursor bounded to a region).
type PointerConstraintKind int

const (
	ConstraintNone PointerConstraintKind = iota
	ConstraintLock
	ConstraintConfine
)

// PointerConstraint is an active pointer-constraints object for one surface.
type PointerConstraint struct {
	Kind    PointerConstraintKind
	Surface uint32
	Active  bool
}

// PointerState holds absolute position, focus, and any active constraint
// for one seat's pointer.
type PointerState struct {
	X, Y         float64
	FocusClient  object.ClientID
	FocusSurface uint32
	HasFocus     bool
	Constraint   *PointerConstraint

	CursorShape string // empty if a client-provided cursor surface is in use instead
}

// TouchPoint is one active touch contact.
type TouchPoint struct {
	ID           int32
	SurfaceID    uint32
	ClientID     object.ClientID
	X, Y         float64
}

// TouchState holds the per-point map for one seat's touch device.
type TouchState struct {
	Points map[int32]*TouchPoint
}

func newTouchState() TouchState {
	return TouchState{Points: make(map[int32]*TouchPoint)}
}

// wl_seat capability bitmask, mirrored from the client-side table.
const (
	CapabilityPointer  uint32 = 1
	CapabilityKeyboard uint32 = 2
	CapabilityTouch    uint32 = 4
)

// Seat aggregates one user's input devices and associated focus/selection
// state (spec §3). This core exposes exactly one seat.
type Seat struct {
	Name         string
	Capabilities uint32

	Keyboard KeyboardState
	Pointer  PointerState
	Touch    TouchState

	serials *object.SerialAllocator

	// PopupGrabStack holds the serials of nested popup grabs, most recent
	// last, so the Nth popup's dismissal only releases back to the (N-1)th.
	PopupGrabStack []uint32
}

func New(serials *object.SerialAllocator) *Seat {
	return &Seat{
		Name:         "seat0",
		Capabilities: CapabilityPointer | CapabilityKeyboard | CapabilityTouch,
		Keyboard:     newKeyboardState(),
		Touch:        newTouchState(),
		serials:      serials,
	}
}

func (s *Seat) NextSerial() uint32 { return s.serials.Next() }
