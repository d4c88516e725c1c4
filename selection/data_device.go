package selection

import "github.com/wawona-wm/wawona/object"

// Action is the wl_data_device_manager.dnd_action bitmask.
type Action uint32

const (
	ActionNone Action = 0
	ActionCopy Action = 1 << 0
	ActionMove Action = 1 << 1
	ActionAsk  Action = 1 << 2
)

// Negotiate resolves the compositor's negotiated DnD action per spec
// §4.E: the preferred action if it is in both source and dest action
// sets, else the first of {copy, move, ask} present in the intersection,
// else ActionNone.
func Negotiate(source, dest, preferred Action) Action {
	intersection := source & dest
	if intersection == ActionNone {
		return ActionNone
	}
	if preferred != ActionNone && intersection&preferred != 0 {
		return preferred
	}
	for _, candidate := range [...]Action{ActionCopy, ActionMove, ActionAsk} {
		if intersection&candidate != 0 {
			return candidate
		}
	}
	return ActionNone
}

// SourceKind tags whether a selection source is a normal client data
// source or a privileged data-control source (spec §9 "polymorphism over
// selection sources").
type SourceKind int

const (
	SourceClient SourceKind = iota
	SourceControl
)

// Source is a wl_data_source (or wlr data-control source).
type Source struct {
	ObjectID  uint32
	ClientID  object.ClientID
	Kind      SourceKind
	MimeTypes []string
	Actions   Action
	Alive     bool
}

// Offer is the recipient-side handle created per bound data device when a
// selection or drag begins.
type Offer struct {
	ObjectID        uint32
	ClientID        object.ClientID
	SourceObjectID  uint32
	MimeTypes       []string
	SourceActions   Action
	PreferredAction Action
}

// Device is one client's bound wl_data_device.
type Device struct {
	ObjectID uint32
	ClientID object.ClientID
}

// DragPhase is the drag state machine's current phase (spec §4.E).
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragDragging
	DragFinishing
	DragCancelled
)

// Drag holds the active drag-and-drop transaction, if any.
type Drag struct {
	Phase           DragPhase
	SourceObjectID  uint32
	OriginSurfaceID uint32
	IconSurfaceID   uint32
	FocusSurfaceID  uint32
	FocusClientID   object.ClientID
	FocusDeviceID   uint32
	CurrentOfferID  uint32
	GrabSerial      uint32
}
