package surface

import (
	"fmt"

	"github.com/wawona-wm/wawona/object"
)

// Transform is one of the 8 wl_output transform values a buffer may carry.
type Transform int

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

// swapsAxes reports whether this transform exchanges width and height when
// deriving a surface's logical size from its buffer (spec §3).
func (t Transform) swapsAxes() bool {
	switch t {
	case Transform90, Transform270, TransformFlipped90, TransformFlipped270:
		return true
	default:
		return false
	}
}

// Role is the specialization assigned to a surface; exclusive and once-only.
type Role int

const (
	RoleNone Role = iota
	RoleToplevel
	RolePopup
	RoleCursor
	RoleSubsurface
	RoleLayer
	RoleLock
)

// Callback is a pending wl_callback awaiting the surface's next presentation.
type Callback struct {
	ObjectID uint32
}

// State is one buffered record of a surface's attachable properties — the
// shape shared by pending, current, and cached (spec §3).
type State struct {
	BufferID      uint32 // 0 means no buffer attached
	BufferWidth   int32
	BufferHeight  int32
	DX, DY        int32 // attach offset
	Scale         int32
	Transform     Transform
	Opaque        []Region
	Input         []Region
	Damage        DamageHistory
	FrameCallback []Callback
}

func newState() State {
	return State{Scale: 1}
}

// Surface is one client's drawable: pending/current/cached state plus role
// and subsurface bookkeeping.
type Surface struct {
	ID       uint32
	ClientID object.ClientID

	Role Role

	Pending State
	Current State
	Cached  *State // non-nil only while this is a sync subsurface

	// Subsurface fields, valid only when Role == RoleSubsurface.
	ParentID uint32
	Sync     bool

	Children []uint32 // subsurface ids, in stacking order below/above parent content
}

// New creates a surface with empty pending/current state.
func New(id uint32, client object.ClientID) *Surface {
	return &Surface{ID: id, ClientID: client, Pending: newState(), Current: newState()}
}

// AssignRole sets a surface's role. Spec §3 invariant 5: exactly one role
// assignment per surface.
func (s *Surface) AssignRole(r Role) error {
	if s.Role != RoleNone {
		return object.NewProtocolError(s.ID, 0, "surface %d already has a role", s.ID)
	}
	s.Role = r
	if r == RoleSubsurface {
		s.Cached = &State{Scale: 1}
	}
	return nil
}

// Attach records a buffer reference and offset for the next commit.
func (s *Surface) Attach(bufferID uint32, w, h, dx, dy int32) {
	s.Pending.BufferID = bufferID
	s.Pending.BufferWidth = w
	s.Pending.BufferHeight = h
	s.Pending.DX = dx
	s.Pending.DY = dy
}

// Damage records surface-local damage for the next commit.
func (s *Surface) Damage(r Region) {
	s.Pending.Damage.Add(r)
}

// SetOpaqueRegion replaces the pending opaque region list.
func (s *Surface) SetOpaqueRegion(rs []Region) {
	s.Pending.Opaque = rs
}

// SetInputRegion replaces the pending input region list.
func (s *Surface) SetInputRegion(rs []Region) {
	s.Pending.Input = rs
}

// SetBufferScale sets the pending buffer scale; must be ≥ 1.
func (s *Surface) SetBufferScale(scale int32) error {
	if scale < 1 {
		return object.NewError(object.KindInvalidSize, "buffer scale %d must be >= 1", scale)
	}
	s.Pending.Scale = scale
	return nil
}

// SetBufferTransform sets the pending buffer transform.
func (s *Surface) SetBufferTransform(t Transform) {
	s.Pending.Transform = t
}

// Offset shifts the pending buffer's attach offset without a new Attach.
func (s *Surface) Offset(dx, dy int32) {
	s.Pending.DX = dx
	s.Pending.DY = dy
}

// AddFrameCallback queues a one-shot callback for the surface's next
// presentation.
func (s *Surface) AddFrameCallback(objectID uint32) {
	s.Pending.FrameCallback = append(s.Pending.FrameCallback, Callback{ObjectID: objectID})
}

// derivedSize computes logical width/height from buffer dimensions, scale,
// and transform, per spec §3: `buffer.size / scale`, swapped for
// 90/270/flipped-90/flipped-270.
func derivedSize(bw, bh, scale int32, t Transform) (w, h int32) {
	if scale < 1 {
		scale = 1
	}
	w, h = bw/scale, bh/scale
	if t.swapsAxes() {
		w, h = h, w
	}
	return
}

// CommitResult reports the side effects of a commit the caller (the
// surface Handler) must act on.
type CommitResult struct {
	ReleasedBufferID uint32 // 0 if no buffer was replaced
	FiredCallbacks   []Callback
}

// Commit applies pending state onto current (or cached, for a sync
// subsurface), following spec §4.B's seven/eight-step algorithm.
func (s *Surface) Commit() CommitResult {
	target := &s.Current
	if s.Role == RoleSubsurface && s.Sync {
		target = s.Cached
	}
	return s.applyCommit(target)
}

func (s *Surface) applyCommit(target *State) CommitResult {
	var result CommitResult

	if s.Pending.BufferID != target.BufferID && target.BufferID != 0 {
		result.ReleasedBufferID = target.BufferID
	}

	target.BufferID = s.Pending.BufferID
	target.DX, target.DY = s.Pending.DX, s.Pending.DY
	target.Scale = s.Pending.Scale
	target.Transform = s.Pending.Transform
	target.BufferWidth, target.BufferHeight = derivedSize(s.Pending.BufferWidth, s.Pending.BufferHeight, target.Scale, target.Transform)

	for _, r := range s.Pending.Damage.Regions() {
		if clamped, ok := r.Clamp(target.BufferWidth, target.BufferHeight); ok {
			target.Damage.Add(clamped)
		}
	}
	s.Pending.Damage.Clear()

	target.Opaque = validateRegions(s.Pending.Opaque, target.BufferWidth, target.BufferHeight)
	target.Input = validateRegions(s.Pending.Input, target.BufferWidth, target.BufferHeight)

	result.FiredCallbacks = s.Pending.FrameCallback
	target.FrameCallback = append(target.FrameCallback, s.Pending.FrameCallback...)
	s.Pending.FrameCallback = nil

	return result
}

// applyCachedToCurrent drains a sync subsurface's cached state into
// current; called when the parent commits.
func (s *Surface) applyCachedToCurrent() {
	if s.Cached == nil {
		return
	}
	s.Current = *s.Cached
	s.Cached = &State{Scale: 1}
}

// CommitFromParent is invoked by the parent's commit on every sync child,
// recursively (spec §4.B step 8). It drains this surface's cached state
// into current and then recurses into its own sync children.
func (s *Surface) CommitFromParent(lookup func(id uint32) *Surface) {
	if s.Role != RoleSubsurface || !s.Sync {
		return
	}
	s.applyCachedToCurrent()
	for _, childID := range s.Children {
		if child := lookup(childID); child != nil {
			child.CommitFromParent(lookup)
		}
	}
}

func validateRegions(rs []Region, width, height int32) []Region {
	out := make([]Region, 0, len(rs))
	for _, r := range rs {
		if clamped, ok := r.Clamp(width, height); ok {
			out = append(out, clamped)
		}
	}
	return out
}

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleToplevel:
		return "toplevel"
	case RolePopup:
		return "popup"
	case RoleCursor:
		return "cursor"
	case RoleSubsurface:
		return "subsurface"
	case RoleLayer:
		return "layer"
	case RoleLock:
		return "lock"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}
