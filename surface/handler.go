//go:build linux

package surface

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/wawona-wm/wawona/ext"
	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/wire"
)

// Request opcodes for wl_compositor/wl_surface/wl_region/wl_subcompositor/
// wl_subsurface, mirrored (and inverted to the server direction) from the
// client-side tables the wire package's teacher used.
const (
	compositorOpCreateSurface wire.Opcode = 0
	compositorOpCreateRegion  wire.Opcode = 1

	surfaceOpDestroy            wire.Opcode = 0
	surfaceOpAttach             wire.Opcode = 1
	surfaceOpDamage             wire.Opcode = 2
	surfaceOpFrame              wire.Opcode = 3
	surfaceOpSetOpaqueRegion    wire.Opcode = 4
	surfaceOpSetInputRegion     wire.Opcode = 5
	surfaceOpCommit             wire.Opcode = 6
	surfaceOpSetBufferTransform wire.Opcode = 7
	surfaceOpSetBufferScale     wire.Opcode = 8
	surfaceOpDamageBuffer       wire.Opcode = 9

	regionOpDestroy    wire.Opcode = 0
	regionOpAdd        wire.Opcode = 1
	regionOpSubtract   wire.Opcode = 2

	subcompositorOpDestroy        wire.Opcode = 0
	subcompositorOpGetSubsurface  wire.Opcode = 1

	subsurfaceOpDestroy      wire.Opcode = 0
	subsurfaceOpSetPosition  wire.Opcode = 1
	subsurfaceOpPlaceAbove   wire.Opcode = 2
	subsurfaceOpPlaceBelow   wire.Opcode = 3
	subsurfaceOpSetSync      wire.Opcode = 4
	subsurfaceOpSetDesync    wire.Opcode = 5
)

// CommitObserver is notified whenever a surface commits, so the shell and
// scene layers can react (configure matching, damage aggregation) without
// this package importing theirs.
type CommitObserver func(s *Surface, result CommitResult)

// Engine owns every live surface and region across all clients: the
// runtime half of spec component B. It implements object.Handler for
// wl_compositor, wl_subcompositor, and the resources they mint.
type Engine struct {
	log zerolog.Logger

	mu       sync.Mutex
	surfaces map[uint32]*Surface // keyed by server-internal surface id (== wl_surface resource id, namespaced by client below)
	byKey    map[surfaceKey]*Surface

	observers []CommitObserver
}

type surfaceKey struct {
	client object.ClientID
	id     uint32
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log:      log,
		surfaces: make(map[uint32]*Surface),
		byKey:    make(map[surfaceKey]*Surface),
	}
}

func (e *Engine) Interface() string { return "wl_compositor" }

// OnCommit registers a callback invoked after every successful commit.
func (e *Engine) OnCommit(fn CommitObserver) {
	e.observers = append(e.observers, fn)
}

func (e *Engine) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "wl_compositor", version, nil)
}

func (e *Engine) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case compositorOpCreateSurface:
		return e.createSurface(c, msg)
	case compositorOpCreateRegion:
		return e.createRegion(c, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_compositor opcode %d", msg.Opcode)
	}
}

func (e *Engine) createSurface(c *object.Client, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	newID, err := dec.NewID()
	if err != nil {
		return object.NewProtocolError(0, 0, "malformed create_surface request")
	}

	s := New(uint32(newID), c.ID)
	e.mu.Lock()
	e.byKey[surfaceKey{c.ID, uint32(newID)}] = s
	e.mu.Unlock()

	_, err = c.Register(uint32(newID), "wl_surface", 1, s)
	if err != nil {
		return err
	}
	client := c
	objID := uint32(newID)
	if res, ok := c.Lookup(objID); ok {
		res.Destroy = func() {
			e.mu.Lock()
			delete(e.byKey, surfaceKey{client.ID, objID})
			e.mu.Unlock()
		}
	}
	return nil
}

func (e *Engine) createRegion(c *object.Client, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	newID, err := dec.NewID()
	if err != nil {
		return object.NewProtocolError(0, 0, "malformed create_region request")
	}
	reg := &regionBuilder{}
	_, err = c.Register(uint32(newID), "wl_region", 1, reg)
	return err
}

// regionBuilder accumulates add/subtract requests into a region list; the
// core treats subtract as a best-effort drop of the subtracted rectangle
// rather than full polygon clipping, matching the lightweight region model
// spec §3 describes (a list of rectangles, validated and clamped on use).
type regionBuilder struct {
	rects []Region
}

// SurfaceHandler implements object.Handler for wl_surface, wl_region,
// wl_subcompositor, and wl_subsurface resources. It is a separate type
// from Engine because the registry advertises wl_subcompositor as its own
// global even though both handlers share the same surface table.
type SurfaceHandler struct {
	engine *Engine
	states *ext.SurfaceStates
}

func NewSurfaceHandler(e *Engine, states *ext.SurfaceStates) *SurfaceHandler {
	return &SurfaceHandler{engine: e, states: states}
}

func (h *SurfaceHandler) Interface() string { return "wl_subcompositor" }

func (h *SurfaceHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "wl_subcompositor", version, nil)
}

func (h *SurfaceHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "wl_surface":
		return h.dispatchSurface(c, r, msg)
	case "wl_region":
		return h.dispatchRegion(c, r, msg)
	case "wl_subcompositor":
		return h.dispatchSubcompositor(c, r, msg)
	case "wl_subsurface":
		return h.dispatchSubsurface(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "surface handler got unexpected interface %q", r.Interface)
	}
}

func (h *SurfaceHandler) dispatchSurface(c *object.Client, r *object.Resource, msg *wire.Message) error {
	s := r.Data.(*Surface)
	dec := wire.NewDecoder(msg.Args)

	switch msg.Opcode {
	case surfaceOpDestroy:
		c.Unregister(r.ID)
		if h.states != nil {
			h.states.Forget(s.ID)
		}
		return nil

	case surfaceOpAttach:
		buf, err1 := dec.Object()
		x, err2 := dec.Int32()
		y, err3 := dec.Int32()
		if err1 != nil || err2 != nil || err3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed attach request")
		}
		w, ht := h.resolveBufferSize(c, uint32(buf))
		s.Attach(uint32(buf), w, ht, x, y)
		return nil

	case surfaceOpDamage, surfaceOpDamageBuffer:
		x, err1 := dec.Int32()
		y, err2 := dec.Int32()
		w, err3 := dec.Int32()
		ht, err4 := dec.Int32()
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed damage request")
		}
		s.Damage(Region{X: x, Y: y, W: w, H: ht})
		return nil

	case surfaceOpFrame:
		cbID, err := dec.NewID()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed frame request")
		}
		s.AddFrameCallback(uint32(cbID))
		return nil

	case surfaceOpSetOpaqueRegion:
		regID, err := dec.Object()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_opaque_region request")
		}
		s.SetOpaqueRegion(h.resolveRegion(c, uint32(regID)))
		return nil

	case surfaceOpSetInputRegion:
		regID, err := dec.Object()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_input_region request")
		}
		s.SetInputRegion(h.resolveRegion(c, uint32(regID)))
		return nil

	case surfaceOpCommit:
		result := s.Commit()
		if result.ReleasedBufferID != 0 {
			sendBufferRelease(c, result.ReleasedBufferID)
		}
		lookup := func(id uint32) *Surface {
			if res, ok := c.Lookup(id); ok {
				if child, ok := res.Data.(*Surface); ok {
					return child
				}
			}
			return nil
		}
		for _, childID := range s.Children {
			if child := lookup(childID); child != nil {
				child.CommitFromParent(lookup)
			}
		}
		for _, obs := range h.engine.observers {
			obs(s, result)
		}
		return nil

	case surfaceOpSetBufferTransform:
		t, err := dec.Int32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_buffer_transform request")
		}
		s.SetBufferTransform(Transform(t))
		return nil

	case surfaceOpSetBufferScale:
		scale, err := dec.Int32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_buffer_scale request")
		}
		if serr := s.SetBufferScale(scale); serr != nil {
			return nil // invalid size: ignored per spec §7, not fatal
		}
		return nil

	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_surface opcode %d", msg.Opcode)
	}
}

// resolveBufferSize looks up an attached wl_buffer's real dimensions so
// the surface's derived size (spec §4.B step 3) reflects the buffer the
// client actually attached, instead of always being 0x0.
func (h *SurfaceHandler) resolveBufferSize(c *object.Client, bufferID uint32) (int32, int32) {
	if bufferID == 0 {
		return 0, 0
	}
	res, ok := c.Lookup(bufferID)
	if !ok {
		return 0, 0
	}
	buf, ok := res.Data.(*Buffer)
	if !ok {
		return 0, 0
	}
	return buf.Width, buf.Height
}

func (h *SurfaceHandler) resolveRegion(c *object.Client, id uint32) []Region {
	if id == 0 {
		return nil
	}
	res, ok := c.Lookup(id)
	if !ok {
		return nil
	}
	rb, ok := res.Data.(*regionBuilder)
	if !ok {
		return nil
	}
	return rb.rects
}

func (h *SurfaceHandler) dispatchRegion(c *object.Client, r *object.Resource, msg *wire.Message) error {
	rb := r.Data.(*regionBuilder)
	dec := wire.NewDecoder(msg.Args)

	switch msg.Opcode {
	case regionOpDestroy:
		c.Unregister(r.ID)
		return nil
	case regionOpAdd:
		x, e1 := dec.Int32()
		y, e2 := dec.Int32()
		w, e3 := dec.Int32()
		ht, e4 := dec.Int32()
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed region add request")
		}
		rb.rects = append(rb.rects, Region{X: x, Y: y, W: w, H: ht})
		return nil
	case regionOpSubtract:
		x, e1 := dec.Int32()
		y, e2 := dec.Int32()
		w, e3 := dec.Int32()
		ht, e4 := dec.Int32()
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed region subtract request")
		}
		sub := Region{X: x, Y: y, W: w, H: ht}
		kept := rb.rects[:0]
		for _, existing := range rb.rects {
			if !existing.Intersects(sub) {
				kept = append(kept, existing)
			}
		}
		rb.rects = kept
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_region opcode %d", msg.Opcode)
	}
}

func (h *SurfaceHandler) dispatchSubcompositor(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case subcompositorOpDestroy:
		c.Unregister(r.ID)
		return nil
	case subcompositorOpGetSubsurface:
		dec := wire.NewDecoder(msg.Args)
		newID, e1 := dec.NewID()
		surfaceID, e2 := dec.Object()
		parentID, e3 := dec.Object()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_subsurface request")
		}
		sres, ok := c.Lookup(uint32(surfaceID))
		if !ok {
			return object.NewError(object.KindResourceMissing, "get_subsurface: no such surface %d", surfaceID)
		}
		s := sres.Data.(*Surface)
		if err := s.AssignRole(RoleSubsurface); err != nil {
			return err
		}
		s.ParentID = uint32(parentID)
		s.Sync = true
		if pres, ok := c.Lookup(uint32(parentID)); ok {
			if parent := pres.Data.(*Surface); parent != nil {
				parent.Children = append(parent.Children, s.ID)
			}
		}
		_, err := c.Register(uint32(newID), "wl_subsurface", 1, s)
		return err
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_subcompositor opcode %d", msg.Opcode)
	}
}

func (h *SurfaceHandler) dispatchSubsurface(c *object.Client, r *object.Resource, msg *wire.Message) error {
	s := r.Data.(*Surface)
	dec := wire.NewDecoder(msg.Args)

	switch msg.Opcode {
	case subsurfaceOpDestroy:
		s.Role = RoleNone
		c.Unregister(r.ID)
		return nil
	case subsurfaceOpSetPosition:
		x, e1 := dec.Int32()
		y, e2 := dec.Int32()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_position request")
		}
		s.Pending.DX, s.Pending.DY = x, y
		return nil
	case subsurfaceOpPlaceAbove, subsurfaceOpPlaceBelow:
		// Stacking order among siblings is advisory for this core; the scene
		// aggregator currently composes subsurfaces in creation order.
		return nil
	case subsurfaceOpSetSync:
		s.Sync = true
		return nil
	case subsurfaceOpSetDesync:
		s.Sync = false
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_subsurface opcode %d", msg.Opcode)
	}
}
