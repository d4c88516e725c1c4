//go:build linux

package shell

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/surface"
	"github.com/wawona-wm/wawona/wire"
)

const (
	xdgWmBaseOpDestroy          wire.Opcode = 0
	xdgWmBaseOpCreatePositioner wire.Opcode = 1
	xdgWmBaseOpGetXdgSurface    wire.Opcode = 2
	xdgWmBaseOpPong             wire.Opcode = 3
	xdgWmBaseEventPing          wire.Opcode = 0

	xdgSurfaceOpDestroy           wire.Opcode = 0
	xdgSurfaceOpGetToplevel       wire.Opcode = 1
	xdgSurfaceOpGetPopup          wire.Opcode = 2
	xdgSurfaceOpSetWindowGeometry wire.Opcode = 3
	xdgSurfaceOpAckConfigure      wire.Opcode = 4
	xdgSurfaceEventConfigure      wire.Opcode = 0

	xdgToplevelOpDestroy         wire.Opcode = 0
	xdgToplevelOpSetParent       wire.Opcode = 1
	xdgToplevelOpSetTitle        wire.Opcode = 2
	xdgToplevelOpSetAppID        wire.Opcode = 3
	xdgToplevelOpShowWindowMenu  wire.Opcode = 4
	xdgToplevelOpMove            wire.Opcode = 5
	xdgToplevelOpResize          wire.Opcode = 6
	xdgToplevelOpSetMaxSize      wire.Opcode = 7
	xdgToplevelOpSetMinSize      wire.Opcode = 8
	xdgToplevelOpSetMaximized    wire.Opcode = 9
	xdgToplevelOpUnsetMaximized  wire.Opcode = 10
	xdgToplevelOpSetFullscreen   wire.Opcode = 11
	xdgToplevelOpUnsetFullscreen wire.Opcode = 12
	xdgToplevelOpSetMinimized    wire.Opcode = 13
	xdgToplevelEventConfigure    wire.Opcode = 0
	xdgToplevelEventClose        wire.Opcode = 1

	xdgPositionerOpDestroy             wire.Opcode = 0
	xdgPositionerOpSetSize             wire.Opcode = 1
	xdgPositionerOpSetAnchorRect       wire.Opcode = 2
	xdgPositionerOpSetAnchor           wire.Opcode = 3
	xdgPositionerOpSetGravity          wire.Opcode = 4
	xdgPositionerOpSetConstraintAdjust wire.Opcode = 5
	xdgPositionerOpSetOffset           wire.Opcode = 6
	xdgPositionerOpSetReactive         wire.Opcode = 7
	xdgPositionerOpSetParentSize       wire.Opcode = 8
	xdgPositionerOpSetParentConfigure  wire.Opcode = 9

	xdgPopupOpDestroy     wire.Opcode = 0
	xdgPopupOpGrab        wire.Opcode = 1
	xdgPopupOpReposition  wire.Opcode = 2
	xdgPopupEventConfigure  wire.Opcode = 0
	xdgPopupEventDone       wire.Opcode = 1
	xdgPopupEventRepositioned wire.Opcode = 3
)

// XdgToplevel state values (configure states array), mirrored from the
// client-side table.
const (
	XdgToplevelStateMaximized   uint32 = 1
	XdgToplevelStateFullscreen  uint32 = 2
	XdgToplevelStateResizing    uint32 = 3
	XdgToplevelStateActivated   uint32 = 4
	XdgToplevelStateTiledLeft   uint32 = 5
	XdgToplevelStateTiledRight  uint32 = 6
	XdgToplevelStateTiledTop    uint32 = 7
	XdgToplevelStateTiledBottom uint32 = 8
)

// OutputGeometry is queried by the shell to compute maximize/fullscreen
// target geometry, decoupling this package from the frame package's
// concrete Output type.
type OutputGeometry func() Geometry

// WindowObserver is notified of window lifecycle events so the events
// package (spec component J) can forward them to the platform host.
type WindowObserver interface {
	WindowCreated(w *Window)
	WindowDestroyed(w *Window)
	WindowGeometryChanged(w *Window)
}

// Handler implements object.Handler for xdg_wm_base and every resource it
// and its children mint: xdg_surface, xdg_toplevel, xdg_popup,
// xdg_positioner. It is spec component C's runtime.
type Handler struct {
	log      zerolog.Logger
	serials  *object.SerialAllocator
	output   OutputGeometry
	observer WindowObserver
	decorationPolicy DecorationPolicy

	mu      sync.Mutex
	windows map[uint32]*Window
	popups  map[uint32]*Popup

	// windowBindings lets focus bookkeeping re-send a toplevel configure
	// for a window it didn't just create (the previously-focused window
	// on a new registration, or the fallback window on a destroy).
	windowBindings map[uint32]windowBinding

	// keyboardFocus/pointerFocus are 0 when no window holds focus.
	// windowOrder is the z-order front-to-back-raised list, most recently
	// raised last. focusHistory is the destroy-time fallback stack, most
	// recently superseded first — spec's supplemented window-focus
	// bookkeeping (register raises + focuses, destroy falls back).
	keyboardFocus uint32
	pointerFocus  uint32
	windowOrder   []uint32
	focusHistory  []uint32
}

// windowBinding is the (client, xdg_surface resource) pair a window was
// created against, kept so focus changes can re-send that window's
// configure without the caller having to carry it around.
type windowBinding struct {
	client *object.Client
	res    *object.Resource
}

func NewHandler(log zerolog.Logger, serials *object.SerialAllocator, output OutputGeometry, observer WindowObserver) *Handler {
	return &Handler{
		log:     log,
		serials: serials,
		output:  output,
		observer: observer,
		decorationPolicy: PolicyPreferClient,
		windows: make(map[uint32]*Window),
		popups:  make(map[uint32]*Popup),
		windowBindings: make(map[uint32]windowBinding),
	}
}

func (h *Handler) Interface() string { return "xdg_wm_base" }

func (h *Handler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "xdg_wm_base", version, nil)
}

func (h *Handler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "xdg_wm_base":
		return h.dispatchWmBase(c, r, msg)
	case "xdg_positioner":
		return h.dispatchPositioner(c, r, msg)
	case "xdg_surface":
		return h.dispatchXdgSurface(c, r, msg)
	case "xdg_toplevel":
		return h.dispatchToplevel(c, r, msg)
	case "xdg_popup":
		return h.dispatchPopup(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "shell handler got unexpected interface %q", r.Interface)
	}
}

func (h *Handler) dispatchWmBase(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case xdgWmBaseOpDestroy:
		c.Unregister(r.ID)
		return nil
	case xdgWmBaseOpCreatePositioner:
		newID, err := dec.NewID()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed create_positioner request")
		}
		_, err = c.Register(uint32(newID), "xdg_positioner", 1, &Positioner{})
		return err
	case xdgWmBaseOpGetXdgSurface:
		newID, e1 := dec.NewID()
		surfaceID, e2 := dec.Object()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_xdg_surface request")
		}
		sres, ok := c.Lookup(uint32(surfaceID))
		if !ok {
			return object.NewError(object.KindResourceMissing, "get_xdg_surface: no such surface %d", surfaceID)
		}
		xs := &xdgSurfaceState{surface: sres.Data.(*surface.Surface)}
		_, err := c.Register(uint32(newID), "xdg_surface", 1, xs)
		return err
	case xdgWmBaseOpPong:
		_, _ = dec.Uint32()
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown xdg_wm_base opcode %d", msg.Opcode)
	}
}

// xdgSurfaceState is the xdg_surface resource's user data: the underlying
// wl_surface plus pending window geometry and serial bookkeeping.
type xdgSurfaceState struct {
	surface       *surface.Surface
	geometry      Geometry
	window        *Window
	popup         *Popup
	toplevelObjID uint32
}

func (h *Handler) dispatchPositioner(c *object.Client, r *object.Resource, msg *wire.Message) error {
	p := r.Data.(*Positioner)
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case xdgPositionerOpDestroy:
		c.Unregister(r.ID)
		return nil
	case xdgPositionerOpSetSize:
		w, e1 := dec.Int32()
		ht, e2 := dec.Int32()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_size request")
		}
		p.Width, p.Height = w, ht
		return nil
	case xdgPositionerOpSetAnchorRect:
		x, e1 := dec.Int32()
		y, e2 := dec.Int32()
		w, e3 := dec.Int32()
		ht, e4 := dec.Int32()
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_anchor_rect request")
		}
		p.AnchorRect = Geometry{X: x, Y: y, W: w, H: ht}
		return nil
	case xdgPositionerOpSetAnchor:
		v, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_anchor request")
		}
		p.Anchor = Anchor(v)
		return nil
	case xdgPositionerOpSetGravity:
		v, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_gravity request")
		}
		p.Gravity = Gravity(v)
		return nil
	case xdgPositionerOpSetConstraintAdjust:
		v, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_constraint_adjustment request")
		}
		p.ConstraintAdj = ConstraintAdjustment(v)
		return nil
	case xdgPositionerOpSetOffset:
		x, e1 := dec.Int32()
		y, e2 := dec.Int32()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_offset request")
		}
		p.OffsetX, p.OffsetY = x, y
		return nil
	case xdgPositionerOpSetReactive:
		p.Reactive = true
		return nil
	case xdgPositionerOpSetParentSize:
		w, e1 := dec.Int32()
		ht, e2 := dec.Int32()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_parent_size request")
		}
		p.ParentWidth, p.ParentHeight = w, ht
		return nil
	case xdgPositionerOpSetParentConfigure:
		s, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_parent_configure request")
		}
		p.ParentSerial = s
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown xdg_positioner opcode %d", msg.Opcode)
	}
}

func (h *Handler) dispatchXdgSurface(c *object.Client, r *object.Resource, msg *wire.Message) error {
	xs := r.Data.(*xdgSurfaceState)
	dec := wire.NewDecoder(msg.Args)

	switch msg.Opcode {
	case xdgSurfaceOpDestroy:
		c.Unregister(r.ID)
		return nil

	case xdgSurfaceOpGetToplevel:
		newID, err := dec.NewID()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_toplevel request")
		}
		if err := xs.surface.AssignRole(surface.RoleToplevel); err != nil {
			return err
		}
		w := NewWindow(uint32(newID), c.ID, xs.surface.ID)
		xs.window = w
		xs.toplevelObjID = uint32(newID)
		h.mu.Lock()
		h.windows[w.ID] = w
		h.windowBindings[w.ID] = windowBinding{client: c, res: r}
		h.mu.Unlock()
		if _, err := c.Register(uint32(newID), "xdg_toplevel", 1, xs); err != nil {
			return err
		}
		if h.observer != nil {
			h.observer.WindowCreated(w)
		}
		h.raiseAndFocus(w)
		h.sendToplevelConfigure(c, r, xs, Geometry{})
		return nil

	case xdgSurfaceOpGetPopup:
		newID, e1 := dec.NewID()
		parentID, e2 := dec.Object()
		positionerID, e3 := dec.Object()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_popup request")
		}
		posRes, ok := c.Lookup(uint32(positionerID))
		if !ok {
			return object.NewError(object.KindResourceMissing, "get_popup: no such positioner %d", positionerID)
		}
		if err := xs.surface.AssignRole(surface.RolePopup); err != nil {
			return err
		}
		popup := &Popup{ID: uint32(newID), ParentID: uint32(parentID), Positioner: *posRes.Data.(*Positioner)}
		popup.Geometry = popup.Positioner.Resolve(h.output())
		xs.popup = popup
		h.mu.Lock()
		h.popups[popup.ID] = popup
		h.mu.Unlock()
		if _, err := c.Register(uint32(newID), "xdg_popup", 1, xs); err != nil {
			return err
		}
		h.sendPopupConfigure(c, uint32(newID), popup)
		h.sendXdgSurfaceConfigure(c, r)
		return nil

	case xdgSurfaceOpSetWindowGeometry:
		x, e1 := dec.Int32()
		y, e2 := dec.Int32()
		w, e3 := dec.Int32()
		ht, e4 := dec.Int32()
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_window_geometry request")
		}
		xs.geometry = Geometry{X: x, Y: y, W: w, H: ht}
		if xs.window != nil {
			xs.window.Geometry = xs.geometry
		}
		return nil

	case xdgSurfaceOpAckConfigure:
		s, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed ack_configure request")
		}
		if xs.window != nil {
			if s != xs.window.LastConfigureSerial {
				return object.NewError(object.KindSerialMismatch, "ack_configure: got %d, want %d", s, xs.window.LastConfigureSerial)
			}
			xs.window.AckedSerial = s
		}
		if xs.popup != nil {
			if s != xs.popup.LastConfigureSerial {
				return object.NewError(object.KindSerialMismatch, "ack_configure: got %d, want %d", s, xs.popup.LastConfigureSerial)
			}
		}
		return nil

	default:
		return object.NewProtocolError(r.ID, 0, "unknown xdg_surface opcode %d", msg.Opcode)
	}
}

func (h *Handler) sendXdgSurfaceConfigure(c *object.Client, r *object.Resource) {
	serial := h.serials.Next()
	xs := r.Data.(*xdgSurfaceState)
	if xs.window != nil {
		xs.window.LastConfigureSerial = serial
	}
	if xs.popup != nil {
		xs.popup.LastConfigureSerial = serial
	}
	b := wire.NewMessageBuilder()
	b.PutUint32(serial)
	_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(r.ID), xdgSurfaceEventConfigure))
}

// sendToplevelConfigure emits xdg_toplevel.configure followed by
// xdg_surface.configure, per spec §4.C step 1. An empty geometry
// (w==0,h==0) requests client-chosen size, used for the very first
// configure and for decoration-mode changes.
func (h *Handler) sendToplevelConfigure(c *object.Client, xdgSurfaceRes *object.Resource, xs *xdgSurfaceState, geo Geometry) {
	w := xs.window
	b := wire.NewMessageBuilder()
	b.PutInt32(geo.W)
	b.PutInt32(geo.H)
	states := w.StatesBitset()
	arr := make([]byte, len(states)*4)
	for i, s := range states {
		arr[i*4] = byte(s)
		arr[i*4+1] = byte(s >> 8)
		arr[i*4+2] = byte(s >> 16)
		arr[i*4+3] = byte(s >> 24)
	}
	b.PutArray(arr)
	_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(xs.toplevelObjID), xdgToplevelEventConfigure))
	h.sendXdgSurfaceConfigure(c, xdgSurfaceRes)
}

func (h *Handler) sendPopupConfigure(c *object.Client, popupObjID uint32, p *Popup) {
	b := wire.NewMessageBuilder()
	b.PutInt32(p.Geometry.X)
	b.PutInt32(p.Geometry.Y)
	b.PutInt32(p.Geometry.W)
	b.PutInt32(p.Geometry.H)
	_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(popupObjID), xdgPopupEventConfigure))
}

func (h *Handler) dispatchToplevel(c *object.Client, r *object.Resource, msg *wire.Message) error {
	xs := r.Data.(*xdgSurfaceState)
	w := xs.window
	dec := wire.NewDecoder(msg.Args)

	switch msg.Opcode {
	case xdgToplevelOpDestroy:
		h.mu.Lock()
		delete(h.windows, w.ID)
		delete(h.windowBindings, w.ID)
		h.windowOrder = removeFromOrder(h.windowOrder, w.ID)
		if h.pointerFocus == w.ID {
			h.pointerFocus = 0
		}
		var next *Window
		if h.keyboardFocus == w.ID {
			h.keyboardFocus = 0
			for i, id := range h.focusHistory {
				if cand, ok := h.windows[id]; ok {
					next = cand
					h.focusHistory = append(h.focusHistory[:i:i], h.focusHistory[i+1:]...)
					break
				}
			}
		}
		h.mu.Unlock()

		w.Destroyed = true
		if h.observer != nil {
			h.observer.WindowDestroyed(w)
		}
		c.Unregister(r.ID)

		if next != nil {
			h.raiseAndFocus(next)
			h.sendReconfigureFor(next)
		}
		return nil
	case xdgToplevelOpSetParent:
		parent, err := dec.Object()
		if err == nil {
			w.ParentID = uint32(parent)
		}
		return nil
	case xdgToplevelOpSetTitle:
		title, err := dec.String()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_title request")
		}
		w.Title = title
		return nil
	case xdgToplevelOpSetAppID:
		appID, err := dec.String()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_app_id request")
		}
		w.AppID = appID
		return nil
	case xdgToplevelOpShowWindowMenu, xdgToplevelOpMove, xdgToplevelOpResize:
		return nil // interactive grab requests are handled by the platform host, not this core
	case xdgToplevelOpSetMaxSize, xdgToplevelOpSetMinSize:
		_, _ = dec.Int32()
		_, _ = dec.Int32()
		return nil
	case xdgToplevelOpSetMaximized:
		w.SetMaximized(h.output())
		h.reconfigure(c, r, xs)
		return nil
	case xdgToplevelOpUnsetMaximized:
		w.UnsetMaximized()
		h.reconfigure(c, r, xs)
		return nil
	case xdgToplevelOpSetFullscreen:
		_, _ = dec.Object()
		w.SetFullscreen(h.output())
		h.reconfigure(c, r, xs)
		return nil
	case xdgToplevelOpUnsetFullscreen:
		w.UnsetFullscreen()
		h.reconfigure(c, r, xs)
		return nil
	case xdgToplevelOpSetMinimized:
		w.Minimized = true
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown xdg_toplevel opcode %d", msg.Opcode)
	}
}

// reconfigure re-emits toplevel+surface configure and notifies the window
// observer of the geometry change.
func (h *Handler) reconfigure(c *object.Client, xdgSurfaceRes *object.Resource, xs *xdgSurfaceState) {
	h.sendToplevelConfigure(c, xdgSurfaceRes, xs, xs.window.Geometry)
	if h.observer != nil {
		h.observer.WindowGeometryChanged(xs.window)
	}
}

// ReconfigureDecorations rebuilds a window's activated-state bitmask and
// re-sends configure — the decoration-negotiation ceremony from
// original_source's windows.rs, generalized to any activation change.
func (h *Handler) ReconfigureDecorations(c *object.Client, r *object.Resource) {
	if r == nil {
		return
	}
	xs, ok := r.Data.(*xdgSurfaceState)
	if !ok || xs.window == nil {
		return
	}
	h.sendToplevelConfigure(c, r, xs, xs.window.Geometry)
}

func (h *Handler) dispatchPopup(c *object.Client, r *object.Resource, msg *wire.Message) error {
	xs := r.Data.(*xdgSurfaceState)
	p := xs.popup
	dec := wire.NewDecoder(msg.Args)

	switch msg.Opcode {
	case xdgPopupOpDestroy:
		h.mu.Lock()
		delete(h.popups, p.ID)
		h.mu.Unlock()
		c.Unregister(r.ID)
		return nil
	case xdgPopupOpGrab:
		_, e1 := dec.Object()
		serial, e2 := dec.Uint32()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed grab request")
		}
		p.GrabSerial = serial
		p.HasGrab = true
		return nil
	case xdgPopupOpReposition:
		posID, e1 := dec.Object()
		token, e2 := dec.Uint32()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed reposition request")
		}
		posRes, ok := c.Lookup(uint32(posID))
		if !ok {
			return object.NewError(object.KindResourceMissing, "reposition: no such positioner %d", posID)
		}
		p.Positioner = *posRes.Data.(*Positioner)
		p.Geometry = p.Positioner.Resolve(h.output())
		p.RepositionToken = token
		h.sendPopupConfigure(c, r.ID, p)
		h.sendXdgSurfaceConfigure(c, r)
		b := wire.NewMessageBuilder()
		b.PutUint32(token)
		_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(r.ID), xdgPopupEventRepositioned))
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown xdg_popup opcode %d", msg.Opcode)
	}
}

// Dismiss sends popup.done and tears down state — outside click with an
// active grab, parent destruction, or explicit destroy (spec §4.C).
func (h *Handler) Dismiss(c *object.Client, popupObjID uint32) {
	b := wire.NewMessageBuilder()
	_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(popupObjID), xdgPopupEventDone))
	h.mu.Lock()
	delete(h.popups, popupObjID)
	h.mu.Unlock()
}

// raiseAndFocus makes w the topmost window and gives it keyboard and
// pointer focus, deactivating and reconfiguring whichever window
// previously held keyboard focus. Mirrors register_window's focus+raise
// behavior from the original prototype (spec's supplemented window-focus
// bookkeeping).
func (h *Handler) raiseAndFocus(w *Window) {
	h.mu.Lock()
	previous := h.windows[h.keyboardFocus]
	if h.keyboardFocus != 0 && h.keyboardFocus != w.ID {
		h.focusHistory = prependHistory(h.focusHistory, h.keyboardFocus)
	}
	h.keyboardFocus = w.ID
	h.pointerFocus = w.ID
	h.windowOrder = raiseToFront(h.windowOrder, w.ID)
	h.mu.Unlock()

	w.Activated = true
	if previous != nil && previous.ID != w.ID {
		previous.Activated = false
		h.sendReconfigureFor(previous)
	}
}

// sendReconfigureFor re-sends a toplevel configure for a window this call
// didn't just create, using the (client, xdg_surface) binding recorded at
// get_toplevel time.
func (h *Handler) sendReconfigureFor(w *Window) {
	h.mu.Lock()
	binding, ok := h.windowBindings[w.ID]
	h.mu.Unlock()
	if !ok {
		return
	}
	xs, ok := binding.res.Data.(*xdgSurfaceState)
	if !ok {
		return
	}
	h.sendToplevelConfigure(binding.client, binding.res, xs, w.Geometry)
}

func raiseToFront(order []uint32, id uint32) []uint32 {
	out := make([]uint32, 0, len(order)+1)
	for _, v := range order {
		if v != id {
			out = append(out, v)
		}
	}
	return append(out, id)
}

func removeFromOrder(order []uint32, id uint32) []uint32 {
	out := make([]uint32, 0, len(order))
	for _, v := range order {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func prependHistory(history []uint32, id uint32) []uint32 {
	out := make([]uint32, 0, len(history)+1)
	out = append(out, id)
	for _, v := range history {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Windows returns a snapshot of every live window, for IPC introspection.
func (h *Handler) Windows() []*Window {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Window, 0, len(h.windows))
	for _, w := range h.windows {
		out = append(out, w)
	}
	return out
}
