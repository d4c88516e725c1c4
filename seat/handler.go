//go:build linux

package seat

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/wire"
)

const (
	seatOpGetPointer  wire.Opcode = 0
	seatOpGetKeyboard wire.Opcode = 1
	seatOpGetTouch    wire.Opcode = 2
	seatOpRelease     wire.Opcode = 3
	seatEventCapabilities wire.Opcode = 0
	seatEventName         wire.Opcode = 1

	pointerOpSetCursor wire.Opcode = 0
	pointerOpRelease   wire.Opcode = 1
	pointerEventEnter        wire.Opcode = 0
	pointerEventLeave        wire.Opcode = 1
	pointerEventMotion       wire.Opcode = 2
	pointerEventButton       wire.Opcode = 3
	pointerEventAxis         wire.Opcode = 4
	pointerEventFrame        wire.Opcode = 5

	keyboardOpRelease wire.Opcode = 0
	keyboardEventKeymap     wire.Opcode = 0
	keyboardEventEnter      wire.Opcode = 1
	keyboardEventLeave      wire.Opcode = 2
	keyboardEventKey        wire.Opcode = 3
	keyboardEventModifiers  wire.Opcode = 4

	touchOpRelease wire.Opcode = 0
	touchEventDown   wire.Opcode = 0
	touchEventUp     wire.Opcode = 1
	touchEventMotion wire.Opcode = 2
	touchEventFrame  wire.Opcode = 3
	touchEventCancel wire.Opcode = 4

	keymapFormatXkbV1 uint32 = 1
)

// binding is one client's set of bound input device resources.
type binding struct {
	client     *object.Client
	pointerID  uint32
	keyboardID uint32
	touchID    uint32
}

// Handler implements object.Handler for wl_seat and the wl_pointer/
// wl_keyboard/wl_touch resources it mints. Its exported injection methods
// (Motion, Button, Key, ...) are the platform backend's entry points into
// the input router (spec component D).
type Handler struct {
	log  zerolog.Logger
	seat *Seat

	mu       sync.Mutex
	bindings map[object.ClientID]*binding
}

func NewHandler(log zerolog.Logger, seat *Seat) *Handler {
	return &Handler{log: log, seat: seat, bindings: make(map[object.ClientID]*binding)}
}

func (h *Handler) Interface() string { return "wl_seat" }

func (h *Handler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	r, err := c.Register(id, "wl_seat", version, nil)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.bindings[c.ID] = &binding{client: c}
	h.mu.Unlock()

	b := wire.NewMessageBuilder()
	b.PutUint32(h.seat.Capabilities)
	_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(id), seatEventCapabilities))
	if version >= 2 {
		nb := wire.NewMessageBuilder()
		nb.PutString(h.seat.Name)
		_ = c.Conn.Send(nb.BuildMessage(wire.ObjectID(id), seatEventName))
	}
	return r, nil
}

func (h *Handler) binding(c *object.Client) *binding {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.bindings[c.ID]
	if !ok {
		b = &binding{client: c}
		h.bindings[c.ID] = b
	}
	return b
}

func (h *Handler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "wl_seat":
		return h.dispatchSeat(c, r, msg)
	case "wl_pointer":
		return h.dispatchPointer(c, r, msg)
	case "wl_keyboard":
		return h.dispatchKeyboard(c, r, msg)
	case "wl_touch":
		return h.dispatchTouch(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "seat handler got unexpected interface %q", r.Interface)
	}
}

func (h *Handler) dispatchSeat(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	b := h.binding(c)

	switch msg.Opcode {
	case seatOpGetPointer:
		newID, err := dec.NewID()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_pointer request")
		}
		b.pointerID = uint32(newID)
		_, err = c.Register(uint32(newID), "wl_pointer", 1, nil)
		return err
	case seatOpGetKeyboard:
		newID, err := dec.NewID()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_keyboard request")
		}
		b.keyboardID = uint32(newID)
		if _, err := c.Register(uint32(newID), "wl_keyboard", 1, nil); err != nil {
			return err
		}
		h.sendKeymap(c, uint32(newID))
		return nil
	case seatOpGetTouch:
		newID, err := dec.NewID()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_touch request")
		}
		b.touchID = uint32(newID)
		_, err = c.Register(uint32(newID), "wl_touch", 1, nil)
		return err
	case seatOpRelease:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_seat opcode %d", msg.Opcode)
	}
}

func (h *Handler) sendKeymap(c *object.Client, keyboardObjID uint32) {
	fd, size, err := h.seat.Keyboard.Keymap.ExportFD()
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to export keymap fd")
		return
	}
	b := wire.NewMessageBuilder()
	b.PutUint32(keymapFormatXkbV1)
	b.PutFD(fd)
	b.PutUint32(size)
	_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(keyboardObjID), keyboardEventKeymap))
}

func (h *Handler) dispatchPointer(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case pointerOpSetCursor:
		_, _ = dec.Uint32()
		surf, _ := dec.Object()
		_, _ = dec.Int32()
		_, _ = dec.Int32()
		if surf == 0 {
			h.seat.Pointer.CursorShape = ""
		}
		return nil
	case pointerOpRelease:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_pointer opcode %d", msg.Opcode)
	}
}

func (h *Handler) dispatchKeyboard(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case keyboardOpRelease:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_keyboard opcode %d", msg.Opcode)
	}
}

func (h *Handler) dispatchTouch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case touchOpRelease:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_touch opcode %d", msg.Opcode)
	}
}

// ---- Input injection: the platform backend's entry points ----

// Motion updates the pointer's absolute position and focus. focusClient/
// focusSurface/hasFocus are resolved by the scene aggregator's hit test
// (topmost surface under the cursor whose input region contains the
// point); this package only handles the resulting enter/leave/motion
// ceremony and serial stamping (spec §4.D).
func (h *Handler) Motion(focusClient object.ClientID, focusSurface uint32, hasFocus bool, c *object.Client, x, y float64, timeMs uint32) {
	p := &h.seat.Pointer
	if p.HasFocus != hasFocus || p.FocusClient != focusClient || p.FocusSurface != focusSurface {
		if p.HasFocus {
			h.sendPointerLeave(p.FocusClient)
		}
		p.HasFocus, p.FocusClient, p.FocusSurface = hasFocus, focusClient, focusSurface
		if hasFocus {
			h.sendPointerEnter(c, focusSurface, x, y)
		}
	}
	if hasFocus {
		h.sendToPointer(focusClient, func(b *wire.MessageBuilder) {
			b.PutUint32(timeMs)
			b.PutFixed(wire.FixedFromFloat(x))
			b.PutFixed(wire.FixedFromFloat(y))
		}, pointerEventMotion)
		h.sendToPointer(focusClient, func(b *wire.MessageBuilder) {}, pointerEventFrame)
	}
}

func (h *Handler) sendPointerEnter(c *object.Client, surfaceID uint32, x, y float64) {
	serial := h.seat.NextSerial()
	b := h.binding(c)
	if b.pointerID == 0 {
		return
	}
	msg := wire.NewMessageBuilder()
	msg.PutUint32(serial)
	msg.PutObject(wire.ObjectID(surfaceID))
	msg.PutFixed(wire.FixedFromFloat(x))
	msg.PutFixed(wire.FixedFromFloat(y))
	_ = c.Conn.Send(msg.BuildMessage(wire.ObjectID(b.pointerID), pointerEventEnter))
}

func (h *Handler) sendPointerLeave(clientID object.ClientID) {
	serial := h.seat.NextSerial()
	h.sendToPointer(clientID, func(b *wire.MessageBuilder) {
		b.PutUint32(serial)
		b.PutObject(wire.ObjectID(h.seat.Pointer.FocusSurface))
	}, pointerEventLeave)
}

func (h *Handler) sendToPointer(clientID object.ClientID, fill func(*wire.MessageBuilder), opcode wire.Opcode) {
	h.mu.Lock()
	b, ok := h.bindings[clientID]
	h.mu.Unlock()
	if !ok || b.pointerID == 0 {
		return
	}
	msg := wire.NewMessageBuilder()
	fill(msg)
	_ = b.client.Conn.Send(msg.BuildMessage(wire.ObjectID(b.pointerID), opcode))
}

// Button injects a pointer button event against the current focus.
func (h *Handler) Button(button uint32, state KeyState, timeMs uint32) {
	if !h.seat.Pointer.HasFocus {
		return
	}
	serial := h.seat.NextSerial()
	h.sendToPointer(h.seat.Pointer.FocusClient, func(b *wire.MessageBuilder) {
		b.PutUint32(serial)
		b.PutUint32(timeMs)
		b.PutUint32(button)
		b.PutUint32(uint32(state))
	}, pointerEventButton)
}

// Axis injects a scroll/axis event against the current focus.
func (h *Handler) Axis(axis uint32, value float64, timeMs uint32) {
	if !h.seat.Pointer.HasFocus {
		return
	}
	h.sendToPointer(h.seat.Pointer.FocusClient, func(b *wire.MessageBuilder) {
		b.PutUint32(timeMs)
		b.PutUint32(axis)
		b.PutFixed(wire.FixedFromFloat(value))
	}, pointerEventAxis)
}

// InjectMotion updates the tracked pointer position and reports it to
// whoever currently holds pointer focus, without resolving focus itself —
// a wlr-virtual-pointer device rides on top of the focus surface-under-
// cursor hit-testing already established, the same way Button and Axis do.
func (h *Handler) InjectMotion(x, y float64, timeMs uint32) {
	p := &h.seat.Pointer
	p.X, p.Y = x, y
	if !p.HasFocus {
		return
	}
	h.sendToPointer(p.FocusClient, func(b *wire.MessageBuilder) {
		b.PutUint32(timeMs)
		b.PutFixed(wire.FixedFromFloat(x))
		b.PutFixed(wire.FixedFromFloat(y))
	}, pointerEventMotion)
	h.sendToPointer(p.FocusClient, func(b *wire.MessageBuilder) {}, pointerEventFrame)
}

// KeyboardFocus moves keyboard focus to a new client/surface, sending
// leave then enter with a snapshot of pressed keys (spec §4.D).
func (h *Handler) KeyboardFocus(c *object.Client, surfaceID uint32, hasFocus bool) {
	k := &h.seat.Keyboard
	if k.HasFocus {
		h.sendKeyboardLeave(k.FocusClient, k.FocusSurface)
	}
	k.HasFocus, k.FocusSurface = hasFocus, surfaceID
	if hasFocus && c != nil {
		k.FocusClient = c.ID
		h.sendKeyboardEnter(c, surfaceID)
	}
}

func (h *Handler) sendKeyboardEnter(c *object.Client, surfaceID uint32) {
	serial := h.seat.NextSerial()
	b := h.binding(c)
	if b.keyboardID == 0 {
		return
	}
	pressed := h.seat.Keyboard.Pressed
	arr := make([]byte, 0, len(pressed)*4)
	for k := range pressed {
		arr = append(arr, byte(k), byte(k>>8), byte(k>>16), byte(k>>24))
	}
	msg := wire.NewMessageBuilder()
	msg.PutUint32(serial)
	msg.PutObject(wire.ObjectID(surfaceID))
	msg.PutArray(arr)
	_ = c.Conn.Send(msg.BuildMessage(wire.ObjectID(b.keyboardID), keyboardEventEnter))
}

func (h *Handler) sendKeyboardLeave(clientID object.ClientID, surfaceID uint32) {
	serial := h.seat.NextSerial()
	h.mu.Lock()
	b, ok := h.bindings[clientID]
	h.mu.Unlock()
	if !ok || b.keyboardID == 0 {
		return
	}
	msg := wire.NewMessageBuilder()
	msg.PutUint32(serial)
	msg.PutObject(wire.ObjectID(surfaceID))
	_ = b.client.Conn.Send(msg.BuildMessage(wire.ObjectID(b.keyboardID), keyboardEventLeave))
}

// Key injects a raw scancode; the +8 X11 offset is applied by the caller
// (the platform backend), matching spec §4.D's "add 8 for historical X
// offset" note made explicit at the boundary where the raw code is known.
func (h *Handler) Key(keycode uint32, state KeyState, timeMs uint32) {
	k := &h.seat.Keyboard
	if state == KeyPressed {
		k.Pressed[keycode] = struct{}{}
	} else {
		delete(k.Pressed, keycode)
	}
	if !k.HasFocus {
		return
	}
	serial := h.seat.NextSerial()
	h.mu.Lock()
	b, ok := h.bindings[k.FocusClient]
	h.mu.Unlock()
	if !ok || b.keyboardID == 0 {
		return
	}
	msg := wire.NewMessageBuilder()
	msg.PutUint32(serial)
	msg.PutUint32(timeMs)
	msg.PutUint32(keycode)
	msg.PutUint32(uint32(state))
	_ = b.client.Conn.Send(msg.BuildMessage(wire.ObjectID(b.keyboardID), keyboardEventKey))
}

// Modifiers injects an updated modifier mask, sent to the focused client's
// keyboard resource.
func (h *Handler) Modifiers(mods Modifiers) {
	k := &h.seat.Keyboard
	k.Modifiers = mods
	if !k.HasFocus {
		return
	}
	serial := h.seat.NextSerial()
	h.mu.Lock()
	b, ok := h.bindings[k.FocusClient]
	h.mu.Unlock()
	if !ok || b.keyboardID == 0 {
		return
	}
	msg := wire.NewMessageBuilder()
	msg.PutUint32(serial)
	msg.PutUint32(mods.Depressed)
	msg.PutUint32(mods.Latched)
	msg.PutUint32(mods.Locked)
	msg.PutUint32(mods.Group)
	_ = b.client.Conn.Send(msg.BuildMessage(wire.ObjectID(b.keyboardID), keyboardEventModifiers))
}

// TouchDown records a new touch point and notifies the originating client.
func (h *Handler) TouchDown(c *object.Client, id int32, surfaceID uint32, x, y float64, timeMs uint32) {
	serial := h.seat.NextSerial()
	h.seat.Touch.Points[id] = &TouchPoint{ID: id, SurfaceID: surfaceID, ClientID: c.ID, X: x, Y: y}
	b := h.binding(c)
	if b.touchID == 0 {
		return
	}
	msg := wire.NewMessageBuilder()
	msg.PutUint32(serial)
	msg.PutUint32(timeMs)
	msg.PutObject(wire.ObjectID(surfaceID))
	msg.PutInt32(id)
	msg.PutFixed(wire.FixedFromFloat(x))
	msg.PutFixed(wire.FixedFromFloat(y))
	_ = c.Conn.Send(msg.BuildMessage(wire.ObjectID(b.touchID), touchEventDown))
}

// TouchMotion updates an active point's coordinates.
func (h *Handler) TouchMotion(id int32, x, y float64, timeMs uint32) {
	pt, ok := h.seat.Touch.Points[id]
	if !ok {
		return
	}
	pt.X, pt.Y = x, y
	h.mu.Lock()
	b, ok := h.bindings[pt.ClientID]
	h.mu.Unlock()
	if !ok || b.touchID == 0 {
		return
	}
	msg := wire.NewMessageBuilder()
	msg.PutUint32(timeMs)
	msg.PutInt32(id)
	msg.PutFixed(wire.FixedFromFloat(x))
	msg.PutFixed(wire.FixedFromFloat(y))
	_ = b.client.Conn.Send(msg.BuildMessage(wire.ObjectID(b.touchID), touchEventMotion))
}

// TouchUp removes an active point and notifies its originating client.
func (h *Handler) TouchUp(id int32, timeMs uint32) {
	pt, ok := h.seat.Touch.Points[id]
	if !ok {
		return
	}
	delete(h.seat.Touch.Points, id)
	serial := h.seat.NextSerial()
	h.mu.Lock()
	b, ok := h.bindings[pt.ClientID]
	h.mu.Unlock()
	if !ok || b.touchID == 0 {
		return
	}
	msg := wire.NewMessageBuilder()
	msg.PutUint32(serial)
	msg.PutUint32(timeMs)
	msg.PutInt32(id)
	_ = b.client.Conn.Send(msg.BuildMessage(wire.ObjectID(b.touchID), touchEventUp))
}

// TouchCancel clears every active point, notifying each originating
// client exactly once.
func (h *Handler) TouchCancel() {
	notified := map[object.ClientID]bool{}
	for _, pt := range h.seat.Touch.Points {
		if notified[pt.ClientID] {
			continue
		}
		notified[pt.ClientID] = true
		h.mu.Lock()
		b, ok := h.bindings[pt.ClientID]
		h.mu.Unlock()
		if ok && b.touchID != 0 {
			msg := wire.NewMessageBuilder()
			_ = b.client.Conn.Send(msg.BuildMessage(wire.ObjectID(b.touchID), touchEventCancel))
		}
	}
	h.seat.Touch.Points = make(map[int32]*TouchPoint)
}
