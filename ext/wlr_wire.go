//go:build linux

package ext

import (
	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/seat"
	"github.com/wawona-wm/wawona/wire"
)

const (
	exportDMABUFManagerOpCaptureOutput       wire.Opcode = 0
	exportDMABUFManagerOpCaptureOutputCursor wire.Opcode = 1
	exportDMABUFManagerOpDestroy             wire.Opcode = 2

	exportDMABUFFrameOpDestroy      wire.Opcode = 0
	exportDMABUFFrameEventCancel    wire.Opcode = 100
	cancelReasonPermanent           uint32      = 1

	virtualPointerManagerOpCreateVirtualPointer           wire.Opcode = 0
	virtualPointerManagerOpCreateVirtualPointerWithOutput wire.Opcode = 1
	virtualPointerManagerOpDestroy                        wire.Opcode = 2

	virtualPointerOpMotion         wire.Opcode = 0
	virtualPointerOpMotionAbsolute wire.Opcode = 1
	virtualPointerOpButton         wire.Opcode = 2
	virtualPointerOpAxis           wire.Opcode = 3
	virtualPointerOpFrame          wire.Opcode = 4
	virtualPointerOpDestroy        wire.Opcode = 8

	virtualKeyboardManagerOpCreateVirtualKeyboard wire.Opcode = 0

	virtualKeyboardOpKeymap    wire.Opcode = 0
	virtualKeyboardOpKey       wire.Opcode = 1
	virtualKeyboardOpModifiers wire.Opcode = 2
	virtualKeyboardOpDestroy   wire.Opcode = 3
)

// ExportDMABUFManagerHandler implements zwlr_export_dmabuf_manager_v1.
// Capturing an output for export requires handing the client real dmabuf
// planes, which is the renderer's concern (spec §1 places rendering out of
// scope as an external collaborator) — every capture is tracked in
// WLRRegistries and immediately cancelled with a permanent reason rather
// than either hanging forever or fabricating buffer contents.
type ExportDMABUFManagerHandler struct {
	wlr *WLRRegistries
}

func NewExportDMABUFManagerHandler(wlr *WLRRegistries) *ExportDMABUFManagerHandler {
	return &ExportDMABUFManagerHandler{wlr: wlr}
}

func (h *ExportDMABUFManagerHandler) Interface() string { return "zwlr_export_dmabuf_manager_v1" }

func (h *ExportDMABUFManagerHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "zwlr_export_dmabuf_manager_v1", version, nil)
}

func (h *ExportDMABUFManagerHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "zwlr_export_dmabuf_manager_v1":
		return h.dispatchManager(c, r, msg)
	case "zwlr_export_dmabuf_frame_v1":
		return h.dispatchFrame(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "export-dmabuf handler got unexpected interface %q", r.Interface)
	}
}

func (h *ExportDMABUFManagerHandler) dispatchManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case exportDMABUFManagerOpCaptureOutput:
		newID, e1 := dec.NewID()
		_, e2 := dec.Int32() // overlay_cursor
		outputID, e3 := dec.Object()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed capture_output request")
		}
		return h.captureAndCancel(c, uint32(newID), uint32(outputID))
	case exportDMABUFManagerOpCaptureOutputCursor:
		newID, e1 := dec.NewID()
		outputID, e2 := dec.Object()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed capture_output_cursor request")
		}
		return h.captureAndCancel(c, uint32(newID), uint32(outputID))
	case exportDMABUFManagerOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwlr_export_dmabuf_manager_v1 opcode %d", msg.Opcode)
	}
}

func (h *ExportDMABUFManagerHandler) captureAndCancel(c *object.Client, frameID, outputID uint32) error {
	h.wlr.AddExportFrame(&ExportDMABUFFrame{ObjectID: frameID, OutputID: outputID})
	if _, err := c.Register(frameID, "zwlr_export_dmabuf_frame_v1", 1, nil); err != nil {
		return err
	}
	cancel := wire.NewMessageBuilder()
	cancel.PutUint32(cancelReasonPermanent)
	return c.Conn.Send(cancel.BuildMessage(wire.ObjectID(frameID), exportDMABUFFrameEventCancel))
}

func (h *ExportDMABUFManagerHandler) dispatchFrame(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case exportDMABUFFrameOpDestroy:
		h.wlr.RemoveExportFrame(r.ID)
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwlr_export_dmabuf_frame_v1 opcode %d", msg.Opcode)
	}
}

// VirtualPointerManagerHandler implements zwlr_virtual_pointer_manager_v1,
// forwarding motion/button/axis requests into the real seat the same way
// physical input would, per WLRRegistries' stated role.
type VirtualPointerManagerHandler struct {
	wlr  *WLRRegistries
	seat *seat.Handler
}

func NewVirtualPointerManagerHandler(wlr *WLRRegistries, seat *seat.Handler) *VirtualPointerManagerHandler {
	return &VirtualPointerManagerHandler{wlr: wlr, seat: seat}
}

func (h *VirtualPointerManagerHandler) Interface() string { return "zwlr_virtual_pointer_manager_v1" }

func (h *VirtualPointerManagerHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "zwlr_virtual_pointer_manager_v1", version, nil)
}

func (h *VirtualPointerManagerHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "zwlr_virtual_pointer_manager_v1":
		return h.dispatchManager(c, r, msg)
	case "zwlr_virtual_pointer_v1":
		return h.dispatchPointer(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "virtual pointer handler got unexpected interface %q", r.Interface)
	}
}

func (h *VirtualPointerManagerHandler) dispatchManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case virtualPointerManagerOpCreateVirtualPointer:
		_, e1 := dec.Object() // seat
		newID, e2 := dec.NewID()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed create_virtual_pointer request")
		}
		return h.create(c, uint32(newID))
	case virtualPointerManagerOpCreateVirtualPointerWithOutput:
		_, e1 := dec.Object() // seat, optional in the real protocol but required on the wire
		_, e2 := dec.Object() // output
		newID, e3 := dec.NewID()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed create_virtual_pointer_with_output request")
		}
		return h.create(c, uint32(newID))
	case virtualPointerManagerOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwlr_virtual_pointer_manager_v1 opcode %d", msg.Opcode)
	}
}

func (h *VirtualPointerManagerHandler) create(c *object.Client, id uint32) error {
	h.wlr.AddVirtualPointer(&VirtualPointer{ObjectID: id, ClientID: uint32(c.ID)})
	_, err := c.Register(id, "zwlr_virtual_pointer_v1", 1, nil)
	return err
}

func (h *VirtualPointerManagerHandler) dispatchPointer(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case virtualPointerOpMotion:
		timeMs, e1 := dec.Uint32()
		dx, e2 := dec.Fixed()
		dy, e3 := dec.Fixed()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed motion request")
		}
		h.seat.InjectMotion(dx.Float(), dy.Float(), timeMs)
		return nil
	case virtualPointerOpMotionAbsolute:
		timeMs, e1 := dec.Uint32()
		x, e2 := dec.Uint32()
		y, e3 := dec.Uint32()
		_, e4 := dec.Uint32() // extent_width
		_, e5 := dec.Uint32() // extent_height
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed motion_absolute request")
		}
		h.seat.InjectMotion(float64(x), float64(y), timeMs)
		return nil
	case virtualPointerOpButton:
		timeMs, e1 := dec.Uint32()
		button, e2 := dec.Uint32()
		state, e3 := dec.Uint32()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed button request")
		}
		h.seat.Button(button, seat.KeyState(state), timeMs)
		return nil
	case virtualPointerOpAxis:
		timeMs, e1 := dec.Uint32()
		axis, e2 := dec.Uint32()
		value, e3 := dec.Fixed()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed axis request")
		}
		h.seat.Axis(axis, value.Float(), timeMs)
		return nil
	case virtualPointerOpFrame:
		return nil
	case virtualPointerOpDestroy:
		h.wlr.RemoveVirtualPointer(r.ID)
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwlr_virtual_pointer_v1 opcode %d", msg.Opcode)
	}
}

// VirtualKeyboardManagerHandler implements zwp_virtual_keyboard_manager_v1,
// forwarding keymap/key/modifiers requests into the real seat keyboard.
type VirtualKeyboardManagerHandler struct {
	wlr  *WLRRegistries
	seat *seat.Handler
}

func NewVirtualKeyboardManagerHandler(wlr *WLRRegistries, seat *seat.Handler) *VirtualKeyboardManagerHandler {
	return &VirtualKeyboardManagerHandler{wlr: wlr, seat: seat}
}

func (h *VirtualKeyboardManagerHandler) Interface() string { return "zwp_virtual_keyboard_manager_v1" }

func (h *VirtualKeyboardManagerHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "zwp_virtual_keyboard_manager_v1", version, nil)
}

func (h *VirtualKeyboardManagerHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "zwp_virtual_keyboard_manager_v1":
		return h.dispatchManager(c, r, msg)
	case "zwp_virtual_keyboard_v1":
		return h.dispatchKeyboard(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "virtual keyboard handler got unexpected interface %q", r.Interface)
	}
}

func (h *VirtualKeyboardManagerHandler) dispatchManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case virtualKeyboardManagerOpCreateVirtualKeyboard:
		_, e1 := dec.Object() // seat
		newID, e2 := dec.NewID()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed create_virtual_keyboard request")
		}
		h.wlr.AddVirtualKeyboard(&VirtualKeyboard{ObjectID: uint32(newID), ClientID: uint32(c.ID)})
		_, err := c.Register(uint32(newID), "zwp_virtual_keyboard_v1", 1, nil)
		return err
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwp_virtual_keyboard_manager_v1 opcode %d", msg.Opcode)
	}
}

func (h *VirtualKeyboardManagerHandler) dispatchKeyboard(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	dec.Reset(msg.Args, msg.FDs)
	switch msg.Opcode {
	case virtualKeyboardOpKeymap:
		format, e1 := dec.Uint32()
		fd, e2 := dec.FD()
		size, e3 := dec.Uint32()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed keymap request")
		}
		_ = format
		h.wlr.mu.Lock()
		if vk, ok := h.wlr.VirtualKeyboards[r.ID]; ok {
			vk.KeymapFD, vk.KeymapSize = fd, size
		}
		h.wlr.mu.Unlock()
		return nil
	case virtualKeyboardOpKey:
		timeMs, e1 := dec.Uint32()
		key, e2 := dec.Uint32()
		state, e3 := dec.Uint32()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed key request")
		}
		h.seat.Key(key, seat.KeyState(state), timeMs)
		return nil
	case virtualKeyboardOpModifiers:
		depressed, e1 := dec.Uint32()
		latched, e2 := dec.Uint32()
		locked, e3 := dec.Uint32()
		group, e4 := dec.Uint32()
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed modifiers request")
		}
		h.seat.Modifiers(seat.Modifiers{Depressed: depressed, Latched: latched, Locked: locked, Group: group})
		return nil
	case virtualKeyboardOpDestroy:
		h.wlr.RemoveVirtualKeyboard(r.ID)
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwp_virtual_keyboard_v1 opcode %d", msg.Opcode)
	}
}
