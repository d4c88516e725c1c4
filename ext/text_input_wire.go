//go:build linux

package ext

import (
	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/wire"
)

const (
	textInputManagerOpDestroy      wire.Opcode = 0
	textInputManagerOpGetTextInput wire.Opcode = 1

	textInputOpDestroy             wire.Opcode = 0
	textInputOpEnable              wire.Opcode = 1
	textInputOpDisable             wire.Opcode = 2
	textInputOpSetSurroundingText  wire.Opcode = 3
	textInputOpSetTextChangeCause  wire.Opcode = 4
	textInputOpSetContentType      wire.Opcode = 5
	textInputOpSetCursorRectangle  wire.Opcode = 6
	textInputOpCommit              wire.Opcode = 7
	textInputEventEnter            wire.Opcode = 0
	textInputEventLeave            wire.Opcode = 1
	textInputEventPreeditString    wire.Opcode = 2
	textInputEventCommitString     wire.Opcode = 3
	textInputEventDeleteSurrounding wire.Opcode = 4
	textInputEventDone             wire.Opcode = 5

	inputMethodManagerOpDestroy       wire.Opcode = 0
	inputMethodManagerOpGetInputMethod wire.Opcode = 1

	inputMethodOpCommitString      wire.Opcode = 0
	inputMethodOpSetPreeditString  wire.Opcode = 1
	inputMethodOpDeleteSurrounding wire.Opcode = 2
	inputMethodOpCommit            wire.Opcode = 3
	inputMethodOpDestroy           wire.Opcode = 6
	inputMethodEventActivate       wire.Opcode = 0
	inputMethodEventDeactivate     wire.Opcode = 1
	inputMethodEventDone           wire.Opcode = 5
)

// TextInputHandler is the shared dispatch core behind the two distinct
// bindable globals this family needs (zwp_text_input_manager_v3 and
// zwp_input_method_manager_v2): object.Handler only has one root
// Interface()/Bind() pair per registration, so each global gets its own
// thin wrapper (TextInputManagerHandler, InputMethodManagerHandler)
// embedding this core — Dispatch itself already routes purely by the
// resource's own interface name, so both wrappers share one implementation
// of it. Mediates between whichever zwp_text_input_v3 instance currently
// holds focus and the single zwp_input_method_v2 instance the IME process
// binds.
type TextInputHandler struct {
	router *TextInputRouter

	textInputs map[uint32]*object.Client // objectID -> owning client
	method     *inputMethodBinding
	serial     uint32
}

type inputMethodBinding struct {
	client   *object.Client
	objectID uint32
}

func NewTextInputHandler(r *TextInputRouter) *TextInputHandler {
	return &TextInputHandler{router: r, textInputs: make(map[uint32]*object.Client)}
}

// TextInputManagerHandler is the zwp_text_input_manager_v3 root handler.
type TextInputManagerHandler struct{ *TextInputHandler }

func NewTextInputManagerHandler(h *TextInputHandler) *TextInputManagerHandler {
	return &TextInputManagerHandler{h}
}

func (w *TextInputManagerHandler) Interface() string { return "zwp_text_input_manager_v3" }

func (w *TextInputManagerHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "zwp_text_input_manager_v3", version, nil)
}

// InputMethodManagerHandler is the zwp_input_method_manager_v2 root handler.
type InputMethodManagerHandler struct{ *TextInputHandler }

func NewInputMethodManagerHandler(h *TextInputHandler) *InputMethodManagerHandler {
	return &InputMethodManagerHandler{h}
}

func (w *InputMethodManagerHandler) Interface() string { return "zwp_input_method_manager_v2" }

func (w *InputMethodManagerHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "zwp_input_method_manager_v2", version, nil)
}

func (h *TextInputHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "zwp_text_input_manager_v3":
		return h.dispatchTextInputManager(c, r, msg)
	case "zwp_text_input_v3":
		return h.dispatchTextInput(c, r, msg)
	case "zwp_input_method_manager_v2":
		return h.dispatchInputMethodManager(c, r, msg)
	case "zwp_input_method_v2":
		return h.dispatchInputMethod(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "text input handler got unexpected interface %q", r.Interface)
	}
}

func (h *TextInputHandler) dispatchTextInputManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case textInputManagerOpGetTextInput:
		dec := wire.NewDecoder(msg.Args)
		newID, e1 := dec.NewID()
		_, e2 := dec.Object() // seat
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_text_input request")
		}
		h.router.Create(uint32(newID))
		h.textInputs[uint32(newID)] = c
		_, err := c.Register(uint32(newID), "zwp_text_input_v3", 1, nil)
		return err
	case textInputManagerOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwp_text_input_manager_v3 opcode %d", msg.Opcode)
	}
}

func (h *TextInputHandler) dispatchTextInput(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case textInputOpEnable:
		if h.router.Enable(r.ID) {
			h.notifyMethod(inputMethodEventActivate)
		}
		return nil
	case textInputOpDisable:
		if h.router.Disable(r.ID) {
			h.notifyMethod(inputMethodEventDeactivate)
		}
		return nil
	case textInputOpSetSurroundingText:
		text, e1 := dec.String()
		cursor, e2 := dec.Uint32()
		anchor, e3 := dec.Uint32()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_surrounding_text request")
		}
		h.router.CommitTextInput(r.ID, text, cursor, anchor)
		return nil
	case textInputOpSetTextChangeCause, textInputOpSetContentType, textInputOpSetCursorRectangle:
		return nil
	case textInputOpCommit:
		h.router.SetFocus(r.ID)
		h.sendDone(c, r.ID)
		return nil
	case textInputOpDestroy:
		h.router.Destroy(r.ID)
		delete(h.textInputs, r.ID)
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwp_text_input_v3 opcode %d", msg.Opcode)
	}
}

func (h *TextInputHandler) sendDone(c *object.Client, objectID uint32) {
	h.serial++
	msg := wire.NewMessageBuilder()
	msg.PutUint32(h.serial)
	_ = c.Conn.Send(msg.BuildMessage(wire.ObjectID(objectID), textInputEventDone))
}

func (h *TextInputHandler) notifyMethod(opcode wire.Opcode) {
	if h.method == nil {
		return
	}
	msg := wire.NewMessageBuilder()
	_ = h.method.client.Conn.Send(msg.BuildMessage(wire.ObjectID(h.method.objectID), opcode))
}

func (h *TextInputHandler) dispatchInputMethodManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case inputMethodManagerOpGetInputMethod:
		dec := wire.NewDecoder(msg.Args)
		_, e1 := dec.Object() // seat
		newID, e2 := dec.NewID()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_input_method request")
		}
		h.method = &inputMethodBinding{client: c, objectID: uint32(newID)}
		_, err := c.Register(uint32(newID), "zwp_input_method_v2", 1, nil)
		return err
	case inputMethodManagerOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwp_input_method_manager_v2 opcode %d", msg.Opcode)
	}
}

func (h *TextInputHandler) dispatchInputMethod(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case inputMethodOpCommitString:
		text, err := dec.String()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed commit_string request")
		}
		h.router.CommitInputMethod(text)
		h.forwardToFocused(func(client *object.Client, objID uint32) {
			m := wire.NewMessageBuilder()
			m.PutString(text)
			_ = client.Conn.Send(m.BuildMessage(wire.ObjectID(objID), textInputEventCommitString))
		})
		return nil
	case inputMethodOpSetPreeditString:
		text, e1 := dec.String()
		begin, e2 := dec.Int32()
		end, e3 := dec.Int32()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_preedit_string request")
		}
		h.forwardToFocused(func(client *object.Client, objID uint32) {
			m := wire.NewMessageBuilder()
			m.PutString(text)
			m.PutInt32(begin)
			m.PutInt32(end)
			_ = client.Conn.Send(m.BuildMessage(wire.ObjectID(objID), textInputEventPreeditString))
		})
		return nil
	case inputMethodOpDeleteSurrounding:
		before, e1 := dec.Uint32()
		after, e2 := dec.Uint32()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed delete_surrounding_text request")
		}
		h.forwardToFocused(func(client *object.Client, objID uint32) {
			m := wire.NewMessageBuilder()
			m.PutUint32(before)
			m.PutUint32(after)
			_ = client.Conn.Send(m.BuildMessage(wire.ObjectID(objID), textInputEventDeleteSurrounding))
		})
		return nil
	case inputMethodOpCommit:
		msg := wire.NewMessageBuilder()
		_ = c.Conn.Send(msg.BuildMessage(wire.ObjectID(r.ID), inputMethodEventDone))
		return nil
	case inputMethodOpDestroy:
		h.method = nil
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwp_input_method_v2 opcode %d", msg.Opcode)
	}
}

func (h *TextInputHandler) forwardToFocused(send func(client *object.Client, objID uint32)) {
	focused := h.router.Focused()
	if focused == 0 {
		return
	}
	client, ok := h.textInputs[focused]
	if !ok {
		return
	}
	send(client, focused)
}
