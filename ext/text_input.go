package ext

import "sync"

// TextInputState is one zwp_text_input_v3's double-buffered client-side
// state: surrounding text, content-type hint, and cursor rectangle, plus
// whether the IME is currently enabled for it.
type TextInputState struct {
	Enabled        bool
	SurroundingText string
	CursorIndex    uint32
	AnchorIndex    uint32
	ContentHint    uint32
	ContentPurpose uint32
	CursorRectX, CursorRectY, CursorRectW, CursorRectH int32
	CommitSerial   uint32
}

// InputMethodState is the matching zwp_input_method_v2 side: the preedit
// string and commit string the input method pushes toward the focused
// text-input, plus its own independent commit-serial counter — spec §4.H:
// "commit serials are separate counters per instance; the compositor
// mediates double-buffered state between the two."
type InputMethodState struct {
	Active       bool
	PreeditText  string
	PreeditCursorBegin, PreeditCursorEnd int32
	CommitString string
	CommitSerial uint32
}

// TextInputRouter mediates between one focused zwp_text_input_v3 instance
// and the single zwp_input_method_v2 instance bound by the IME process:
// enable/disable on the text-input side toggles IM activation, and each
// side's commit advances only its own serial.
type TextInputRouter struct {
	mu         sync.Mutex
	textInputs map[uint32]*TextInputState // objectID -> state
	method     *InputMethodState
	focused    uint32 // objectID of the currently focused text-input, 0 if none
}

func NewTextInputRouter() *TextInputRouter {
	return &TextInputRouter{textInputs: make(map[uint32]*TextInputState), method: &InputMethodState{}}
}

func (r *TextInputRouter) Create(objectID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textInputs[objectID] = &TextInputState{}
}

func (r *TextInputRouter) Destroy(objectID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.textInputs, objectID)
	if r.focused == objectID {
		r.focused = 0
		r.method.Active = false
	}
}

// Enable marks a text-input enabled and, if it holds focus, activates the
// input method; returns whether the IM activation state changed.
func (r *TextInputRouter) Enable(objectID uint32) (activated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ti, ok := r.textInputs[objectID]
	if !ok {
		return false
	}
	ti.Enabled = true
	if r.focused == objectID && !r.method.Active {
		r.method.Active = true
		return true
	}
	return false
}

func (r *TextInputRouter) Disable(objectID uint32) (deactivated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ti, ok := r.textInputs[objectID]
	if !ok {
		return false
	}
	ti.Enabled = false
	if r.focused == objectID && r.method.Active {
		r.method.Active = false
		return true
	}
	return false
}

// CommitTextInput bumps the text-input's own serial and stores its
// double-buffered fields.
func (r *TextInputRouter) CommitTextInput(objectID uint32, surrounding string, cursor, anchor uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ti, ok := r.textInputs[objectID]
	if !ok {
		return
	}
	ti.SurroundingText = surrounding
	ti.CursorIndex = cursor
	ti.AnchorIndex = anchor
	ti.CommitSerial++
}

// CommitInputMethod bumps the input method's own independent serial and
// stores the string it is pushing toward the focused text-input.
func (r *TextInputRouter) CommitInputMethod(commitString string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.method.CommitString = commitString
	r.method.CommitSerial++
}

// Focused returns the objectID of the currently focused text-input, or 0.
func (r *TextInputRouter) Focused() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.focused
}

// SetFocus changes which text-input is focused, deactivating the input
// method if nothing is focused or the new focus isn't enabled yet.
func (r *TextInputRouter) SetFocus(objectID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focused = objectID
	if objectID == 0 {
		r.method.Active = false
		return
	}
	if ti, ok := r.textInputs[objectID]; ok && ti.Enabled {
		r.method.Active = true
	} else {
		r.method.Active = false
	}
}
