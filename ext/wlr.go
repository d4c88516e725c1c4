package ext

import "sync"

// ExportDMABUFFrame is one in-flight wlr-export-dmabuf capture request
// against an output: the registry only tracks which output is being
// captured and by which client object, since the actual dmabuf plumbing
// is a renderer concern this core only brokers ids for (spec §1 scope).
type ExportDMABUFFrame struct {
	ObjectID uint32
	OutputID uint32
}

// VirtualPointer is one wlr-virtual-pointer device: synthetic pointer
// motion/button/axis requests from it are routed into the real seat the
// same way physical input is.
type VirtualPointer struct {
	ObjectID uint32
	ClientID uint32
}

// VirtualKeyboard is one wlr-virtual-keyboard device, optionally carrying
// its own keymap distinct from the seat's physical one.
type VirtualKeyboard struct {
	ObjectID uint32
	ClientID uint32
	KeymapFD int
	KeymapSize uint32
}

// WLRRegistries holds the three wlroots-equivalent id-keyed maps the Rust
// prototype's wlr module tracks as plain registries (spec §6, SPEC_FULL
// supplemented features): export-dmabuf frames, virtual pointers, and
// virtual keyboards, each read by the seat/input router or scene
// aggregator rather than owning dispatch logic of their own.
type WLRRegistries struct {
	mu               sync.Mutex
	ExportDMABUFFrames map[uint32]*ExportDMABUFFrame
	VirtualPointers    map[uint32]*VirtualPointer
	VirtualKeyboards   map[uint32]*VirtualKeyboard
}

func NewWLRRegistries() *WLRRegistries {
	return &WLRRegistries{
		ExportDMABUFFrames: make(map[uint32]*ExportDMABUFFrame),
		VirtualPointers:    make(map[uint32]*VirtualPointer),
		VirtualKeyboards:   make(map[uint32]*VirtualKeyboard),
	}
}

func (w *WLRRegistries) AddExportFrame(f *ExportDMABUFFrame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ExportDMABUFFrames[f.ObjectID] = f
}

func (w *WLRRegistries) RemoveExportFrame(objectID uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.ExportDMABUFFrames, objectID)
}

func (w *WLRRegistries) AddVirtualPointer(p *VirtualPointer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.VirtualPointers[p.ObjectID] = p
}

func (w *WLRRegistries) RemoveVirtualPointer(objectID uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.VirtualPointers, objectID)
}

func (w *WLRRegistries) AddVirtualKeyboard(k *VirtualKeyboard) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.VirtualKeyboards[k.ObjectID] = k
}

func (w *WLRRegistries) RemoveVirtualKeyboard(objectID uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.VirtualKeyboards, objectID)
}

// PresentationSequence is the monotonically increasing uint64 used only
// to stamp wp_presentation_feedback `sequence` fields — independent of
// the wrapping 32-bit protocol serial counter (spec §4.F, SPEC_FULL
// supplemented features).
type PresentationSequence struct {
	mu   sync.Mutex
	next uint64
}

func (p *PresentationSequence) Next() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.next
	p.next++
	return v
}
