//go:build linux

package frame

import (
	"sync"

	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/wire"
)

const (
	outputOpRelease wire.Opcode = 0
	outputEventGeometry wire.Opcode = 0
	outputEventMode     wire.Opcode = 1
	outputEventDone     wire.Opcode = 2
	outputEventScale    wire.Opcode = 3

	modeFlagCurrent  uint32 = 0x1
	modeFlagPreferred uint32 = 0x2

	subpixelUnknown int32 = 0
	transformNormal int32 = 0
)

// Mode is one (width, height, refresh) triple an output can drive.
type Mode struct {
	Width, Height  int32
	RefreshMilliHz uint32
	Preferred      bool
}

// Output is a logical display: spec §3.
type Output struct {
	ID            uint32
	Name          string
	PhysicalWidth, PhysicalHeight int32 // millimeters
	CurrentMode   Mode
	Scale         int32
	X, Y          int32 // logical position
	UsableArea    Rect

	Clock *Clock

	mu      sync.Mutex
	clients map[object.ClientID]map[uint32]*object.Client // client -> bound resource id -> client (id kept for send target)
}

// Rect is an output-relative usable-area rectangle (excludes exclusive
// zones reserved by layer surfaces).
type Rect struct {
	X, Y, W, H int32
}

func NewOutput(id uint32, name string, mode Mode) *Output {
	o := &Output{
		ID:          id,
		Name:        name,
		CurrentMode: mode,
		Scale:       1,
		Clock:       NewClock(mode.RefreshMilliHz),
		clients:     make(map[object.ClientID]map[uint32]*object.Client),
	}
	o.UsableArea = Rect{X: 0, Y: 0, W: mode.Width, H: mode.Height}
	return o
}

func (o *Output) Interface() string { return "wl_output" }

func (o *Output) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	r, err := c.Register(id, "wl_output", version, o)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	if o.clients[c.ID] == nil {
		o.clients[c.ID] = make(map[uint32]*object.Client)
	}
	o.clients[c.ID][id] = c
	o.mu.Unlock()

	o.sendState(c, id)
	return r, nil
}

func (o *Output) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case outputOpRelease:
		o.mu.Lock()
		delete(o.clients[c.ID], r.ID)
		o.mu.Unlock()
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_output opcode %d", msg.Opcode)
	}
}

func (o *Output) sendState(c *object.Client, resID uint32) {
	geo := wire.NewMessageBuilder()
	geo.PutInt32(o.X)
	geo.PutInt32(o.Y)
	geo.PutInt32(o.PhysicalWidth)
	geo.PutInt32(o.PhysicalHeight)
	geo.PutInt32(subpixelUnknown)
	geo.PutString("wawona")
	geo.PutString(o.Name)
	geo.PutInt32(transformNormal)
	_ = c.Conn.Send(geo.BuildMessage(wire.ObjectID(resID), outputEventGeometry))

	mode := wire.NewMessageBuilder()
	mode.PutUint32(modeFlagCurrent | modeFlagPreferred)
	mode.PutInt32(o.CurrentMode.Width)
	mode.PutInt32(o.CurrentMode.Height)
	mode.PutInt32(int32(o.CurrentMode.RefreshMilliHz))
	_ = c.Conn.Send(mode.BuildMessage(wire.ObjectID(resID), outputEventMode))

	scale := wire.NewMessageBuilder()
	scale.PutInt32(o.Scale)
	_ = c.Conn.Send(scale.BuildMessage(wire.ObjectID(resID), outputEventScale))

	done := wire.NewMessageBuilder()
	_ = c.Conn.Send(done.BuildMessage(wire.ObjectID(resID), outputEventDone))
}

// UpdateConfiguration independently updates any non-nil field and, if
// anything changed, re-notifies bound clients — generalized from
// original_source's update_output_configuration.
func (o *Output) UpdateConfiguration(width, height *int32, refreshMilliHz *uint32, scale *int32, x, y *int32) {
	o.mu.Lock()
	changed := false
	if width != nil && *width != o.CurrentMode.Width {
		o.CurrentMode.Width = *width
		changed = true
	}
	if height != nil && *height != o.CurrentMode.Height {
		o.CurrentMode.Height = *height
		changed = true
	}
	if refreshMilliHz != nil && *refreshMilliHz != o.CurrentMode.RefreshMilliHz {
		o.CurrentMode.RefreshMilliHz = *refreshMilliHz
		o.Clock = NewClock(*refreshMilliHz)
		changed = true
	}
	if scale != nil && *scale != o.Scale {
		o.Scale = *scale
		changed = true
	}
	if x != nil && *x != o.X {
		o.X = *x
		changed = true
	}
	if y != nil && *y != o.Y {
		o.Y = *y
		changed = true
	}
	if changed {
		o.UsableArea = Rect{X: 0, Y: 0, W: o.CurrentMode.Width, H: o.CurrentMode.Height}
	}
	targets := make(map[object.ClientID]map[uint32]*object.Client, len(o.clients))
	for cid, m := range o.clients {
		targets[cid] = m
	}
	o.mu.Unlock()

	if !changed {
		return
	}
	for _, byRes := range targets {
		for resID, c := range byRes {
			o.sendState(c, resID)
		}
	}
}
