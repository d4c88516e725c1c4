//go:build linux

package shell

import (
	"sync"

	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/surface"
	"github.com/wawona-wm/wawona/wire"
)

// LayerAnchor is zwlr_layer_shell_v1's anchor-point enum, ORed to pick edges.
type LayerAnchor uint32

const (
	LayerAnchorTop LayerAnchor = 1 << iota
	LayerAnchorBottom
	LayerAnchorLeft
	LayerAnchorRight
)

// LayerIndex mirrors zwlr_layer_shell_v1's layer enum, used for stacking.
type LayerIndex uint32

const (
	LayerBackground LayerIndex = iota
	LayerBottom
	LayerTop
	LayerOverlay
)

// KeyboardInteractivity controls whether a layer surface may take keyboard focus.
type KeyboardInteractivity uint32

const (
	KeyboardInteractivityNone KeyboardInteractivity = iota
	KeyboardInteractivityExclusive
	KeyboardInteractivityOnDemand
)

// LayerSurface is a per-output anchored surface for panels/wallpapers/overlays.
type LayerSurface struct {
	ID          uint32
	OutputID    uint32
	Layer       LayerIndex
	Anchor      LayerAnchor
	ExclusiveZone int32
	Margin      [4]int32 // top,right,bottom,left
	Keyboard    KeyboardInteractivity
	Width, Height int32
	Surface     *surface.Surface

	LastConfigureSerial uint32
}

const (
	layerShellOpGetLayerSurface wire.Opcode = 0
	layerShellOpDestroy         wire.Opcode = 1

	layerSurfaceOpSetSize          wire.Opcode = 0
	layerSurfaceOpSetAnchor        wire.Opcode = 1
	layerSurfaceOpSetExclusiveZone wire.Opcode = 2
	layerSurfaceOpSetMargin        wire.Opcode = 3
	layerSurfaceOpSetKeyboardInteractivity wire.Opcode = 4
	layerSurfaceOpGetPopup         wire.Opcode = 5
	layerSurfaceOpAckConfigure     wire.Opcode = 6
	layerSurfaceOpDestroy          wire.Opcode = 7
	layerSurfaceEventConfigure     wire.Opcode = 0
	layerSurfaceEventClosed        wire.Opcode = 1
)

// LayerHandler implements zwlr_layer_shell_v1 and zwlr_layer_surface_v1.
type LayerHandler struct {
	serials *object.SerialAllocator

	mu     sync.Mutex
	layers map[uint32]*LayerSurface
}

func NewLayerHandler(serials *object.SerialAllocator) *LayerHandler {
	return &LayerHandler{serials: serials, layers: make(map[uint32]*LayerSurface)}
}

func (l *LayerHandler) Interface() string { return "zwlr_layer_shell_v1" }

func (l *LayerHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "zwlr_layer_shell_v1", version, nil)
}

func (l *LayerHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	if r.Interface == "zwlr_layer_shell_v1" {
		return l.dispatchShell(c, r, msg)
	}
	return l.dispatchLayerSurface(c, r, msg)
}

func (l *LayerHandler) dispatchShell(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case layerShellOpDestroy:
		c.Unregister(r.ID)
		return nil
	case layerShellOpGetLayerSurface:
		newID, e1 := dec.NewID()
		surfaceID, e2 := dec.Object()
		_, e3 := dec.Object() // output, 0 means "compositor picks"
		layer, e4 := dec.Uint32()
		nspace, e5 := dec.String()
		_ = nspace
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_layer_surface request")
		}
		sres, ok := c.Lookup(uint32(surfaceID))
		if !ok {
			return object.NewError(object.KindResourceMissing, "get_layer_surface: no such surface %d", surfaceID)
		}
		s := sres.Data.(*surface.Surface)
		if err := s.AssignRole(surface.RoleLayer); err != nil {
			return err
		}
		ls := &LayerSurface{ID: uint32(newID), Layer: LayerIndex(layer), Surface: s}
		l.mu.Lock()
		l.layers[ls.ID] = ls
		l.mu.Unlock()
		_, err := c.Register(uint32(newID), "zwlr_layer_surface_v1", 1, ls)
		return err
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwlr_layer_shell_v1 opcode %d", msg.Opcode)
	}
}

func (l *LayerHandler) dispatchLayerSurface(c *object.Client, r *object.Resource, msg *wire.Message) error {
	ls := r.Data.(*LayerSurface)
	dec := wire.NewDecoder(msg.Args)

	switch msg.Opcode {
	case layerSurfaceOpSetSize:
		w, e1 := dec.Uint32()
		h, e2 := dec.Uint32()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_size request")
		}
		ls.Width, ls.Height = int32(w), int32(h)
		return nil
	case layerSurfaceOpSetAnchor:
		v, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_anchor request")
		}
		ls.Anchor = LayerAnchor(v)
		return nil
	case layerSurfaceOpSetExclusiveZone:
		v, err := dec.Int32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_exclusive_zone request")
		}
		ls.ExclusiveZone = v
		return nil
	case layerSurfaceOpSetMargin:
		top, e1 := dec.Int32()
		right, e2 := dec.Int32()
		bottom, e3 := dec.Int32()
		left, e4 := dec.Int32()
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_margin request")
		}
		ls.Margin = [4]int32{top, right, bottom, left}
		return nil
	case layerSurfaceOpSetKeyboardInteractivity:
		v, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_keyboard_interactivity request")
		}
		ls.Keyboard = KeyboardInteractivity(v)
		return nil
	case layerSurfaceOpGetPopup:
		_, err := dec.Object()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_popup request")
		}
		return nil // popup-from-layer-surface parenting is recorded by the shell's popup handler directly
	case layerSurfaceOpAckConfigure:
		s, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed ack_configure request")
		}
		if s != ls.LastConfigureSerial {
			return object.NewError(object.KindSerialMismatch, "layer_surface ack_configure: got %d, want %d", s, ls.LastConfigureSerial)
		}
		return nil
	case layerSurfaceOpDestroy:
		l.mu.Lock()
		delete(l.layers, ls.ID)
		l.mu.Unlock()
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwlr_layer_surface_v1 opcode %d", msg.Opcode)
	}
}

// SendConfigure computes and sends the layer surface's configured size,
// per spec §4.C ("configure sends the computed size").
func (l *LayerHandler) SendConfigure(c *object.Client, ls *LayerSurface) {
	serial := l.serials.Next()
	ls.LastConfigureSerial = serial
	b := wire.NewMessageBuilder()
	b.PutUint32(serial)
	b.PutUint32(uint32(ls.Width))
	b.PutUint32(uint32(ls.Height))
	_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(ls.ID), layerSurfaceEventConfigure))
}

// LayerSurfacesForOutput returns every layer surface anchored to an output,
// for the scene aggregator's per-output composition.
func (l *LayerHandler) LayerSurfacesForOutput(outputID uint32) []*LayerSurface {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*LayerSurface
	for _, ls := range l.layers {
		if ls.OutputID == outputID {
			out = append(out, ls)
		}
	}
	return out
}
