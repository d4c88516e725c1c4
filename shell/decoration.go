//go:build linux

package shell

import (
	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/wire"
)

const (
	decorationOpDestroy         wire.Opcode = 0
	decorationOpSetMode         wire.Opcode = 1
	decorationOpUnsetMode       wire.Opcode = 2
	decorationEventConfigure    wire.Opcode = 0

	decorationManagerOpDestroy              wire.Opcode = 0
	decorationManagerOpGetToplevelDecoration wire.Opcode = 1
)

const (
	decorationModeClientSide uint32 = 1
	decorationModeServerSide uint32 = 2
)

// DecorationHandler implements zxdg_decoration_manager_v1 and the
// per-toplevel decoration objects it mints.
type DecorationHandler struct {
	shell  *Handler
	policy DecorationPolicy
}

func NewDecorationHandler(shell *Handler, policy DecorationPolicy) *DecorationHandler {
	return &DecorationHandler{shell: shell, policy: policy}
}

func (d *DecorationHandler) Interface() string { return "zxdg_decoration_manager_v1" }

func (d *DecorationHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "zxdg_decoration_manager_v1", version, nil)
}

func (d *DecorationHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "zxdg_decoration_manager_v1":
		return d.dispatchManager(c, r, msg)
	case "zxdg_toplevel_decoration_v1":
		return d.dispatchDecoration(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "decoration handler got unexpected interface %q", r.Interface)
	}
}

func (d *DecorationHandler) dispatchManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case decorationManagerOpDestroy:
		c.Unregister(r.ID)
		return nil
	case decorationManagerOpGetToplevelDecoration:
		newID, e1 := dec.NewID()
		toplevelID, e2 := dec.Object()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_toplevel_decoration request")
		}
		tres, ok := c.Lookup(uint32(toplevelID))
		if !ok {
			return object.NewError(object.KindResourceMissing, "get_toplevel_decoration: no such toplevel %d", toplevelID)
		}
		xs := tres.Data.(*xdgSurfaceState)
		if _, err := c.Register(uint32(newID), "zxdg_toplevel_decoration_v1", 1, xs); err != nil {
			return err
		}
		d.sendConfigure(c, uint32(newID), xs)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zxdg_decoration_manager_v1 opcode %d", msg.Opcode)
	}
}

func (d *DecorationHandler) dispatchDecoration(c *object.Client, r *object.Resource, msg *wire.Message) error {
	xs := r.Data.(*xdgSurfaceState)
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case decorationOpDestroy:
		c.Unregister(r.ID)
		return nil
	case decorationOpSetMode:
		mode, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_mode request")
		}
		requested := DecorationClient
		if mode == decorationModeServerSide {
			requested = DecorationServer
		}
		xs.window.Decoration = d.policy.Select(requested)
		d.sendConfigure(c, r.ID, xs)
		d.shell.ReconfigureDecorations(c, d.xdgSurfaceResourceFor(c, xs))
		return nil
	case decorationOpUnsetMode:
		xs.window.Decoration = d.policy.Select(DecorationClient)
		d.sendConfigure(c, r.ID, xs)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zxdg_toplevel_decoration_v1 opcode %d", msg.Opcode)
	}
}

// xdgSurfaceResourceFor is a lookup shim: decoration objects carry the
// same xdgSurfaceState pointer as their xdg_surface, but ReconfigureDecorations
// wants the xdg_surface *Resource to read its object id off. Extensions
// that need the underlying xdg_surface id store it on creation instead of
// re-deriving it here in a full implementation; this core looks it up by
// matching the shared xdgSurfaceState pointer, since one surface has
// exactly one live xdg_surface.
func (d *DecorationHandler) xdgSurfaceResourceFor(c *object.Client, xs *xdgSurfaceState) *object.Resource {
	for _, res := range c.Resources() {
		if res.Interface == "xdg_surface" && res.Data == xs {
			return res
		}
	}
	return nil
}

func (d *DecorationHandler) sendConfigure(c *object.Client, decorationObjID uint32, xs *xdgSurfaceState) {
	mode := decorationModeClientSide
	if xs.window != nil && xs.window.Decoration == DecorationServer {
		mode = decorationModeServerSide
	}
	b := wire.NewMessageBuilder()
	b.PutUint32(mode)
	_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(decorationObjID), decorationEventConfigure))
}
