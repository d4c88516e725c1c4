//go:build linux

package surface

import (
	"github.com/rs/zerolog"
	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/wire"
)

// wl_shm/wl_shm_pool/wl_buffer opcodes, mirrored (and inverted to the
// server direction) from the teacher's shm.go client-side tables.
const (
	shmOpCreatePool  wire.Opcode = 0
	shmEventFormat   wire.Opcode = 0

	shmPoolOpCreateBuffer wire.Opcode = 0
	shmPoolOpDestroy      wire.Opcode = 1
	shmPoolOpResize       wire.Opcode = 2

	bufferOpDestroy    wire.Opcode = 0
	bufferEventRelease wire.Opcode = 0
)

// ShmFormat is a pixel format value from the wl_shm_format enum.
type ShmFormat uint32

const (
	ShmFormatARGB8888 ShmFormat = 0
	ShmFormatXRGB8888 ShmFormat = 1
)

// ShmPool backs wl_shm_pool: the client's fd-mapped memory region that
// buffers are carved out of. The core only tracks the fd and size — it
// never maps or reads pool contents, which is the renderer's job (spec §1
// Out of scope).
type ShmPool struct {
	FD   int
	Size int32
}

// Buffer backs wl_buffer for an shm-backed buffer: the width/height/
// stride/format declared by create_buffer, resolved by wl_surface.attach
// into the surface's real buffer dimensions (spec §4.B step 3).
type Buffer struct {
	Width, Height, Stride int32
	Format                ShmFormat
}

// ShmHandler implements object.Handler for wl_shm and every resource it
// mints (wl_shm_pool, wl_buffer), spec §6's shared-memory buffer path.
type ShmHandler struct {
	log zerolog.Logger
}

func NewShmHandler(log zerolog.Logger) *ShmHandler { return &ShmHandler{log: log} }

func (h *ShmHandler) Interface() string { return "wl_shm" }

func (h *ShmHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	r, err := c.Register(id, "wl_shm", version, nil)
	if err != nil {
		return nil, err
	}
	h.sendFormat(c, id, ShmFormatARGB8888)
	h.sendFormat(c, id, ShmFormatXRGB8888)
	return r, nil
}

func (h *ShmHandler) sendFormat(c *object.Client, shmID uint32, format ShmFormat) {
	b := wire.NewMessageBuilder()
	b.PutUint32(uint32(format))
	_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(shmID), shmEventFormat))
}

func (h *ShmHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "wl_shm":
		return h.dispatchShm(c, r, msg)
	case "wl_shm_pool":
		return h.dispatchPool(c, r, msg)
	case "wl_buffer":
		return h.dispatchBuffer(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "shm handler got unexpected interface %q", r.Interface)
	}
}

func (h *ShmHandler) dispatchShm(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	dec.Reset(msg.Args, msg.FDs)
	switch msg.Opcode {
	case shmOpCreatePool:
		newID, e1 := dec.NewID()
		fd, e2 := dec.FD()
		size, e3 := dec.Int32()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed create_pool request")
		}
		_, err := c.Register(uint32(newID), "wl_shm_pool", 1, &ShmPool{FD: fd, Size: size})
		return err
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_shm opcode %d", msg.Opcode)
	}
}

func (h *ShmHandler) dispatchPool(c *object.Client, r *object.Resource, msg *wire.Message) error {
	pool := r.Data.(*ShmPool)
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case shmPoolOpCreateBuffer:
		newID, e1 := dec.NewID()
		_, e2 := dec.Int32() // offset: the renderer resolves pixel data, not this core
		width, e3 := dec.Int32()
		height, e4 := dec.Int32()
		stride, e5 := dec.Int32()
		format, e6 := dec.Uint32()
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil || e6 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed create_buffer request")
		}
		_, err := c.Register(uint32(newID), "wl_buffer", 1, &Buffer{Width: width, Height: height, Stride: stride, Format: ShmFormat(format)})
		return err
	case shmPoolOpDestroy:
		c.Unregister(r.ID)
		return nil
	case shmPoolOpResize:
		size, err := dec.Int32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed resize request")
		}
		pool.Size = size
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_shm_pool opcode %d", msg.Opcode)
	}
}

func (h *ShmHandler) dispatchBuffer(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case bufferOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_buffer opcode %d", msg.Opcode)
	}
}

// sendBufferRelease notifies a client that the compositor no longer
// references a buffer's content, spec §4.B's release-on-replace rule.
func sendBufferRelease(c *object.Client, bufferObjectID uint32) {
	b := wire.NewMessageBuilder()
	_ = c.Conn.Send(b.BuildMessage(wire.ObjectID(bufferObjectID), bufferEventRelease))
}
