//go:build linux

package object

import (
	"sync"
	"sync/atomic"

	"github.com/wawona-wm/wawona/wire"
)

// ClientID identifies one connected client for the lifetime of its session.
type ClientID uint32

// Resource is a single protocol object bound to one client: an interface
// name, the version the client negotiated, and typed user data the owning
// component (surface, shell, seat, ...) stashes on it. Protocol ids are
// only unique within a client — Resource itself doesn't know which client
// owns it; Client.resources does.
type Resource struct {
	ID        uint32
	Interface string
	Version   uint32
	Data      any

	// Destroy, if set, runs when the client destroys this resource or
	// disconnects. It lets the owning component (e.g. surface) purge any
	// state indexed by this resource's id — the destructor-purge rule from
	// spec §9 Open Questions.
	Destroy func()
}

// Client is one accepted Wayland connection: its socket, its resource
// table, and the handler that owns dispatch for it.
type Client struct {
	ID   ClientID
	Conn *wire.Conn

	mu        sync.Mutex
	resources map[uint32]*Resource
	nextID    uint32 // server-allocated ids (compositor-created new_ids start high to avoid clashing with client-chosen ones)

	destroyed bool
}

func newClient(id ClientID, conn *wire.Conn) *Client {
	return &Client{
		ID:        id,
		Conn:      conn,
		resources: make(map[uint32]*Resource),
		nextID:    0xff000000, // server-side ids live in a high band, client ids in the low band
	}
}

// Register binds id to a new resource. It is a protocol error for a client
// to reuse an id that already names a live resource.
func (c *Client) Register(id uint32, iface string, version uint32, data any) (*Resource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.resources[id]; exists {
		return nil, NewProtocolError(id, 0, "object id %d already in use", id)
	}
	r := &Resource{ID: id, Interface: iface, Version: version, Data: data}
	c.resources[id] = r
	return r, nil
}

// AllocServerID returns a fresh id in the server-reserved band, for
// resources the compositor creates without the client naming them (none in
// the core protocol, but extensions occasionally need one).
func (c *Client) AllocServerID() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	return id
}

// Lookup finds a live resource by id.
func (c *Client) Lookup(id uint32) (*Resource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.resources[id]
	return r, ok
}

// Unregister removes and returns a resource, running its destructor if set.
// Matches a client's explicit `destroy` request on an object.
func (c *Client) Unregister(id uint32) {
	c.mu.Lock()
	r, ok := c.resources[id]
	if ok {
		delete(c.resources, id)
	}
	c.mu.Unlock()

	if ok && r.Destroy != nil {
		r.Destroy()
	}
}

// Resources returns a snapshot of every live resource, for diagnostics
// (control IPC `tree`/`windows`) and for teardown.
func (c *Client) Resources() []*Resource {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Resource, 0, len(c.resources))
	for _, r := range c.resources {
		out = append(out, r)
	}
	return out
}

// Destroy tears down every resource this client owns, running destructors
// in no particular order (each destructor is responsible for removing its
// own cross-references, per spec §9). Idempotent.
func (c *Client) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	resources := make([]*Resource, 0, len(c.resources))
	for _, r := range c.resources {
		resources = append(resources, r)
	}
	c.resources = make(map[uint32]*Resource)
	c.mu.Unlock()

	for _, r := range resources {
		if r.Destroy != nil {
			r.Destroy()
		}
	}
	_ = c.Conn.Close()
}

// SerialAllocator hands out the single monotonic, wrapping serial sequence
// shared across every component that stamps one: focus changes, input
// events, configures, and selection changes (spec §3, §5 Ordering
// guarantees). uint32 arithmetic wraps on overflow by construction, which
// is the wrap-around behavior spec §8 invariant 3 requires.
type SerialAllocator struct {
	next atomic.Uint32
}

// NewSerialAllocator starts the counter at 1 — 0 is reserved to mean "no
// serial issued yet" so zero-valued Acked state never looks valid.
func NewSerialAllocator() *SerialAllocator {
	s := &SerialAllocator{}
	s.next.Store(1)
	return s
}

// Next allocates and returns a fresh serial.
func (s *SerialAllocator) Next() uint32 {
	return s.next.Add(1) - 1
}
