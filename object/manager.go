//go:build linux

package object

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wawona-wm/wawona/wire"
)

// wl_display is always object id 1; wl_display.sync is opcode 0,
// wl_display.get_registry is opcode 1 (the core protocol's wl_display
// request opcodes, as a server receives them).
const (
	displayObjectID              = 1
	displayOpSync      wire.Opcode = 0
	displayOpGetRegistry wire.Opcode = 1

	displayEventError    wire.Opcode = 0
	displayEventDeleteID wire.Opcode = 1

	registryEventGlobal       wire.Opcode = 0
	registryEventGlobalRemove wire.Opcode = 1
	registryOpBind            wire.Opcode = 0

	callbackEventDone wire.Opcode = 0
)

// Handler is implemented by each compositor component (surface, shell,
// seat, selection, ...) that owns one or more Wayland interfaces. Bind
// creates the resource for a freshly-bound global (or a child object
// created by another request — see Dispatch); Dispatch routes a decoded
// request to the component's logic.
type Handler interface {
	// Interface is the Wayland interface name this handler owns, e.g. "wl_compositor".
	Interface() string
	// Bind creates the root resource for this interface when a client binds
	// the matching global. version is the client-requested version, already
	// capped to what was advertised.
	Bind(c *Client, id uint32, version uint32) (*Resource, error)
	// Dispatch handles one request against an existing resource of this
	// interface (including the one Bind created).
	Dispatch(c *Client, r *Resource, msg *wire.Message) error
}

// Manager is the object registry and client session: spec component A. It
// owns the global Registry, routes requests to per-interface Handlers, and
// converts internal errors into protocol errors or dropped requests.
type Manager struct {
	log      zerolog.Logger
	Registry *Registry
	Serials  *SerialAllocator

	mu       sync.Mutex
	clients  map[ClientID]*Client
	handlers map[string]Handler
	nextID   ClientID
}

// NewManager creates an empty session manager. Call RegisterHandler for
// every interface before accepting clients.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log:      log,
		Registry: NewRegistry(),
		Serials:  NewSerialAllocator(),
		clients:  make(map[ClientID]*Client),
		handlers: make(map[string]Handler),
		nextID:   1,
	}
}

// RegisterHandler wires a component's Handler in under its interface name
// and advertises a matching global at the given version.
func (m *Manager) RegisterHandler(h Handler, version uint32) {
	m.mu.Lock()
	m.handlers[h.Interface()] = h
	m.mu.Unlock()
	m.Registry.Advertise(h.Interface(), version)
}

// RegisterChildInterface routes an additional interface name to an
// already-registered handler, for resources a handler mints dynamically
// (xdg_surface under xdg_wm_base, wl_data_source under
// wl_data_device_manager, ...) rather than a registry global of its own.
// route dispatches by the resource's own interface name, so every such
// child interface needs its own entry alongside the root one
// RegisterHandler adds.
func (m *Manager) RegisterChildInterface(iface string, h Handler) {
	m.mu.Lock()
	m.handlers[iface] = h
	m.mu.Unlock()
}

// Accept registers a freshly accepted connection as a new client, seeding
// its object table with wl_display at id 1.
func (m *Manager) Accept(conn *wire.Conn) *Client {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.mu.Unlock()

	c := newClient(id, conn)
	_, _ = c.Register(displayObjectID, "wl_display", 1, nil)

	m.mu.Lock()
	m.clients[id] = c
	m.mu.Unlock()

	return c
}

// Clients returns a snapshot of every connected client, for IPC introspection.
func (m *Manager) Clients() []*Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out
}

// ClientByID looks up a connected client by id, for components (e.g. the
// frame scheduler) that only kept a ClientID reference.
func (m *Manager) ClientByID(id ClientID) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clients[id]
}

// Disconnect tears down a client's resources and removes it from the
// session table. Safe to call more than once.
func (m *Manager) Disconnect(c *Client) {
	c.Destroy()
	m.mu.Lock()
	delete(m.clients, c.ID)
	m.mu.Unlock()
}

// DispatchOne reads and routes a single message from the client. A fatal
// *Error disconnects the client; anything else is logged and the request
// is dropped, per spec §7 Propagation ("no failure in one client affects
// another").
func (m *Manager) DispatchOne(c *Client) error {
	msg, err := c.Conn.Recv()
	if err != nil {
		return err // connection-level error: caller disconnects the client
	}
	return m.route(c, msg)
}

func (m *Manager) route(c *Client, msg *wire.Message) error {
	r, ok := c.Lookup(msg.ObjectID)
	if !ok {
		m.log.Warn().Uint32("object", uint32(msg.ObjectID)).Msg("request on unknown object id")
		return nil
	}

	if msg.ObjectID == displayObjectID {
		return m.dispatchDisplay(c, msg)
	}

	if r.Interface == "wl_registry" {
		return m.dispatchRegistry(c, r, msg)
	}

	m.mu.Lock()
	h, ok := m.handlers[r.Interface]
	m.mu.Unlock()
	if !ok {
		return object_fatal(c, r.ID, fmt.Sprintf("no handler for interface %q", r.Interface))
	}

	if err := h.Dispatch(c, r, msg); err != nil {
		return m.handleComponentError(c, err)
	}
	return nil
}

func (m *Manager) dispatchDisplay(c *Client, msg *wire.Message) error {
	switch msg.Opcode {
	case displayOpSync:
		dec := wire.NewDecoder(msg.Args)
		cbID, err := dec.NewID()
		if err != nil {
			return object_fatal(c, displayObjectID, "malformed sync request")
		}
		b := wire.NewMessageBuilder()
		b.PutUint32(0)
		return c.Conn.Send(b.BuildMessage(cbID, callbackEventDone))

	case displayOpGetRegistry:
		dec := wire.NewDecoder(msg.Args)
		regID, err := dec.NewID()
		if err != nil {
			return object_fatal(c, displayObjectID, "malformed get_registry request")
		}
		if _, err := c.Register(uint32(regID), "wl_registry", 1, nil); err != nil {
			return err
		}
		for _, g := range m.Registry.Globals() {
			b := wire.NewMessageBuilder()
			b.PutUint32(g.Name)
			b.PutString(g.Interface)
			b.PutUint32(g.Version)
			if err := c.Conn.Send(b.BuildMessage(regID, registryEventGlobal)); err != nil {
				return err
			}
		}
		return nil

	default:
		return object_fatal(c, displayObjectID, "unknown wl_display opcode %d", msg.Opcode)
	}
}

func (m *Manager) dispatchRegistry(c *Client, r *Resource, msg *wire.Message) error {
	if msg.Opcode != registryOpBind {
		return object_fatal(c, r.ID, "unknown wl_registry opcode %d", msg.Opcode)
	}

	dec := wire.NewDecoder(msg.Args)
	name, err := dec.Uint32()
	if err != nil {
		return object_fatal(c, r.ID, "malformed bind request")
	}
	iface, err := dec.String()
	if err != nil {
		return object_fatal(c, r.ID, "malformed bind request")
	}
	version, err := dec.Uint32()
	if err != nil {
		return object_fatal(c, r.ID, "malformed bind request")
	}
	newID, err := dec.Uint32()
	if err != nil {
		return object_fatal(c, r.ID, "malformed bind request")
	}

	g, ok := m.Registry.Lookup(name)
	if !ok || g.Interface != iface {
		return object_fatal(c, r.ID, "bind: no such global %d (%s)", name, iface)
	}

	// Clients exceeding the advertised version cap are bound at the
	// highest supported version rather than rejected (spec §7 User-visible
	// behavior).
	if version > g.Version {
		version = g.Version
	}

	m.mu.Lock()
	h, ok := m.handlers[iface]
	m.mu.Unlock()
	if !ok {
		return object_fatal(c, r.ID, "no handler registered for %q", iface)
	}

	_, err = h.Bind(c, newID, version)
	return err
}

func (m *Manager) handleComponentError(c *Client, err error) error {
	ce, ok := err.(*Error)
	if !ok {
		m.log.Error().Err(err).Msg("unexpected internal error")
		return nil
	}

	switch ce.Kind {
	case KindProtocol:
		m.sendDisplayError(c, ce)
		return ce
	case KindSerialMismatch:
		m.log.Debug().Str("kind", ce.Kind.String()).Msg(ce.Message)
	case KindResourceMissing, KindInvalidSize, KindInvalidRegion, KindInvalidBuffer:
		m.log.Warn().Str("kind", ce.Kind.String()).Msg(ce.Message)
	case KindBackendFailure:
		m.log.Error().Str("kind", ce.Kind.String()).Msg(ce.Message)
	case KindIPCBind:
		m.log.Warn().Msg(ce.Message)
	}
	return nil
}

func (m *Manager) sendDisplayError(c *Client, ce *Error) {
	b := wire.NewMessageBuilder()
	b.PutObject(wire.ObjectID(ce.ObjectID))
	b.PutUint32(ce.Code)
	b.PutString(ce.Message)
	_ = c.Conn.Send(b.BuildMessage(displayObjectID, displayEventError))
}

func object_fatal(c *Client, objectID uint32, format string, args ...any) error {
	return NewProtocolError(objectID, 0, format, args...)
}
