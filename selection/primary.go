//go:build linux

package selection

import (
	"sync"

	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/wire"
)

const (
	primaryManagerOpCreateSource wire.Opcode = 0
	primaryManagerOpGetDevice    wire.Opcode = 1
	primaryManagerOpDestroy      wire.Opcode = 2

	primarySourceOpOffer   wire.Opcode = 0
	primarySourceOpDestroy wire.Opcode = 1
	primarySourceEventSend      wire.Opcode = 0
	primarySourceEventCancelled wire.Opcode = 1

	primaryOfferOpReceive  wire.Opcode = 0
	primaryOfferOpDestroy  wire.Opcode = 1
	primaryOfferEventOffer wire.Opcode = 0

	primaryDeviceOpSetSelection wire.Opcode = 0
	primaryDeviceOpDestroy      wire.Opcode = 1
	primaryDeviceEventDataOffer wire.Opcode = 0
	primaryDeviceEventSelection wire.Opcode = 1
)

type primaryDevice struct {
	objectID uint32
	clientID object.ClientID
}

// PrimaryHandler implements zwp_primary_selection_device_manager_v1 and the
// source/offer/device objects it mints. It shares Engine's source/offer
// tables and SetPrimarySelection logic instead of duplicating them — the
// primary buffer is wl_data_device_manager's clipboard with its own wire
// family layered on top, per wlroots' primary-selection-unstable-v1.
type PrimaryHandler struct {
	engine *Engine

	mu      sync.Mutex
	devices []*primaryDevice
}

func NewPrimaryHandler(e *Engine) *PrimaryHandler {
	return &PrimaryHandler{engine: e}
}

func (p *PrimaryHandler) Interface() string { return "zwp_primary_selection_device_manager_v1" }

func (p *PrimaryHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	p.engine.mu.Lock()
	p.engine.clients[c.ID] = c
	p.engine.mu.Unlock()
	return c.Register(id, "zwp_primary_selection_device_manager_v1", version, nil)
}

func (p *PrimaryHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "zwp_primary_selection_device_manager_v1":
		return p.dispatchManager(c, r, msg)
	case "zwp_primary_selection_source_v1":
		return p.dispatchSource(c, r, msg)
	case "zwp_primary_selection_offer_v1":
		return p.dispatchOffer(c, r, msg)
	case "zwp_primary_selection_device_v1":
		return p.dispatchDevice(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "primary selection handler got unexpected interface %q", r.Interface)
	}
}

func (p *PrimaryHandler) dispatchManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case primaryManagerOpCreateSource:
		newID, err := dec.NewID()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed create_source request")
		}
		src := &Source{ObjectID: uint32(newID), ClientID: c.ID, Kind: SourceClient, Alive: true}
		p.engine.mu.Lock()
		p.engine.sources[src.ObjectID] = src
		p.engine.mu.Unlock()
		_, err = c.Register(uint32(newID), "zwp_primary_selection_source_v1", 1, src)
		return err
	case primaryManagerOpGetDevice:
		newID, e1 := dec.NewID()
		_, e2 := dec.Object() // seat, single-seat core so unused beyond validation
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_device request")
		}
		p.mu.Lock()
		p.devices = append(p.devices, &primaryDevice{objectID: uint32(newID), clientID: c.ID})
		p.mu.Unlock()
		_, err := c.Register(uint32(newID), "zwp_primary_selection_device_v1", 1, nil)
		return err
	case primaryManagerOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwp_primary_selection_device_manager_v1 opcode %d", msg.Opcode)
	}
}

func (p *PrimaryHandler) dispatchSource(c *object.Client, r *object.Resource, msg *wire.Message) error {
	src := r.Data.(*Source)
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case primarySourceOpOffer:
		mime, err := dec.String()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed offer request")
		}
		src.MimeTypes = append(src.MimeTypes, mime)
		return nil
	case primarySourceOpDestroy:
		p.engine.destroySource(src)
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwp_primary_selection_source_v1 opcode %d", msg.Opcode)
	}
}

func (p *PrimaryHandler) dispatchOffer(c *object.Client, r *object.Resource, msg *wire.Message) error {
	offer := r.Data.(*Offer)
	dec := wire.NewDecoder(msg.Args)
	dec.Reset(msg.Args, msg.FDs)
	switch msg.Opcode {
	case primaryOfferOpReceive:
		mime, e1 := dec.String()
		fd, e2 := dec.FD()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed receive request")
		}
		return p.forwardReceive(offer, mime, fd)
	case primaryOfferOpDestroy:
		p.engine.mu.Lock()
		delete(p.engine.offers, offer.ObjectID)
		p.engine.mu.Unlock()
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwp_primary_selection_offer_v1 opcode %d", msg.Opcode)
	}
}

func (p *PrimaryHandler) forwardReceive(offer *Offer, mime string, fd int) error {
	p.engine.mu.Lock()
	src, ok := p.engine.sources[offer.SourceObjectID]
	var client *object.Client
	var clientOK bool
	if ok {
		client, clientOK = p.engine.clients[src.ClientID]
	}
	p.engine.mu.Unlock()
	if !ok || !clientOK || !src.Alive {
		return object.NewError(object.KindResourceMissing, "receive: source %d no longer alive", offer.SourceObjectID)
	}
	b := wire.NewMessageBuilder()
	b.PutString(mime)
	b.PutFD(fd)
	return client.Conn.Send(b.BuildMessage(wire.ObjectID(src.ObjectID), primarySourceEventSend))
}

func (p *PrimaryHandler) dispatchDevice(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case primaryDeviceOpSetSelection:
		sourceID, e1 := dec.Object()
		_, e2 := dec.Uint32() // serial
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_selection request")
		}
		p.engine.SetPrimarySelection(uint32(sourceID))
		p.broadcastSelection()
		return nil
	case primaryDeviceOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown zwp_primary_selection_device_v1 opcode %d", msg.Opcode)
	}
}

// broadcastSelection offers the current primary source to every bound
// primary device, mirroring Engine.SetSelection's clipboard broadcast.
func (p *PrimaryHandler) broadcastSelection() {
	p.engine.mu.Lock()
	src := p.engine.primary
	p.engine.mu.Unlock()
	p.mu.Lock()
	devices := append([]*primaryDevice(nil), p.devices...)
	p.mu.Unlock()

	for _, dev := range devices {
		p.offerTo(dev, src)
	}
}

func (p *PrimaryHandler) offerTo(dev *primaryDevice, src *Source) {
	p.engine.mu.Lock()
	client, ok := p.engine.clients[dev.clientID]
	p.engine.mu.Unlock()
	if !ok {
		return
	}
	if src == nil {
		msg := wire.NewMessageBuilder()
		msg.PutObject(0)
		_ = client.Conn.Send(msg.BuildMessage(wire.ObjectID(dev.objectID), primaryDeviceEventSelection))
		return
	}

	offerID := p.engine.allocOfferID()
	offer := &Offer{ObjectID: offerID, ClientID: dev.clientID, SourceObjectID: src.ObjectID, MimeTypes: src.MimeTypes}
	p.engine.mu.Lock()
	p.engine.offers[offerID] = offer
	p.engine.mu.Unlock()
	_, _ = client.Register(offerID, "zwp_primary_selection_offer_v1", 1, offer)

	mk := wire.NewMessageBuilder()
	mk.PutNewID(wire.ObjectID(offerID))
	_ = client.Conn.Send(mk.BuildMessage(wire.ObjectID(dev.objectID), primaryDeviceEventDataOffer))

	for _, mime := range src.MimeTypes {
		m := wire.NewMessageBuilder()
		m.PutString(mime)
		_ = client.Conn.Send(m.BuildMessage(wire.ObjectID(offerID), primaryOfferEventOffer))
	}

	sel := wire.NewMessageBuilder()
	sel.PutObject(wire.ObjectID(offerID))
	_ = client.Conn.Send(sel.BuildMessage(wire.ObjectID(dev.objectID), primaryDeviceEventSelection))
}
