//go:build linux

package selection

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/wire"
)

const (
	managerOpCreateDataSource wire.Opcode = 0
	managerOpGetDataDevice    wire.Opcode = 1

	sourceOpOffer      wire.Opcode = 0
	sourceOpDestroy    wire.Opcode = 1
	sourceOpSetActions wire.Opcode = 2
	sourceEventTarget           wire.Opcode = 0
	sourceEventSend             wire.Opcode = 1
	sourceEventCancelled        wire.Opcode = 2
	sourceEventDnDDropPerformed wire.Opcode = 3
	sourceEventDnDFinished      wire.Opcode = 4
	sourceEventAction           wire.Opcode = 5

	offerOpAccept     wire.Opcode = 0
	offerOpReceive    wire.Opcode = 1
	offerOpDestroy    wire.Opcode = 2
	offerOpFinish     wire.Opcode = 3
	offerOpSetActions wire.Opcode = 4
	offerEventOffer        wire.Opcode = 0
	offerEventSourceActions wire.Opcode = 1
	offerEventAction        wire.Opcode = 2

	deviceOpStartDrag    wire.Opcode = 0
	deviceOpSetSelection wire.Opcode = 1
	deviceOpRelease      wire.Opcode = 2
	deviceEventDataOffer wire.Opcode = 0
	deviceEventEnter     wire.Opcode = 1
	deviceEventLeave     wire.Opcode = 2
	deviceEventMotion    wire.Opcode = 3
	deviceEventDrop      wire.Opcode = 4
	deviceEventSelection wire.Opcode = 5
)

// Engine owns the compositor-wide data-device state: every source, offer,
// and device across clients, plus the one active clipboard/primary
// selection and drag transaction (spec §3, §4.E).
type Engine struct {
	log     zerolog.Logger
	serials *object.SerialAllocator

	mu      sync.Mutex
	sources map[uint32]*Source
	offers  map[uint32]*Offer
	devices []*Device
	clients map[object.ClientID]*object.Client

	clipboard *Source
	primary   *Source
	drag      *Drag

	nextOfferID uint32
}

func NewEngine(log zerolog.Logger, serials *object.SerialAllocator) *Engine {
	return &Engine{
		log:         log,
		serials:     serials,
		sources:     make(map[uint32]*Source),
		offers:      make(map[uint32]*Offer),
		clients:     make(map[object.ClientID]*object.Client),
		nextOfferID: 0xfe000000,
	}
}

func (e *Engine) Interface() string { return "wl_data_device_manager" }

func (e *Engine) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	e.mu.Lock()
	e.clients[c.ID] = c
	e.mu.Unlock()
	return c.Register(id, "wl_data_device_manager", version, nil)
}

func (e *Engine) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "wl_data_device_manager":
		return e.dispatchManager(c, r, msg)
	case "wl_data_source":
		return e.dispatchSource(c, r, msg)
	case "wl_data_offer":
		return e.dispatchOffer(c, r, msg)
	case "wl_data_device":
		return e.dispatchDevice(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "selection handler got unexpected interface %q", r.Interface)
	}
}

func (e *Engine) dispatchManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case managerOpCreateDataSource:
		newID, err := dec.NewID()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed create_data_source request")
		}
		src := &Source{ObjectID: uint32(newID), ClientID: c.ID, Kind: SourceClient, Alive: true}
		e.mu.Lock()
		e.sources[src.ObjectID] = src
		e.mu.Unlock()
		_, err = c.Register(uint32(newID), "wl_data_source", 1, src)
		return err
	case managerOpGetDataDevice:
		newID, e1 := dec.NewID()
		_, e2 := dec.Object() // seat, single-seat core so unused beyond validation
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_data_device request")
		}
		dev := &Device{ObjectID: uint32(newID), ClientID: c.ID}
		e.mu.Lock()
		e.devices = append(e.devices, dev)
		e.mu.Unlock()
		_, err := c.Register(uint32(newID), "wl_data_device", 1, dev)
		return err
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_data_device_manager opcode %d", msg.Opcode)
	}
}

func (e *Engine) dispatchSource(c *object.Client, r *object.Resource, msg *wire.Message) error {
	src := r.Data.(*Source)
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case sourceOpOffer:
		mime, err := dec.String()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed offer request")
		}
		src.MimeTypes = append(src.MimeTypes, mime)
		return nil
	case sourceOpSetActions:
		actions, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_actions request")
		}
		src.Actions = Action(actions)
		return nil
	case sourceOpDestroy:
		e.destroySource(src)
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_data_source opcode %d", msg.Opcode)
	}
}

// destroySource cancels any transaction the source was backing, per spec
// §7 ("source destruction mid-transaction cancels the transaction and
// cleans up offers").
func (e *Engine) destroySource(src *Source) {
	src.Alive = false
	e.mu.Lock()
	delete(e.sources, src.ObjectID)
	isClipboard := e.clipboard == src
	isPrimary := e.primary == src
	isDragSource := e.drag != nil && e.drag.SourceObjectID == src.ObjectID
	e.mu.Unlock()

	if isClipboard {
		e.mu.Lock()
		e.clipboard = nil
		e.mu.Unlock()
	}
	if isPrimary {
		e.mu.Lock()
		e.primary = nil
		e.mu.Unlock()
	}
	if isDragSource {
		e.CancelDrag()
	}
}

func (e *Engine) dispatchOffer(c *object.Client, r *object.Resource, msg *wire.Message) error {
	offer := r.Data.(*Offer)
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case offerOpAccept:
		_, _ = dec.Uint32()
		_, _ = dec.String()
		return nil
	case offerOpReceive:
		mime, e1 := dec.String()
		fd, e2 := dec.FD()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed receive request")
		}
		return e.forwardReceive(offer, mime, fd)
	case offerOpFinish:
		if e.drag != nil && e.drag.CurrentOfferID == offer.ObjectID {
			e.finishDrag()
		}
		return nil
	case offerOpSetActions:
		actions, e1 := dec.Uint32()
		preferred, e2 := dec.Uint32()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_actions request")
		}
		offer.SourceActions = Action(actions)
		offer.PreferredAction = Action(preferred)
		return nil
	case offerOpDestroy:
		e.mu.Lock()
		delete(e.offers, offer.ObjectID)
		e.mu.Unlock()
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_data_offer opcode %d", msg.Opcode)
	}
}

// forwardReceive relays an offer's receive request to the backing
// source's send event; the fd is relinquished to the source side
// immediately after, per spec §4.E.
func (e *Engine) forwardReceive(offer *Offer, mime string, fd int) error {
	e.mu.Lock()
	src, ok := e.sources[offer.SourceObjectID]
	client, clientOK := e.clients[src.ClientID]
	e.mu.Unlock()
	if !ok || !clientOK || !src.Alive {
		return object.NewError(object.KindResourceMissing, "receive: source %d no longer alive", offer.SourceObjectID)
	}
	b := wire.NewMessageBuilder()
	b.PutString(mime)
	b.PutFD(fd)
	return client.Conn.Send(b.BuildMessage(wire.ObjectID(src.ObjectID), sourceEventSend))
}

func (e *Engine) dispatchDevice(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dev := r.Data.(*Device)
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case deviceOpStartDrag:
		sourceID, e1 := dec.Object()
		origin, e2 := dec.Object()
		icon, e3 := dec.Object()
		serial, e4 := dec.Uint32()
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed start_drag request")
		}
		return e.StartDrag(uint32(sourceID), uint32(origin), uint32(icon), serial)
	case deviceOpSetSelection:
		sourceID, e1 := dec.Object()
		serial, e2 := dec.Uint32()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_selection request")
		}
		e.SetSelection(uint32(sourceID))
		_ = serial
		return nil
	case deviceOpRelease:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wl_data_device opcode %d", msg.Opcode)
	}
}

// SetSelection adopts sourceID as the clipboard source (0 clears it) and
// offers it to every bound data device, per spec §4.E.
func (e *Engine) SetSelection(sourceID uint32) {
	e.mu.Lock()
	var src *Source
	if sourceID != 0 {
		src = e.sources[sourceID]
	}
	e.clipboard = src
	devices := append([]*Device(nil), e.devices...)
	e.mu.Unlock()

	for _, dev := range devices {
		e.offerSelectionTo(dev, src, deviceEventSelection)
	}
}

// SetPrimarySelection mirrors SetSelection for the primary buffer.
func (e *Engine) SetPrimarySelection(sourceID uint32) {
	e.mu.Lock()
	var src *Source
	if sourceID != 0 {
		src = e.sources[sourceID]
	}
	e.primary = src
	e.mu.Unlock()
}

func (e *Engine) offerSelectionTo(dev *Device, src *Source, selectionEvent wire.Opcode) {
	e.mu.Lock()
	client, ok := e.clients[dev.ClientID]
	e.mu.Unlock()
	if !ok {
		return
	}
	if src == nil {
		msg := wire.NewMessageBuilder()
		msg.PutObject(0)
		_ = client.Conn.Send(msg.BuildMessage(wire.ObjectID(dev.ObjectID), selectionEvent))
		return
	}

	offerID := e.allocOfferID()
	offer := &Offer{ObjectID: offerID, ClientID: dev.ClientID, SourceObjectID: src.ObjectID, MimeTypes: src.MimeTypes, SourceActions: src.Actions}
	e.mu.Lock()
	e.offers[offerID] = offer
	e.mu.Unlock()
	// The offer id is minted server-side inside an event, so the client never
	// sends a bind/new_id request for it — register it ourselves or a later
	// wl_data_offer.receive/destroy on this id has no resource to route to.
	_, _ = client.Register(offerID, "wl_data_offer", 1, offer)

	mkOffer := wire.NewMessageBuilder()
	mkOffer.PutNewID(wire.ObjectID(offerID))
	_ = client.Conn.Send(mkOffer.BuildMessage(wire.ObjectID(dev.ObjectID), deviceEventDataOffer))

	for _, mime := range src.MimeTypes {
		mimeMsg := wire.NewMessageBuilder()
		mimeMsg.PutString(mime)
		_ = client.Conn.Send(mimeMsg.BuildMessage(wire.ObjectID(offerID), offerEventOffer))
	}

	selMsg := wire.NewMessageBuilder()
	selMsg.PutObject(wire.ObjectID(offerID))
	_ = client.Conn.Send(selMsg.BuildMessage(wire.ObjectID(dev.ObjectID), selectionEvent))
}

func (e *Engine) allocOfferID() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextOfferID
	e.nextOfferID++
	return id
}

// StartDrag begins the drag state machine: Idle -> Dragging, spec §4.E.
func (e *Engine) StartDrag(sourceID, origin, icon uint32, serial uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag != nil && e.drag.Phase == DragDragging {
		return object.NewError(object.KindResourceMissing, "start_drag: drag already in progress")
	}
	e.drag = &Drag{Phase: DragDragging, SourceObjectID: sourceID, OriginSurfaceID: origin, IconSurfaceID: icon, GrabSerial: serial}
	return nil
}

// IsDragging reports whether a drag transaction is in progress.
func (e *Engine) IsDragging() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag != nil && e.drag.Phase == DragDragging
}

// DragFocusChanged is called by the pointer router when drag focus moves
// to a new surface: sends leave(prev), then enter + data_offer +
// source_actions to the new focus (spec §4.E).
func (e *Engine) DragFocusChanged(newClient object.ClientID, newDevice *Device, surfaceID uint32, x, y float64) {
	e.mu.Lock()
	drag := e.drag
	e.mu.Unlock()
	if drag == nil {
		return
	}
	if drag.FocusSurfaceID != 0 && drag.FocusDeviceID != 0 {
		e.mu.Lock()
		client, ok := e.clients[drag.FocusClientID]
		e.mu.Unlock()
		if ok {
			msg := wire.NewMessageBuilder()
			_ = client.Conn.Send(msg.BuildMessage(wire.ObjectID(drag.FocusDeviceID), deviceEventLeave))
		}
	}
	drag.FocusSurfaceID = surfaceID
	drag.FocusClientID = newClient
	drag.FocusDeviceID = 0
	if newDevice == nil {
		return
	}
	drag.FocusDeviceID = newDevice.ObjectID

	e.mu.Lock()
	src := e.sources[drag.SourceObjectID]
	client, ok := e.clients[newClient]
	e.mu.Unlock()
	if !ok || src == nil {
		return
	}

	offerID := e.allocOfferID()
	offer := &Offer{ObjectID: offerID, ClientID: newClient, SourceObjectID: src.ObjectID, MimeTypes: src.MimeTypes, SourceActions: src.Actions}
	e.mu.Lock()
	e.offers[offerID] = offer
	drag.CurrentOfferID = offerID
	e.mu.Unlock()
	_, _ = client.Register(offerID, "wl_data_offer", 1, offer)

	mk := wire.NewMessageBuilder()
	mk.PutNewID(wire.ObjectID(offerID))
	_ = client.Conn.Send(mk.BuildMessage(wire.ObjectID(newDevice.ObjectID), deviceEventDataOffer))

	enter := wire.NewMessageBuilder()
	enter.PutUint32(e.serials.Next())
	enter.PutObject(wire.ObjectID(surfaceID))
	enter.PutFixed(wire.FixedFromFloat(x))
	enter.PutFixed(wire.FixedFromFloat(y))
	enter.PutObject(wire.ObjectID(offerID))
	_ = client.Conn.Send(enter.BuildMessage(wire.ObjectID(newDevice.ObjectID), deviceEventEnter))

	if src.Actions != ActionNone {
		sa := wire.NewMessageBuilder()
		sa.PutUint32(uint32(src.Actions))
		_ = client.Conn.Send(sa.BuildMessage(wire.ObjectID(offerID), offerEventSourceActions))
	}
}

// Drop transitions Dragging -> Finishing on pointer-button release over a
// focused surface, sending drop() to the dest device and
// dnd_drop_performed() to the source (spec §4.E).
func (e *Engine) Drop() {
	e.mu.Lock()
	drag := e.drag
	e.mu.Unlock()
	if drag == nil || drag.Phase != DragDragging {
		return
	}
	drag.Phase = DragFinishing

	e.mu.Lock()
	client, ok := e.clients[drag.FocusClientID]
	src, srcOK := e.sources[drag.SourceObjectID]
	e.mu.Unlock()
	if ok && drag.FocusDeviceID != 0 {
		msg := wire.NewMessageBuilder()
		_ = client.Conn.Send(msg.BuildMessage(wire.ObjectID(drag.FocusDeviceID), deviceEventDrop))
	}
	if srcOK && src.Alive {
		e.mu.Lock()
		sc, scOK := e.clients[src.ClientID]
		e.mu.Unlock()
		if scOK {
			msg := wire.NewMessageBuilder()
			_ = sc.Conn.Send(msg.BuildMessage(wire.ObjectID(src.ObjectID), sourceEventDnDDropPerformed))
		}
	}
}

// finishDrag completes a Finishing drag once the destination calls
// offer.finish: sends action(negotiated)+dnd_finished to the source.
func (e *Engine) finishDrag() {
	e.mu.Lock()
	drag := e.drag
	e.mu.Unlock()
	if drag == nil {
		return
	}
	e.mu.Lock()
	src, ok := e.sources[drag.SourceObjectID]
	offer := e.offers[drag.CurrentOfferID]
	e.mu.Unlock()
	if !ok {
		e.endDrag()
		return
	}
	negotiated := ActionNone
	if offer != nil {
		negotiated = Negotiate(src.Actions, offer.SourceActions, offer.PreferredAction)
	}
	e.mu.Lock()
	client, clientOK := e.clients[src.ClientID]
	e.mu.Unlock()
	if clientOK {
		actionMsg := wire.NewMessageBuilder()
		actionMsg.PutUint32(uint32(negotiated))
		_ = client.Conn.Send(actionMsg.BuildMessage(wire.ObjectID(src.ObjectID), sourceEventAction))
		finMsg := wire.NewMessageBuilder()
		_ = client.Conn.Send(finMsg.BuildMessage(wire.ObjectID(src.ObjectID), sourceEventDnDFinished))
	}
	e.endDrag()
}

// CancelDrag transitions to Cancelled: leave(dest) + cancelled(source).
// Offers are not removed here — only on the client's explicit destroy, per
// original_source's windows.rs.
func (e *Engine) CancelDrag() {
	e.mu.Lock()
	drag := e.drag
	e.mu.Unlock()
	if drag == nil {
		return
	}
	drag.Phase = DragCancelled

	e.mu.Lock()
	client, ok := e.clients[drag.FocusClientID]
	src, srcOK := e.sources[drag.SourceObjectID]
	e.mu.Unlock()
	if ok && drag.FocusDeviceID != 0 {
		msg := wire.NewMessageBuilder()
		_ = client.Conn.Send(msg.BuildMessage(wire.ObjectID(drag.FocusDeviceID), deviceEventLeave))
	}
	if srcOK && src.Alive {
		e.mu.Lock()
		sc, scOK := e.clients[src.ClientID]
		e.mu.Unlock()
		if scOK {
			msg := wire.NewMessageBuilder()
			_ = sc.Conn.Send(msg.BuildMessage(wire.ObjectID(src.ObjectID), sourceEventCancelled))
		}
	}
	e.endDrag()
}

func (e *Engine) endDrag() {
	e.mu.Lock()
	e.drag = nil
	e.mu.Unlock()
}
