//go:build linux

package ext

import (
	"fmt"
	"sync"

	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/wire"
)

const (
	toplevelListOpStop    wire.Opcode = 0
	toplevelListOpDestroy wire.Opcode = 1

	toplevelListEventToplevel wire.Opcode = 0
	toplevelListEventFinished wire.Opcode = 1

	toplevelHandleEventClosed     wire.Opcode = 0
	toplevelHandleEventDone       wire.Opcode = 1
	toplevelHandleEventTitle      wire.Opcode = 2
	toplevelHandleEventAppID      wire.Opcode = 3
	toplevelHandleEventIdentifier wire.Opcode = 4

	toplevelHandleOpDestroy wire.Opcode = 0
)

// ToplevelInfo is the subset of window state the foreign-toplevel-list
// protocol advertises to privileged clients (task bars, docks).
type ToplevelInfo struct {
	WindowID uint32
	Title    string
	AppID    string
}

type toplevelHandle struct {
	client   *object.Client
	objectID uint32
	windowID uint32
}

// ForeignToplevelList implements ext_foreign_toplevel_list_v1: on bind it
// enumerates every current toplevel (ext_foreign_toplevel_list.rs); after
// that, window lifecycle calls push incremental toplevel/closed events to
// every bound list.
type ForeignToplevelList struct {
	mu       sync.Mutex
	windows  map[uint32]ToplevelInfo // windowID -> info, source of truth enumerated on bind
	bindings map[object.ClientID]*object.Client
	nextObj  uint32
	byWindow map[uint32][]*toplevelHandle
}

func NewForeignToplevelList() *ForeignToplevelList {
	return &ForeignToplevelList{
		windows:  make(map[uint32]ToplevelInfo),
		bindings: make(map[object.ClientID]*object.Client),
		nextObj:  0xfd000000,
		byWindow: make(map[uint32][]*toplevelHandle),
	}
}

func (f *ForeignToplevelList) Interface() string { return "ext_foreign_toplevel_list_v1" }

func (f *ForeignToplevelList) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	r, err := c.Register(id, f.Interface(), version, nil)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.bindings[c.ID] = c
	snapshot := make([]ToplevelInfo, 0, len(f.windows))
	for _, info := range f.windows {
		snapshot = append(snapshot, info)
	}
	f.mu.Unlock()

	for _, info := range snapshot {
		f.sendHandle(c, id, info)
	}
	return r, nil
}

func (f *ForeignToplevelList) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case toplevelListOpStop:
		return nil
	case toplevelListOpDestroy:
		f.mu.Lock()
		delete(f.bindings, c.ID)
		f.mu.Unlock()
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown ext_foreign_toplevel_list_v1 opcode %d", msg.Opcode)
	}
}

func (f *ForeignToplevelList) allocID() uint32 {
	id := f.nextObj
	f.nextObj++
	return id
}

func (f *ForeignToplevelList) sendHandle(c *object.Client, listObjectID uint32, info ToplevelInfo) {
	f.mu.Lock()
	handleID := f.allocID()
	h := &toplevelHandle{client: c, objectID: handleID, windowID: info.WindowID}
	f.byWindow[info.WindowID] = append(f.byWindow[info.WindowID], h)
	f.mu.Unlock()

	toplevel := wire.NewMessageBuilder()
	toplevel.PutNewIDFull("ext_foreign_toplevel_handle_v1", 1, wire.ObjectID(handleID))
	_ = c.Conn.Send(toplevel.BuildMessage(wire.ObjectID(listObjectID), toplevelListEventToplevel))

	title := wire.NewMessageBuilder()
	title.PutString(info.Title)
	_ = c.Conn.Send(title.BuildMessage(wire.ObjectID(handleID), toplevelHandleEventTitle))

	appID := wire.NewMessageBuilder()
	appID.PutString(info.AppID)
	_ = c.Conn.Send(appID.BuildMessage(wire.ObjectID(handleID), toplevelHandleEventAppID))

	ident := wire.NewMessageBuilder()
	ident.PutString(fmt.Sprintf("wawona-window-%d", info.WindowID))
	_ = c.Conn.Send(ident.BuildMessage(wire.ObjectID(handleID), toplevelHandleEventIdentifier))

	done := wire.NewMessageBuilder()
	_ = c.Conn.Send(done.BuildMessage(wire.ObjectID(handleID), toplevelHandleEventDone))
}

// WindowCreated records a new toplevel and announces it to every
// currently-bound list.
func (f *ForeignToplevelList) WindowCreated(info ToplevelInfo) {
	f.mu.Lock()
	f.windows[info.WindowID] = info
	targets := make(map[object.ClientID]*object.Client, len(f.bindings))
	for cid, c := range f.bindings {
		targets[cid] = c
	}
	f.mu.Unlock()

	for _, c := range targets {
		for _, res := range c.Resources() {
			if res.Interface == "ext_foreign_toplevel_list_v1" {
				f.sendHandle(c, res.ID, info)
			}
		}
	}
}

// WindowDestroyed sends `closed` to every handle tracking this window and
// forgets it.
func (f *ForeignToplevelList) WindowDestroyed(windowID uint32) {
	f.mu.Lock()
	handles := f.byWindow[windowID]
	delete(f.byWindow, windowID)
	delete(f.windows, windowID)
	f.mu.Unlock()

	for _, h := range handles {
		closed := wire.NewMessageBuilder()
		_ = h.client.Conn.Send(closed.BuildMessage(wire.ObjectID(h.objectID), toplevelHandleEventClosed))
	}
}

// WindowRenamed re-sends title/app_id/done to every handle for this window.
func (f *ForeignToplevelList) WindowRenamed(windowID uint32, title, appID string) {
	f.mu.Lock()
	info, ok := f.windows[windowID]
	if ok {
		info.Title = title
		info.AppID = appID
		f.windows[windowID] = info
	}
	handles := append([]*toplevelHandle(nil), f.byWindow[windowID]...)
	f.mu.Unlock()
	if !ok {
		return
	}

	for _, h := range handles {
		t := wire.NewMessageBuilder()
		t.PutString(title)
		_ = h.client.Conn.Send(t.BuildMessage(wire.ObjectID(h.objectID), toplevelHandleEventTitle))

		a := wire.NewMessageBuilder()
		a.PutString(appID)
		_ = h.client.Conn.Send(a.BuildMessage(wire.ObjectID(h.objectID), toplevelHandleEventAppID))

		done := wire.NewMessageBuilder()
		_ = h.client.Conn.Send(done.BuildMessage(wire.ObjectID(h.objectID), toplevelHandleEventDone))
	}
}
