//go:build linux

package ext

import (
	"time"

	"github.com/wawona-wm/wawona/frame"
	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/wire"
)

const (
	idleNotifierOpGetIdleNotification wire.Opcode = 0
	idleNotifierOpDestroy             wire.Opcode = 1

	idleNotificationOpDestroy     wire.Opcode = 0
	idleNotificationEventIdled    wire.Opcode = 0
	idleNotificationEventResumed  wire.Opcode = 1

	sessionLockManagerOpLock    wire.Opcode = 0
	sessionLockManagerOpDestroy wire.Opcode = 1

	sessionLockOpGetLockSurface   wire.Opcode = 0
	sessionLockOpUnlockAndDestroy wire.Opcode = 1
	sessionLockEventLocked        wire.Opcode = 0
	sessionLockEventFinished      wire.Opcode = 1

	lockSurfaceOpAckConfigure wire.Opcode = 0
	lockSurfaceOpDestroy      wire.Opcode = 1
	lockSurfaceEventConfigure wire.Opcode = 0

	secContextManagerOpCreateListener wire.Opcode = 0
	secContextManagerOpDestroy        wire.Opcode = 1

	secContextOpSetSandboxEngine wire.Opcode = 0
	secContextOpSetAppID         wire.Opcode = 1
	secContextOpCommit           wire.Opcode = 2
	secContextOpDestroy          wire.Opcode = 3

	workspaceManagerOpCommit  wire.Opcode = 0
	workspaceManagerOpStop    wire.Opcode = 1
	workspaceManagerEventWorkspaceGroup wire.Opcode = 0
	workspaceManagerEventDone           wire.Opcode = 1

	workspaceGroupOpCreateWorkspace wire.Opcode = 0
	workspaceGroupOpDestroy         wire.Opcode = 1
	workspaceGroupEventWorkspace    wire.Opcode = 0

	workspaceHandleOpActivate   wire.Opcode = 0
	workspaceHandleOpDeactivate wire.Opcode = 1
	workspaceHandleOpRemove     wire.Opcode = 2
	workspaceHandleOpDestroy    wire.Opcode = 3
	workspaceHandleEventName    wire.Opcode = 0
	workspaceHandleEventState   wire.Opcode = 1
	workspaceHandleEventDone    wire.Opcode = 2

	workspaceStateActive uint32 = 1 << 0

	alphaModifierManagerOpGetSurface wire.Opcode = 0
	alphaModifierManagerOpDestroy    wire.Opcode = 1

	alphaModifierSurfaceOpSetMultiplier wire.Opcode = 0
	alphaModifierSurfaceOpDestroy       wire.Opcode = 1

	presentationOpFeedback wire.Opcode = 0
	presentationOpDestroy  wire.Opcode = 1
)

// IdleHandler implements ext_idle_notifier_v1 / ext_idle_notification_v1,
// wiring IdleNotifier's pure timeout bookkeeping to real wire events instead
// of the log lines the main loop used to settle for.
type IdleHandler struct {
	notifier     *IdleNotifier
	notifications map[uint32]*idleNotificationBinding
	nextID       uint32
}

type idleNotificationBinding struct {
	client *object.Client
}

func NewIdleHandler(n *IdleNotifier) *IdleHandler {
	return &IdleHandler{notifier: n, notifications: make(map[uint32]*idleNotificationBinding), nextID: 1}
}

func (h *IdleHandler) Interface() string { return "ext_idle_notifier_v1" }

func (h *IdleHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "ext_idle_notifier_v1", version, nil)
}

func (h *IdleHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "ext_idle_notifier_v1":
		return h.dispatchNotifier(c, r, msg)
	case "ext_idle_notification_v1":
		return h.dispatchNotification(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "idle handler got unexpected interface %q", r.Interface)
	}
}

func (h *IdleHandler) dispatchNotifier(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case idleNotifierOpGetIdleNotification:
		dec := wire.NewDecoder(msg.Args)
		newID, e1 := dec.NewID()
		timeoutMs, e2 := dec.Uint32()
		_, e3 := dec.Object() // seat
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_idle_notification request")
		}
		id := uint32(newID)
		h.notifications[id] = &idleNotificationBinding{client: c}
		h.notifier.Subscribe(id, time.Duration(timeoutMs)*time.Millisecond, time.Now())
		_, err := c.Register(id, "ext_idle_notification_v1", 1, nil)
		return err
	case idleNotifierOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown ext_idle_notifier_v1 opcode %d", msg.Opcode)
	}
}

func (h *IdleHandler) dispatchNotification(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case idleNotificationOpDestroy:
		h.notifier.Unsubscribe(r.ID)
		delete(h.notifications, r.ID)
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown ext_idle_notification_v1 opcode %d", msg.Opcode)
	}
}

// NotifyIdled sends `idled` to every notification id the last Tick reported.
func (h *IdleHandler) NotifyIdled(ids []uint32) {
	h.sendEach(ids, idleNotificationEventIdled)
}

// NotifyResumed sends `resumed` to every notification id the last
// NotifyInput call reported.
func (h *IdleHandler) NotifyResumed(ids []uint32) {
	h.sendEach(ids, idleNotificationEventResumed)
}

func (h *IdleHandler) sendEach(ids []uint32, opcode wire.Opcode) {
	for _, id := range ids {
		b, ok := h.notifications[id]
		if !ok {
			continue
		}
		msg := wire.NewMessageBuilder()
		_ = b.client.Conn.Send(msg.BuildMessage(wire.ObjectID(id), opcode))
	}
}

// SessionLockHandler implements ext_session_lock_manager_v1,
// ext_session_lock_v1, and ext_session_lock_surface_v1 over SessionLock's
// state machine.
type SessionLockHandler struct {
	lock *SessionLock

	lockObjectID uint32
	lockClient   *object.Client
	surfaces     map[uint32]surfaceLockBinding // outputID -> binding
}

type surfaceLockBinding struct {
	client   *object.Client
	objectID uint32
}

func NewSessionLockHandler(l *SessionLock) *SessionLockHandler {
	return &SessionLockHandler{lock: l, surfaces: make(map[uint32]surfaceLockBinding)}
}

func (h *SessionLockHandler) Interface() string { return "ext_session_lock_manager_v1" }

func (h *SessionLockHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "ext_session_lock_manager_v1", version, nil)
}

func (h *SessionLockHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "ext_session_lock_manager_v1":
		return h.dispatchManager(c, r, msg)
	case "ext_session_lock_v1":
		return h.dispatchLock(c, r, msg)
	case "ext_session_lock_surface_v1":
		return h.dispatchLockSurface(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "session lock handler got unexpected interface %q", r.Interface)
	}
}

func (h *SessionLockHandler) dispatchManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case sessionLockManagerOpLock:
		dec := wire.NewDecoder(msg.Args)
		newID, err := dec.NewID()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed lock request")
		}
		h.lock.Lock()
		h.lockObjectID = uint32(newID)
		h.lockClient = c
		if _, err := c.Register(uint32(newID), "ext_session_lock_v1", 1, nil); err != nil {
			return err
		}
		locked := wire.NewMessageBuilder()
		return c.Conn.Send(locked.BuildMessage(newID, sessionLockEventLocked))
	case sessionLockManagerOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown ext_session_lock_manager_v1 opcode %d", msg.Opcode)
	}
}

func (h *SessionLockHandler) dispatchLock(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case sessionLockOpGetLockSurface:
		dec := wire.NewDecoder(msg.Args)
		newID, e1 := dec.NewID()
		_, e2 := dec.Object() // wl_surface
		outputID, e3 := dec.Object()
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_lock_surface request")
		}
		h.lock.AttachLockSurface(uint32(outputID), uint32(newID))
		h.surfaces[uint32(outputID)] = surfaceLockBinding{client: c, objectID: uint32(newID)}
		_, err := c.Register(uint32(newID), "ext_session_lock_surface_v1", 1, nil)
		return err
	case sessionLockOpUnlockAndDestroy:
		h.lock.Unlock()
		if h.lockClient != nil {
			finished := wire.NewMessageBuilder()
			_ = h.lockClient.Conn.Send(finished.BuildMessage(wire.ObjectID(h.lockObjectID), sessionLockEventFinished))
		}
		c.Unregister(r.ID)
		h.lockObjectID = 0
		h.lockClient = nil
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown ext_session_lock_v1 opcode %d", msg.Opcode)
	}
}

func (h *SessionLockHandler) dispatchLockSurface(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case lockSurfaceOpAckConfigure:
		return nil
	case lockSurfaceOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown ext_session_lock_surface_v1 opcode %d", msg.Opcode)
	}
}

// SecurityContextHandler implements wp_security_context_manager_v1 /
// wp_security_context_v1 over SecurityContexts.
type SecurityContextHandler struct {
	contexts *SecurityContexts
}

func NewSecurityContextHandler(contexts *SecurityContexts) *SecurityContextHandler {
	return &SecurityContextHandler{contexts: contexts}
}

func (h *SecurityContextHandler) Interface() string { return "wp_security_context_manager_v1" }

func (h *SecurityContextHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "wp_security_context_manager_v1", version, nil)
}

func (h *SecurityContextHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "wp_security_context_manager_v1":
		return h.dispatchManager(c, r, msg)
	case "wp_security_context_v1":
		return h.dispatchContext(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "security context handler got unexpected interface %q", r.Interface)
	}
}

func (h *SecurityContextHandler) dispatchManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case secContextManagerOpCreateListener:
		dec := wire.NewDecoder(msg.Args)
		newID, e1 := dec.NewID()
		_, e2 := dec.FD() // listen_fd
		_, e3 := dec.FD() // close_fd
		if e1 != nil || e2 != nil || e3 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed create_listener request")
		}
		h.contexts.CreateListener(uint32(newID))
		_, err := c.Register(uint32(newID), "wp_security_context_v1", 1, nil)
		return err
	case secContextManagerOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wp_security_context_manager_v1 opcode %d", msg.Opcode)
	}
}

func (h *SecurityContextHandler) dispatchContext(c *object.Client, r *object.Resource, msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case secContextOpSetSandboxEngine:
		name, err := dec.String()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_sandbox_engine request")
		}
		h.contexts.SetSandboxEngine(r.ID, name)
		return nil
	case secContextOpSetAppID:
		appID, err := dec.String()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_app_id request")
		}
		h.contexts.SetAppID(r.ID, appID)
		return nil
	case secContextOpCommit:
		h.contexts.Commit(r.ID)
		return nil
	case secContextOpDestroy:
		h.contexts.Destroy(r.ID)
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wp_security_context_v1 opcode %d", msg.Opcode)
	}
}

// WorkspaceHandler implements ext_workspace_manager_v1 and the single
// workspace group / per-workspace handles it mints, over Workspaces'
// staged-until-commit model.
type WorkspaceHandler struct {
	workspaces *Workspaces

	groupObjectID uint32
	groupClient   *object.Client
	handles       map[uint32]workspaceHandleBinding // workspace id -> binding
	nextHandleID  uint32
}

type workspaceHandleBinding struct {
	client   *object.Client
	objectID uint32
}

func NewWorkspaceHandler(w *Workspaces) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: w, handles: make(map[uint32]workspaceHandleBinding), nextHandleID: 0xfb000000}
}

func (h *WorkspaceHandler) Interface() string { return "ext_workspace_manager_v1" }

func (h *WorkspaceHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	r, err := c.Register(id, "ext_workspace_manager_v1", version, nil)
	if err != nil {
		return nil, err
	}
	h.groupClient = c
	h.groupObjectID = c.AllocServerID()
	if _, err := c.Register(h.groupObjectID, "ext_workspace_group_handle_v1", 1, nil); err != nil {
		return nil, err
	}
	group := wire.NewMessageBuilder()
	group.PutNewID(wire.ObjectID(h.groupObjectID))
	if err := c.Conn.Send(group.BuildMessage(wire.ObjectID(id), workspaceManagerEventWorkspaceGroup)); err != nil {
		return nil, err
	}
	h.sendSnapshot(c, id)
	return r, nil
}

func (h *WorkspaceHandler) sendSnapshot(c *object.Client, managerID uint32) {
	for _, info := range h.workspaces.Commit() {
		h.sendHandle(c, info)
	}
	done := wire.NewMessageBuilder()
	_ = c.Conn.Send(done.BuildMessage(wire.ObjectID(managerID), workspaceManagerEventDone))
}

func (h *WorkspaceHandler) sendHandle(c *object.Client, info WorkspaceInfo) {
	b, ok := h.handles[info.ID]
	if !ok {
		handleID := h.nextHandleID
		h.nextHandleID++
		b = workspaceHandleBinding{client: c, objectID: handleID}
		h.handles[info.ID] = b
		_, _ = c.Register(handleID, "ext_workspace_handle_v1", 1, info.ID)

		mk := wire.NewMessageBuilder()
		mk.PutNewID(wire.ObjectID(handleID))
		_ = c.Conn.Send(mk.BuildMessage(wire.ObjectID(h.groupObjectID), workspaceGroupEventWorkspace))
	}

	name := wire.NewMessageBuilder()
	name.PutString(info.Name)
	_ = c.Conn.Send(name.BuildMessage(wire.ObjectID(b.objectID), workspaceHandleEventName))

	var state uint32
	if info.Active {
		state = workspaceStateActive
	}
	st := wire.NewMessageBuilder()
	st.PutUint32(state)
	_ = c.Conn.Send(st.BuildMessage(wire.ObjectID(b.objectID), workspaceHandleEventState))

	done := wire.NewMessageBuilder()
	_ = c.Conn.Send(done.BuildMessage(wire.ObjectID(b.objectID), workspaceHandleEventDone))
}

func (h *WorkspaceHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "ext_workspace_manager_v1":
		return h.dispatchManager(c, r, msg)
	case "ext_workspace_group_handle_v1":
		return h.dispatchGroup(c, r, msg)
	case "ext_workspace_handle_v1":
		return h.dispatchHandle(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "workspace handler got unexpected interface %q", r.Interface)
	}
}

func (h *WorkspaceHandler) dispatchManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case workspaceManagerOpCommit:
		h.sendSnapshot(c, r.ID)
		return nil
	case workspaceManagerOpStop:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown ext_workspace_manager_v1 opcode %d", msg.Opcode)
	}
}

func (h *WorkspaceHandler) dispatchGroup(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case workspaceGroupOpCreateWorkspace:
		dec := wire.NewDecoder(msg.Args)
		name, err := dec.String()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed create_workspace request")
		}
		h.workspaces.Create(name)
		return nil
	case workspaceGroupOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown ext_workspace_group_handle_v1 opcode %d", msg.Opcode)
	}
}

func (h *WorkspaceHandler) dispatchHandle(c *object.Client, r *object.Resource, msg *wire.Message) error {
	workspaceID, _ := r.Data.(uint32)
	switch msg.Opcode {
	case workspaceHandleOpActivate:
		h.workspaces.Activate(workspaceID)
		return nil
	case workspaceHandleOpDeactivate:
		h.workspaces.Deactivate(workspaceID)
		return nil
	case workspaceHandleOpRemove:
		h.workspaces.Remove(workspaceID)
		delete(h.handles, workspaceID)
		c.Unregister(r.ID)
		return nil
	case workspaceHandleOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown ext_workspace_handle_v1 opcode %d", msg.Opcode)
	}
}

// AlphaModifierHandler implements wp_alpha_modifier_v1 /
// wp_alpha_modifier_surface_v1 over a shared SurfaceStates registry, the
// per-surface state the scene aggregator reads for opacity instead of
// assuming every surface is fully opaque.
type AlphaModifierHandler struct {
	states *SurfaceStates
}

func NewAlphaModifierHandler(states *SurfaceStates) *AlphaModifierHandler {
	return &AlphaModifierHandler{states: states}
}

func (h *AlphaModifierHandler) Interface() string { return "wp_alpha_modifier_v1" }

func (h *AlphaModifierHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "wp_alpha_modifier_v1", version, nil)
}

func (h *AlphaModifierHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch r.Interface {
	case "wp_alpha_modifier_v1":
		return h.dispatchManager(c, r, msg)
	case "wp_alpha_modifier_surface_v1":
		return h.dispatchSurface(c, r, msg)
	default:
		return object.NewProtocolError(r.ID, 0, "alpha modifier handler got unexpected interface %q", r.Interface)
	}
}

func (h *AlphaModifierHandler) dispatchManager(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case alphaModifierManagerOpGetSurface:
		dec := wire.NewDecoder(msg.Args)
		newID, e1 := dec.NewID()
		surfaceID, e2 := dec.Object()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed get_surface request")
		}
		_, err := c.Register(uint32(newID), "wp_alpha_modifier_surface_v1", 1, uint32(surfaceID))
		return err
	case alphaModifierManagerOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wp_alpha_modifier_v1 opcode %d", msg.Opcode)
	}
}

func (h *AlphaModifierHandler) dispatchSurface(c *object.Client, r *object.Resource, msg *wire.Message) error {
	surfaceID, _ := r.Data.(uint32)
	switch msg.Opcode {
	case alphaModifierSurfaceOpSetMultiplier:
		dec := wire.NewDecoder(msg.Args)
		factor, err := dec.Uint32()
		if err != nil {
			return object.NewProtocolError(r.ID, 0, "malformed set_multiplier request")
		}
		h.states.Get(surfaceID).SetAlphaFixed(factor)
		return nil
	case alphaModifierSurfaceOpDestroy:
		h.states.Get(surfaceID).Alpha = 1.0
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wp_alpha_modifier_surface_v1 opcode %d", msg.Opcode)
	}
}

// PresentationHandler implements wp_presentation, the only caller of
// frame.Scheduler.QueuePresentationFeedback.
type PresentationHandler struct {
	scheduler *frame.Scheduler
}

func NewPresentationHandler(scheduler *frame.Scheduler) *PresentationHandler {
	return &PresentationHandler{scheduler: scheduler}
}

func (h *PresentationHandler) Interface() string { return "wp_presentation" }

func (h *PresentationHandler) Bind(c *object.Client, id uint32, version uint32) (*object.Resource, error) {
	return c.Register(id, "wp_presentation", version, nil)
}

func (h *PresentationHandler) Dispatch(c *object.Client, r *object.Resource, msg *wire.Message) error {
	switch msg.Opcode {
	case presentationOpFeedback:
		dec := wire.NewDecoder(msg.Args)
		_, e1 := dec.Object() // surface
		newID, e2 := dec.NewID()
		if e1 != nil || e2 != nil {
			return object.NewProtocolError(r.ID, 0, "malformed feedback request")
		}
		if _, err := c.Register(uint32(newID), "wp_presentation_feedback", 1, nil); err != nil {
			return err
		}
		h.scheduler.QueuePresentationFeedback(c, uint32(newID))
		return nil
	case presentationOpDestroy:
		c.Unregister(r.ID)
		return nil
	default:
		return object.NewProtocolError(r.ID, 0, "unknown wp_presentation opcode %d", msg.Opcode)
	}
}
