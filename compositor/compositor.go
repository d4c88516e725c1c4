//go:build linux

package compositor

import (
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/wawona-wm/wawona/events"
	"github.com/wawona-wm/wawona/ext"
	"github.com/wawona-wm/wawona/frame"
	"github.com/wawona-wm/wawona/ipc"
	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/scene"
	"github.com/wawona-wm/wawona/seat"
	"github.com/wawona-wm/wawona/selection"
	"github.com/wawona-wm/wawona/shell"
	"github.com/wawona-wm/wawona/surface"
	"github.com/wawona-wm/wawona/wire"
)

const (
	outputHandlerVersion      = 4
	shellHandlerVersion       = 6
	decorationHandlerVersion  = 1
	layerShellHandlerVersion  = 4
	seatHandlerVersion        = 8
	dataDeviceHandlerVersion  = 3
	primarySelectionVersion   = 1
	foreignToplevelVersion    = 1
	compositorHandlerVersion  = 6
	subcompositorHandlerVersion = 1
	shmHandlerVersion           = 1
	idleNotifierVersion         = 1
	sessionLockManagerVersion   = 1
	securityContextVersion      = 1
	workspaceManagerVersion     = 1
	alphaModifierVersion        = 1
	presentationVersion         = 1
	exportDMABUFVersion         = 1
	virtualPointerVersion       = 2
	virtualKeyboardVersion      = 1
	textInputVersion            = 1
	inputMethodVersion           = 2
)

// Compositor owns every component package's handler, the display socket,
// and the epoll-driven main loop tying them together.
type Compositor struct {
	log zerolog.Logger
	cfg Config

	manager *object.Manager
	listener *net.UnixListener
	socketPath string

	surfaceEngine *surface.Engine
	shellHandler  *shell.Handler
	seat          *seat.Seat
	selectionEngine *selection.Engine
	output        *frame.Output
	scheduler     *frame.Scheduler
	foreignToplevels *ext.ForeignToplevelList
	idle          *ext.IdleNotifier
	idleHandler   *ext.IdleHandler
	lock          *ext.SessionLock
	presentSeq    ext.PresentationSequence

	eventQueue *events.Queue
	scene      *scene.Scene
	state      *stateView

	ipcServer *ipc.Server

	epollFD int
	clients map[int]*object.Client // fd -> client, for epoll dispatch

	lastPresent time.Time
	stop        chan struct{}
}

// windowObserverAdapter forwards shell window lifecycle callbacks into the
// outbound event queue and the foreign-toplevel-list extension, without
// either of those packages needing to import shell.
type windowObserverAdapter struct {
	queue     *events.Queue
	toplevels *ext.ForeignToplevelList
}

func (a *windowObserverAdapter) WindowCreated(w *shell.Window) {
	a.queue.Push(events.CompositorEvent{Kind: events.WindowCreated, WindowID: w.ID, Title: w.Title, AppID: w.AppID})
	a.toplevels.WindowCreated(ext.ToplevelInfo{WindowID: w.ID, Title: w.Title, AppID: w.AppID})
}

func (a *windowObserverAdapter) WindowDestroyed(w *shell.Window) {
	a.queue.Push(events.CompositorEvent{Kind: events.WindowDestroyed, WindowID: w.ID})
	a.toplevels.WindowDestroyed(w.ID)
}

func (a *windowObserverAdapter) WindowGeometryChanged(w *shell.Window) {
	a.queue.Push(events.CompositorEvent{
		Kind: events.WindowGeometryChanged, WindowID: w.ID,
		X: w.Geometry.X, Y: w.Geometry.Y, W: w.Geometry.W, H: w.Geometry.H,
	})
}

// New wires every component package's handler into a fresh object.Manager
// and binds the display socket. It does not start serving — call Run.
func New(log zerolog.Logger, cfg Config) (*Compositor, error) {
	ln, path, err := bindDisplaySocket(cfg.RuntimeDir, cfg.DisplayName)
	if err != nil {
		return nil, err
	}

	manager := object.NewManager(log)

	output := frame.NewOutput(1, "WAWONA-1", frame.Mode{
		Width: cfg.OutputWidth, Height: cfg.OutputHeight, RefreshMilliHz: cfg.OutputRefreshMilliHz, Preferred: true,
	})

	surfaceEngine := surface.NewEngine(log)
	surfaceStates := ext.NewSurfaceStates()
	surfaceHandler := surface.NewSurfaceHandler(surfaceEngine, surfaceStates)

	eventQueue := events.NewQueue()
	foreignToplevels := ext.NewForeignToplevelList()
	observer := &windowObserverAdapter{queue: eventQueue, toplevels: foreignToplevels}

	outputGeometry := func() shell.Geometry {
		return shell.Geometry{X: 0, Y: output.UsableArea.Y, W: output.UsableArea.W, H: output.UsableArea.H}
	}
	shellHandler := shell.NewHandler(log, manager.Serials, outputGeometry, observer)
	decorationHandler := shell.NewDecorationHandler(shellHandler, cfg.DecorationPolicy)
	layerHandler := shell.NewLayerHandler(manager.Serials)

	sharedSeat := seat.New(manager.Serials)
	seatHandler := seat.NewHandler(log, sharedSeat)

	selectionEngine := selection.NewEngine(log, manager.Serials)
	primaryHandler := selection.NewPrimaryHandler(selectionEngine)

	shmHandler := surface.NewShmHandler(log)

	idleNotifier := ext.NewIdleNotifier()
	idleHandler := ext.NewIdleHandler(idleNotifier)
	sessionLock := ext.NewSessionLock()
	sessionLockHandler := ext.NewSessionLockHandler(sessionLock)
	securityContexts := ext.NewSecurityContexts()
	securityContextHandler := ext.NewSecurityContextHandler(securityContexts)
	workspaces := ext.NewWorkspaces()
	workspaceHandler := ext.NewWorkspaceHandler(workspaces)
	alphaModifierHandler := ext.NewAlphaModifierHandler(surfaceStates)

	sc := &scene.Scene{SurfaceStates: surfaceStates}
	scheduler := frame.NewScheduler(output)
	presentationHandler := ext.NewPresentationHandler(scheduler)

	wlrRegistries := ext.NewWLRRegistries()
	exportDMABUFHandler := ext.NewExportDMABUFManagerHandler(wlrRegistries)
	virtualPointerHandler := ext.NewVirtualPointerManagerHandler(wlrRegistries, seatHandler)
	virtualKeyboardHandler := ext.NewVirtualKeyboardManagerHandler(wlrRegistries, seatHandler)
	textInputRouter := ext.NewTextInputRouter()
	textInputCore := ext.NewTextInputHandler(textInputRouter)
	textInputManagerHandler := ext.NewTextInputManagerHandler(textInputCore)
	inputMethodManagerHandler := ext.NewInputMethodManagerHandler(textInputCore)

	surfaceEngine.OnCommit(func(s *surface.Surface, result surface.CommitResult) {
		c := manager.ClientByID(s.ClientID)
		if c != nil {
			scheduler.QueueFrameCallbacks(c, result.FiredCallbacks)
		}
	})

	manager.RegisterHandler(surfaceEngine, compositorHandlerVersion)
	manager.RegisterHandler(surfaceHandler, subcompositorHandlerVersion)
	manager.RegisterHandler(shellHandler, shellHandlerVersion)
	manager.RegisterHandler(decorationHandler, decorationHandlerVersion)
	manager.RegisterHandler(layerHandler, layerShellHandlerVersion)
	manager.RegisterHandler(seatHandler, seatHandlerVersion)
	manager.RegisterHandler(selectionEngine, dataDeviceHandlerVersion)
	manager.RegisterHandler(output, outputHandlerVersion)
	manager.RegisterHandler(foreignToplevels, foreignToplevelVersion)
	manager.RegisterHandler(primaryHandler, primarySelectionVersion)
	manager.RegisterHandler(shmHandler, shmHandlerVersion)
	manager.RegisterHandler(idleHandler, idleNotifierVersion)
	manager.RegisterHandler(sessionLockHandler, sessionLockManagerVersion)
	manager.RegisterHandler(securityContextHandler, securityContextVersion)
	manager.RegisterHandler(workspaceHandler, workspaceManagerVersion)
	manager.RegisterHandler(alphaModifierHandler, alphaModifierVersion)
	manager.RegisterHandler(presentationHandler, presentationVersion)
	manager.RegisterHandler(exportDMABUFHandler, exportDMABUFVersion)
	manager.RegisterHandler(virtualPointerHandler, virtualPointerVersion)
	manager.RegisterHandler(virtualKeyboardHandler, virtualKeyboardVersion)
	manager.RegisterHandler(textInputManagerHandler, textInputVersion)
	manager.RegisterHandler(inputMethodManagerHandler, inputMethodVersion)

	// Child interfaces a handler mints dynamically (get_toplevel,
	// create_source, bind-time offer events, ...) route by the resource's
	// own interface name, not the handler's root Interface() — each needs
	// its own entry alongside the root registration above.
	for _, iface := range []string{"xdg_positioner", "xdg_surface", "xdg_toplevel", "xdg_popup"} {
		manager.RegisterChildInterface(iface, shellHandler)
	}
	for _, iface := range []string{"wl_surface", "wl_region", "wl_subsurface"} {
		manager.RegisterChildInterface(iface, surfaceHandler)
	}
	manager.RegisterChildInterface("zxdg_toplevel_decoration_v1", decorationHandler)
	manager.RegisterChildInterface("zwlr_layer_surface_v1", layerHandler)
	for _, iface := range []string{"wl_pointer", "wl_keyboard", "wl_touch"} {
		manager.RegisterChildInterface(iface, seatHandler)
	}
	for _, iface := range []string{"wl_data_source", "wl_data_offer", "wl_data_device"} {
		manager.RegisterChildInterface(iface, selectionEngine)
	}
	for _, iface := range []string{"zwp_primary_selection_source_v1", "zwp_primary_selection_offer_v1", "zwp_primary_selection_device_v1"} {
		manager.RegisterChildInterface(iface, primaryHandler)
	}
	for _, iface := range []string{"wl_shm_pool", "wl_buffer"} {
		manager.RegisterChildInterface(iface, shmHandler)
	}
	manager.RegisterChildInterface("ext_idle_notification_v1", idleHandler)
	for _, iface := range []string{"ext_session_lock_v1", "ext_session_lock_surface_v1"} {
		manager.RegisterChildInterface(iface, sessionLockHandler)
	}
	manager.RegisterChildInterface("wp_security_context_v1", securityContextHandler)
	for _, iface := range []string{"ext_workspace_group_handle_v1", "ext_workspace_handle_v1"} {
		manager.RegisterChildInterface(iface, workspaceHandler)
	}
	manager.RegisterChildInterface("wp_alpha_modifier_surface_v1", alphaModifierHandler)
	manager.RegisterChildInterface("zwlr_export_dmabuf_frame_v1", exportDMABUFHandler)
	manager.RegisterChildInterface("zwlr_virtual_pointer_v1", virtualPointerHandler)
	manager.RegisterChildInterface("zwp_virtual_keyboard_v1", virtualKeyboardHandler)
	for _, iface := range []string{"zwp_text_input_v3", "zwp_input_method_v2"} {
		manager.RegisterChildInterface(iface, textInputManagerHandler)
	}

	state := &stateView{shell: shellHandler, scene: sc}

	var ipcServer *ipc.Server
	if !cfg.DisableIPC {
		ipcServer = ipc.NewServer(cfg.RuntimeDir, state, log)
	}

	epollFD, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	comp := &Compositor{
		log: log, cfg: cfg,
		manager: manager, listener: ln, socketPath: path,
		surfaceEngine: surfaceEngine, shellHandler: shellHandler,
		seat: sharedSeat, selectionEngine: selectionEngine,
		output: output, scheduler: scheduler, foreignToplevels: foreignToplevels,
		idle: idleNotifier, idleHandler: idleHandler, lock: sessionLock,
		eventQueue: eventQueue, scene: sc, state: state,
		ipcServer: ipcServer,
		epollFD:   epollFD,
		clients:   make(map[int]*object.Client),
		stop:      make(chan struct{}),
	}
	return comp, nil
}

// SocketPath returns the bound display socket's filesystem path.
func (c *Compositor) SocketPath() string { return c.socketPath }

// EventQueue returns the outbound event queue for the platform host to drain.
func (c *Compositor) EventQueue() *events.Queue { return c.eventQueue }

// Stop signals Run's main loop to exit after its current iteration.
func (c *Compositor) Stop() { close(c.stop) }

// Close releases the epoll fd, the display listener, and the IPC server.
func (c *Compositor) Close() {
	_ = unix.Close(c.epollFD)
	_ = c.listener.Close()
	if c.ipcServer != nil {
		c.ipcServer.Close()
	}
}

func epollAdd(epollFD, fd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	return unix.EpollCtl(epollFD, unix.EPOLL_CTL_ADD, fd, &ev)
}

func epollRemove(epollFD, fd int) {
	_ = unix.EpollCtl(epollFD, unix.EPOLL_CTL_DEL, fd, nil)
}

// Run starts serving: it accepts new client connections, dispatches ready
// client requests, and presents frames on the output's predicted vblank,
// until Stop is called. This is the single-threaded cooperative loop of
// spec §5 — dispatch, tick, flush, repeat.
func (c *Compositor) Run() error {
	lnFile, err := c.listener.File()
	if err != nil {
		return err
	}
	defer lnFile.Close()
	listenFD := int(lnFile.Fd())
	if err := epollAdd(c.epollFD, listenFD); err != nil {
		return err
	}

	if c.ipcServer != nil {
		go c.ipcServer.Serve()
	}

	readyEvents := make([]unix.EpollEvent, 64)
	for {
		select {
		case <-c.stop:
			return nil
		default:
		}

		timeout := c.nextTimeoutMillis()
		n, err := unix.EpollWait(c.epollFD, readyEvents, timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}

		for i := 0; i < n; i++ {
			fd := int(readyEvents[i].Fd)
			if fd == listenFD {
				c.acceptOne()
				continue
			}
			c.dispatchReady(fd)
		}

		c.tick()
	}
}

func (c *Compositor) nextTimeoutMillis() int {
	now := time.Now()
	next := c.output.Clock.NextVBlank(now)
	d := next.Sub(now)
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms > 1000 {
		ms = 1000
	}
	return int(ms)
}

func (c *Compositor) acceptOne() {
	conn, err := c.listener.AcceptUnix()
	if err != nil {
		c.log.Warn().Err(err).Msg("accept failed")
		return
	}
	wc, err := wire.NewConn(conn)
	if err != nil {
		c.log.Warn().Err(err).Msg("wrap connection failed")
		_ = conn.Close()
		return
	}
	client := c.manager.Accept(wc)
	c.clients[wc.Fd()] = client
	if err := epollAdd(c.epollFD, wc.Fd()); err != nil {
		c.log.Warn().Err(err).Msg("epoll add failed")
	}
}

func (c *Compositor) dispatchReady(fd int) {
	client, ok := c.clients[fd]
	if !ok {
		return
	}
	if err := c.manager.DispatchOne(client); err != nil {
		epollRemove(c.epollFD, fd)
		delete(c.clients, fd)
		c.manager.Disconnect(client)
		return
	}
	if resumed := c.idle.NotifyInput(time.Now()); len(resumed) > 0 {
		c.idleHandler.NotifyResumed(resumed)
	}
}

// tick advances the frame clock, reports newly-idle subscriptions, keeps
// the scene's lock-surface visibility in sync with session-lock state,
// and presents queued frame callbacks and presentation feedback once a
// full refresh interval has elapsed since the last presented frame.
func (c *Compositor) tick() {
	now := time.Now()

	if idled := c.idle.Tick(now); len(idled) > 0 {
		c.idleHandler.NotifyIdled(idled)
	}
	c.scene.LockActive = c.lock.IsLocked()

	if !c.lastPresent.IsZero() && now.Sub(c.lastPresent) < c.output.Clock.RefreshInterval() {
		return
	}
	c.output.Clock.UpdateVBlank(now, c.cfg.OutputRefreshMilliHz)
	c.lastPresent = now
	c.scheduler.Present(now, c.presentSeq.Next())
}
