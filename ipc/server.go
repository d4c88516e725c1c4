//go:build linux

package ipc

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// maxSocketPathBytes is a conservative sun_path limit shared across
// platforms (Linux's is 108; some sandboxed environments cap lower) —
// staying under it keeps the short "wwn.sock" name bindable everywhere
// the runtime directory itself fits.
const maxSocketPathBytes = 104

const version = "wawona 0.1.0"

// WindowSummary is the subset of window state the `windows` command
// reports, decoupled from the shell package to avoid a dependency cycle
// (ipc is wired in by the orchestrator, which imports everything).
type WindowSummary struct {
	ID        uint32
	Title     string
	X, Y, W, H int32
	SurfaceID uint32
}

// StateSource is whatever the orchestrator hands the IPC server read-only
// access to, taken under the compositor's reader lock (spec §5 Shared-
// resource policy: IPC introspection takes the reader, never the writer).
type StateSource interface {
	Windows() []WindowSummary
	SceneTree() string
}

// Server is the control IPC listener. A Server returned by NewServer with
// Enabled == false means binding failed and the caller should simply not call
// Serve — IPC is a diagnostic nicety, never a startup precondition.
type Server struct {
	log        zerolog.Logger
	source     StateSource
	socketPath string
	listener   *net.UnixListener
	Enabled    bool

	wg sync.WaitGroup
}

// NewServer binds the control socket at <runtimeDir>/wwn.sock. Any
// failure — path too long, bind error — disables IPC (a stale socket file
// from a previous run is removed first, not treated as a failure) and
// logs a warning; it never returns an error for the orchestrator to
// handle, matching spec §4.I "binding failures disable IPC silently."
func NewServer(runtimeDir string, source StateSource, log zerolog.Logger) *Server {
	if runtimeDir == "" {
		runtimeDir = "/tmp"
	}
	path := filepath.Join(runtimeDir, "wwn.sock")

	s := &Server{log: log, source: source, socketPath: path}

	if len(path) >= maxSocketPathBytes {
		log.Warn().Str("path", path).Int("bytes", len(path)).Msg("ipc socket path too long, ipc disabled")
		return s
	}

	_ = os.Remove(path) // clear a stale socket from a previous run

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		log.Warn().Err(err).Msg("ipc resolve failed, ipc disabled")
		return s
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ipc bind failed, ipc disabled")
		return s
	}

	s.listener = ln
	s.Enabled = true
	log.Info().Str("path", path).Msg("ipc listening")
	return s
}

// Serve accepts connections until the listener is closed. Intended to run
// on its own goroutine; each connection gets its own reader goroutine, per
// spec §5's confinement of the IPC listener to "one acceptor + one
// per-connection reader/writer."
func (s *Server) Serve() {
	if !s.Enabled {
		return
	}
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		cmd := strings.TrimSpace(reader.Text())
		resp := s.dispatch(cmd)
		if _, err := conn.Write([]byte(resp)); err != nil {
			s.log.Debug().Err(err).Msg("ipc write failed")
			return
		}
	}
}

func (s *Server) dispatch(cmd string) string {
	switch cmd {
	case "ping":
		return "pong\n"
	case "version":
		return version + "\n"
	case "windows":
		return s.renderWindows()
	case "tree":
		return s.source.SceneTree()
	default:
		return "error: unknown command\n"
	}
}

func (s *Server) renderWindows() string {
	windows := s.source.Windows()
	var b strings.Builder
	fmt.Fprintf(&b, "window count: %d\n", len(windows))
	for _, w := range windows {
		fmt.Fprintf(&b, "window %d: %q (%dx%d) - surface %d\n", w.ID, w.Title, w.W, w.H, w.SurfaceID)
	}
	return b.String()
}

// Close stops accepting connections, waits for in-flight handlers, and
// removes the socket file.
func (s *Server) Close() {
	if !s.Enabled {
		return
	}
	_ = s.listener.Close()
	s.wg.Wait()
	_ = os.Remove(s.socketPath)
}
