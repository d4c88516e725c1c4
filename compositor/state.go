//go:build linux

package compositor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/wawona-wm/wawona/ipc"
	"github.com/wawona-wm/wawona/scene"
	"github.com/wawona-wm/wawona/shell"
)

// stateView adapts the compositor's live handlers to ipc.StateSource. The
// rwmutex it wraps is the single reader-writer lock spec §5 requires:
// the main loop holds the writer implicitly by being the only goroutine
// that mutates handler state; IPC introspection takes the reader.
type stateView struct {
	mu    sync.RWMutex
	shell *shell.Handler
	scene *scene.Scene
}

func (s *stateView) Windows() []ipc.WindowSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	windows := s.shell.Windows()
	out := make([]ipc.WindowSummary, 0, len(windows))
	for _, w := range windows {
		out = append(out, ipc.WindowSummary{
			ID:        w.ID,
			Title:     w.Title,
			X:         w.Geometry.X,
			Y:         w.Geometry.Y,
			W:         w.Geometry.W,
			H:         w.Geometry.H,
			SurfaceID: w.SurfaceID,
		})
	}
	return out
}

func (s *stateView) SceneTree() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.scene == nil {
		return "scene: empty\n"
	}
	nodes := s.scene.Compose()
	var b strings.Builder
	fmt.Fprintf(&b, "scene: %d nodes\n", len(nodes))
	for _, n := range nodes {
		fmt.Fprintf(&b, "  surface %d @ (%d,%d) scale %d opacity %.2f\n", n.SurfaceID, n.AbsX, n.AbsY, n.AbsScale, n.Opacity)
	}
	return b.String()
}

// Lock/Unlock let the main loop bracket a mutation pass so the reader
// above never observes a half-updated scene or window table.
func (s *stateView) Lock()   { s.mu.Lock() }
func (s *stateView) Unlock() { s.mu.Unlock() }
