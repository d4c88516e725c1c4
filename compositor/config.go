package compositor

import (
	"os"

	"github.com/wawona-wm/wawona/shell"
)

// Config is the compositor's ambient configuration, read once at startup —
// a plain struct rather than a flags/env framework, matching the
// teacher's style of passing explicit parameters instead of reaching for
// a config package.
type Config struct {
	// DisplayName is the socket name under RuntimeDir, e.g. "wayland-0".
	// Empty means probe wayland-0 .. wayland-9 for the first free slot.
	DisplayName string
	// RuntimeDir overrides $XDG_RUNTIME_DIR; falls back to /tmp if both are empty.
	RuntimeDir string

	OutputWidth, OutputHeight int32
	OutputRefreshMilliHz      uint32

	DecorationPolicy shell.DecorationPolicy

	// DisableIPC skips starting the control IPC listener even if it would
	// otherwise bind successfully.
	DisableIPC bool
}

// DefaultConfig returns the configuration a bare `wawona` invocation would
// use: auto-picked display name, runtime dir from the environment, a
// 1920x1080@60 virtual output, and client-preferred decorations.
func DefaultConfig() Config {
	return Config{
		RuntimeDir:           os.Getenv("XDG_RUNTIME_DIR"),
		OutputWidth:          1920,
		OutputHeight:         1080,
		OutputRefreshMilliHz: 60000,
		DecorationPolicy:     shell.PolicyPreferClient,
	}
}
