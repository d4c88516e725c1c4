//go:build linux

package compositor

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// bindDisplaySocket binds the Wayland display socket at
// $XDG_RUNTIME_DIR/<name>-<n>.sock style naming: <runtimeDir>/<name>,
// probing wayland-0..wayland-9 when name is empty, falling back to /tmp
// when runtimeDir is empty (spec §4.A "Listens on a display socket in the
// runtime directory").
func bindDisplaySocket(runtimeDir, name string) (*net.UnixListener, string, error) {
	if runtimeDir == "" {
		runtimeDir = "/tmp"
	}
	if err := os.MkdirAll(runtimeDir, 0o700); err != nil {
		return nil, "", fmt.Errorf("compositor: runtime dir %s: %w", runtimeDir, err)
	}

	if name != "" {
		ln, path, err := tryBind(runtimeDir, name)
		if err != nil {
			return nil, "", err
		}
		return ln, path, nil
	}

	var lastErr error
	for n := 0; n < 10; n++ {
		candidate := fmt.Sprintf("wayland-%d", n)
		ln, path, err := tryBind(runtimeDir, candidate)
		if err == nil {
			return ln, path, nil
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("compositor: no free display socket in %s: %w", runtimeDir, lastErr)
}

func tryBind(runtimeDir, name string) (*net.UnixListener, string, error) {
	path := filepath.Join(runtimeDir, name)
	lockPath := path + ".lock"

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, "", fmt.Errorf("socket %s already in use", name)
	}
	_ = lockFile.Close()

	_ = os.Remove(path)
	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		_ = os.Remove(lockPath)
		return nil, "", err
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		_ = os.Remove(lockPath)
		return nil, "", err
	}
	return ln, path, nil
}
