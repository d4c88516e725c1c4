//go:build linux

package compositor

import (
	"os"
	"testing"

	"github.com/wawona-wm/wawona/shell"
)

func TestDefaultConfigProducesAVirtualOutput(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.OutputWidth <= 0 || cfg.OutputHeight <= 0 {
		t.Fatalf("expected a positive output size, got %dx%d", cfg.OutputWidth, cfg.OutputHeight)
	}
	if cfg.OutputRefreshMilliHz == 0 {
		t.Fatal("expected a non-zero refresh rate")
	}
	if cfg.DecorationPolicy != shell.PolicyPreferClient {
		t.Fatalf("expected client-preferred decorations by default, got %v", cfg.DecorationPolicy)
	}
}

func TestBindDisplaySocketProbesFirstFreeName(t *testing.T) {
	dir := t.TempDir()

	ln, path, err := bindDisplaySocket(dir, "")
	if err != nil {
		t.Fatalf("bindDisplaySocket: %v", err)
	}
	defer ln.Close()

	if got := path; got != dir+"/wayland-0" {
		t.Fatalf("expected first probe to claim wayland-0, got %s", got)
	}
	if _, err := os.Stat(dir + "/wayland-0.lock"); err != nil {
		t.Fatalf("expected a lock file to be created: %v", err)
	}
}

func TestBindDisplaySocketSkipsNamesAlreadyInUse(t *testing.T) {
	dir := t.TempDir()

	first, firstPath, err := bindDisplaySocket(dir, "")
	if err != nil {
		t.Fatalf("first bind: %v", err)
	}
	defer first.Close()

	second, secondPath, err := bindDisplaySocket(dir, "")
	if err != nil {
		t.Fatalf("second bind: %v", err)
	}
	defer second.Close()

	if firstPath == secondPath {
		t.Fatalf("expected distinct socket paths, got %s twice", firstPath)
	}
	if got := secondPath; got != dir+"/wayland-1" {
		t.Fatalf("expected second probe to claim wayland-1, got %s", got)
	}
}

func TestBindDisplaySocketHonorsExplicitName(t *testing.T) {
	dir := t.TempDir()

	ln, path, err := bindDisplaySocket(dir, "wayland-custom")
	if err != nil {
		t.Fatalf("bindDisplaySocket: %v", err)
	}
	defer ln.Close()

	if got := path; got != dir+"/wayland-custom" {
		t.Fatalf("expected explicit name to be honored, got %s", got)
	}
}
