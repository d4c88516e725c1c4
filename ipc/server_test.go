//go:build linux

package ipc

import (
	"bufio"
	"net"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	windows []WindowSummary
	tree    string
}

func (f *fakeSource) Windows() []WindowSummary { return f.windows }
func (f *fakeSource) SceneTree() string        { return f.tree }

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	src := &fakeSource{
		windows: []WindowSummary{{ID: 1, Title: "term", W: 800, H: 600, SurfaceID: 7}},
		tree:    "scene: 1 node\n",
	}
	s := NewServer(dir, src, zerolog.Nop())
	if !s.Enabled {
		t.Fatal("expected ipc to be enabled for a short temp-dir path")
	}
	go s.Serve()
	t.Cleanup(s.Close)
	return s, s.socketPath
}

func sendCommand(t *testing.T, path, cmd string) string {
	t.Helper()
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return line
}

func TestPingReturnsPong(t *testing.T) {
	_, path := startTestServer(t)
	if got := sendCommand(t, path, "ping"); got != "pong\n" {
		t.Errorf("got %q, want pong", got)
	}
}

func TestVersionReturnsName(t *testing.T) {
	_, path := startTestServer(t)
	if got := sendCommand(t, path, "version"); got != version+"\n" {
		t.Errorf("got %q, want %q", got, version+"\n")
	}
}

func TestUnknownCommandReturnsError(t *testing.T) {
	_, path := startTestServer(t)
	if got := sendCommand(t, path, "bogus"); got != "error: unknown command\n" {
		t.Errorf("got %q", got)
	}
}

func TestOverlongPathDisablesIPC(t *testing.T) {
	longDir := "/tmp/" + strings.Repeat("x", maxSocketPathBytes)
	s := NewServer(longDir, &fakeSource{}, zerolog.Nop())
	if s.Enabled {
		t.Fatal("expected ipc disabled for an overlong socket path")
	}
}
