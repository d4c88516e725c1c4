package ext

import (
	"testing"
	"time"
)

func TestIdleNotifierFiresIdledOnceThenResumedOnInput(t *testing.T) {
	n := NewIdleNotifier()
	base := time.Unix(0, 0)
	n.Subscribe(1, 5*time.Second, base)

	if idled := n.Tick(base.Add(4 * time.Second)); len(idled) != 0 {
		t.Fatalf("fired idle too early: %v", idled)
	}
	idled := n.Tick(base.Add(6 * time.Second))
	if len(idled) != 1 || idled[0] != 1 {
		t.Fatalf("expected subscription 1 to go idle, got %v", idled)
	}
	if idled := n.Tick(base.Add(7 * time.Second)); len(idled) != 0 {
		t.Fatalf("idled fired twice: %v", idled)
	}

	resumed := n.NotifyInput(base.Add(8 * time.Second))
	if len(resumed) != 1 || resumed[0] != 1 {
		t.Fatalf("expected resumed for subscription 1, got %v", resumed)
	}
}

func TestSessionLockUnlockIsOneWay(t *testing.T) {
	l := NewSessionLock()
	if l.IsLocked() {
		t.Fatal("should start unlocked")
	}
	l.Lock()
	if !l.IsLocked() {
		t.Fatal("should be locked")
	}
	l.AttachLockSurface(1, 42)
	if id, ok := l.SurfaceFor(1); !ok || id != 42 {
		t.Fatalf("got %d,%v", id, ok)
	}
	l.Unlock()
	if l.IsLocked() {
		t.Fatal("should no longer report locked after unlock")
	}
	if _, ok := l.SurfaceFor(1); ok {
		t.Fatal("lock surfaces should be cleared on unlock")
	}
}

func TestWorkspacesStageUntilCommit(t *testing.T) {
	w := NewWorkspaces()
	w.Create("editor")
	for _, ws := range w.workspaces {
		if ws.Name == "editor" {
			t.Fatal("workspace 'editor' visible before commit")
		}
	}
	before := w.Commit()
	found := false
	for _, ws := range before {
		if ws.Name == "editor" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected workspace 'editor' after commit, got %+v", before)
	}
}

func TestSecurityContextCommitExactlyOnce(t *testing.T) {
	s := NewSecurityContexts()
	s.CreateListener(1)
	s.SetSandboxEngine(1, "flatpak")
	s.SetAppID(1, "org.example.App")

	d, ok := s.Commit(1)
	if !ok || d.SandboxEngine != "flatpak" || d.AppID != "org.example.App" || d.InstanceID == "" {
		t.Fatalf("unexpected commit result: %+v, ok=%v", d, ok)
	}

	if _, ok := s.Commit(1); ok {
		t.Fatal("second commit should be rejected")
	}
}

func TestTextInputEnableActivatesInputMethodOnlyWhenFocused(t *testing.T) {
	r := NewTextInputRouter()
	r.Create(5)

	if activated := r.Enable(5); activated {
		t.Fatal("should not activate before focus")
	}
	r.SetFocus(5)
	if !r.method.Active {
		t.Fatal("expected active input method once focused on an enabled text-input")
	}

	r.SetFocus(0)
	if r.method.Active {
		t.Fatal("expected input method to deactivate when focus clears")
	}
}
