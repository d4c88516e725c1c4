package ext

import "sync"

// WorkspaceInfo is one named virtual desktop (ext_workspace_handle_v1).
type WorkspaceInfo struct {
	ID     uint32
	Name   string
	Active bool
}

// Workspaces models a single workspace group with named workspaces, per
// spec §4.H: "a single group with named workspaces; activate/remove/commit."
// Activate/Remove are staged and only take effect on Commit, matching
// ext_workspace_manager_v1's request/commit/done cycle.
type Workspaces struct {
	mu        sync.Mutex
	workspaces map[uint32]*WorkspaceInfo
	nextID    uint32
	pending   []func(map[uint32]*WorkspaceInfo)
}

func NewWorkspaces() *Workspaces {
	w := &Workspaces{workspaces: make(map[uint32]*WorkspaceInfo), nextID: 1}
	w.workspaces[w.nextID] = &WorkspaceInfo{ID: w.nextID, Name: "default", Active: true}
	w.nextID++
	return w
}

// Create stages a new named workspace, applied on the next Commit.
func (w *Workspaces) Create(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	w.pending = append(w.pending, func(m map[uint32]*WorkspaceInfo) {
		m[id] = &WorkspaceInfo{ID: id, Name: name}
	})
}

// Activate stages activation of one workspace.
func (w *Workspaces) Activate(id uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, func(m map[uint32]*WorkspaceInfo) {
		if ws, ok := m[id]; ok {
			ws.Active = true
		}
	})
}

func (w *Workspaces) Deactivate(id uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, func(m map[uint32]*WorkspaceInfo) {
		if ws, ok := m[id]; ok {
			ws.Active = false
		}
	})
}

// Remove stages removal of one workspace.
func (w *Workspaces) Remove(id uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, func(m map[uint32]*WorkspaceInfo) {
		delete(m, id)
	})
}

// Commit applies every staged change in request order and returns the
// resulting workspace list, for the caller to send a `done` event against.
func (w *Workspaces) Commit() []WorkspaceInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, op := range w.pending {
		op(w.workspaces)
	}
	w.pending = nil

	out := make([]WorkspaceInfo, 0, len(w.workspaces))
	for _, ws := range w.workspaces {
		out = append(out, *ws)
	}
	return out
}
