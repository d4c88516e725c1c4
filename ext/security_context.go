package ext

import (
	"sync"

	"github.com/google/uuid"
)

// SecurityContextData is the identity metadata one wp_security_context_v1
// object accumulates before Commit, per spec §4.H: "per accepted
// connection carries {sandbox_engine, app_id, instance_id}, committed
// exactly once." InstanceID is the one place in the compositor that uses
// an opaque globally-unique token instead of a sequential id, since it
// must be stable and unguessable across sandboxed re-launches.
type SecurityContextData struct {
	SandboxEngine string
	AppID         string
	InstanceID    string
	Committed     bool
}

// SecurityContexts tracks in-flight and committed security contexts
// keyed by their wp_security_context_v1 protocol object id.
type SecurityContexts struct {
	mu       sync.Mutex
	contexts map[uint32]*SecurityContextData
}

func NewSecurityContexts() *SecurityContexts {
	return &SecurityContexts{contexts: make(map[uint32]*SecurityContextData)}
}

// CreateListener registers a new, empty context for a freshly bound
// wp_security_context_v1 object and assigns it a fresh instance id.
func (s *SecurityContexts) CreateListener(objectID uint32) *SecurityContextData {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &SecurityContextData{InstanceID: uuid.NewString()}
	s.contexts[objectID] = d
	return d
}

func (s *SecurityContexts) SetSandboxEngine(objectID uint32, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.contexts[objectID]; ok {
		d.SandboxEngine = name
	}
}

func (s *SecurityContexts) SetAppID(objectID uint32, appID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.contexts[objectID]; ok {
		d.AppID = appID
	}
}

// Commit freezes the context; per spec it is committed exactly once —
// a second Commit call is a no-op rather than re-triggering side effects.
func (s *SecurityContexts) Commit(objectID uint32) (SecurityContextData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.contexts[objectID]
	if !ok || d.Committed {
		return SecurityContextData{}, false
	}
	d.Committed = true
	return *d, true
}

func (s *SecurityContexts) Destroy(objectID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, objectID)
}
