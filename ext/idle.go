package ext

import (
	"sync"
	"time"
)

// IdleSubscription is one ext_idle_notification_v1: it fires `idled` once
// after timeout elapses with no input, and `resumed` on the next input
// event after that, per spec §4.H.
type IdleSubscription struct {
	ID        uint32
	Timeout   time.Duration
	lastInput time.Time
	idle      bool
}

// IdleNotifier tracks every subscription against a shared last-input
// timestamp, grounded on ext_idle_notify.rs's reset-on-any-input model.
type IdleNotifier struct {
	mu            sync.Mutex
	subscriptions map[uint32]*IdleSubscription
	lastInput     time.Time
}

func NewIdleNotifier() *IdleNotifier {
	return &IdleNotifier{subscriptions: make(map[uint32]*IdleSubscription)}
}

// Subscribe registers a new idle timer anchored to now.
func (n *IdleNotifier) Subscribe(id uint32, timeout time.Duration, now time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscriptions[id] = &IdleSubscription{ID: id, Timeout: timeout, lastInput: now}
	if n.lastInput.IsZero() {
		n.lastInput = now
	}
}

func (n *IdleNotifier) Unsubscribe(id uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subscriptions, id)
}

// NotifyInput resets every subscription's idle timer to now; any
// subscription that was idle transitions back to active and is reported
// in resumed for the caller to fire a `resumed` event against.
func (n *IdleNotifier) NotifyInput(now time.Time) (resumed []uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastInput = now
	for id, s := range n.subscriptions {
		s.lastInput = now
		if s.idle {
			s.idle = false
			resumed = append(resumed, id)
		}
	}
	return resumed
}

// Tick checks every subscription against now and returns the ids that
// just crossed into idle, for the caller to fire `idled` events against.
// Each subscription fires idled exactly once per idle period.
func (n *IdleNotifier) Tick(now time.Time) (idled []uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, s := range n.subscriptions {
		if !s.idle && now.Sub(s.lastInput) >= s.Timeout {
			s.idle = true
			idled = append(idled, id)
		}
	}
	return idled
}
