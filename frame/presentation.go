//go:build linux

package frame

import (
	"sync"
	"time"

	"github.com/wawona-wm/wawona/object"
	"github.com/wawona-wm/wawona/surface"
	"github.com/wawona-wm/wawona/wire"
)

const (
	callbackEventDone wire.Opcode = 0

	presentationFeedbackEventSyncOutput wire.Opcode = 0
	presentationFeedbackEventPresented  wire.Opcode = 1
	presentationFeedbackEventDiscarded  wire.Opcode = 2

	presentedKindVsync        uint32 = 0x1
	presentedKindHwClock      uint32 = 0x2
	presentedKindHwCompletion uint32 = 0x4
	presentedKindZeroCopy     uint32 = 0x8
)

// PacingHint selects how a surface wants its commit scheduled relative to
// the output's VBlank, per spec §9: FIFO (wait for the next VBlank, no
// tearing) takes precedence over a commit-timing target timestamp, which in
// turn takes precedence over a bare tearing hint (present as soon as ready).
type PacingHint int

const (
	PacingDefault PacingHint = iota
	PacingTearing
	PacingCommitTiming
	PacingFIFO
)

// ResolvePacing applies the FIFO > commit-timing > tearing precedence when a
// single commit carries more than one hint (a client shouldn't do this, but
// the protocol doesn't forbid it).
func ResolvePacing(hints ...PacingHint) PacingHint {
	best := PacingDefault
	for _, h := range hints {
		if h > best {
			best = h
		}
	}
	return best
}

type pendingFeedback struct {
	client   *object.Client
	objectID uint32
}

// Scheduler fires one-shot wl_callback.done events and wp_presentation
// feedback in lockstep with an Output's actual presented frames (spec
// §4.F), rather than on a fixed timer independent of real vblank timing.
type Scheduler struct {
	output *Output

	mu        sync.Mutex
	callbacks map[object.ClientID][]queuedCallback
	feedback  map[object.ClientID][]pendingFeedback
}

type queuedCallback struct {
	client *object.Client
	cb     surface.Callback
}

func NewScheduler(output *Output) *Scheduler {
	return &Scheduler{
		output:    output,
		callbacks: make(map[object.ClientID][]queuedCallback),
		feedback:  make(map[object.ClientID][]pendingFeedback),
	}
}

// QueueFrameCallbacks adopts the callbacks fired off a surface commit
// (surface.CommitResult.FiredCallbacks) to be resolved at the next
// presentation of this output.
func (s *Scheduler) QueueFrameCallbacks(c *object.Client, fired []surface.Callback) {
	if len(fired) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cb := range fired {
		s.callbacks[c.ID] = append(s.callbacks[c.ID], queuedCallback{client: c, cb: cb})
	}
}

// QueuePresentationFeedback registers a wp_presentation_feedback object
// created for a commit, to be resolved (presented or discarded) at the next
// Present call.
func (s *Scheduler) QueuePresentationFeedback(c *object.Client, objectID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[c.ID] = append(s.feedback[c.ID], pendingFeedback{client: c, objectID: objectID})
}

// Present fires every queued callback and feedback object as "presented" at
// the given timestamp and clears the queues. Feedback is resolved as
// discarded only through Discard, never here.
func (s *Scheduler) Present(now time.Time, seq uint64) {
	s.mu.Lock()
	callbacks := s.callbacks
	feedback := s.feedback
	s.callbacks = make(map[object.ClientID][]queuedCallback)
	s.feedback = make(map[object.ClientID][]pendingFeedback)
	s.mu.Unlock()

	ms := uint32(now.UnixMilli())
	for _, queued := range callbacks {
		for _, q := range queued {
			done := wire.NewMessageBuilder()
			done.PutUint32(ms)
			_ = q.client.Conn.Send(done.BuildMessage(wire.ObjectID(q.cb.ObjectID), callbackEventDone))
		}
	}

	sec := uint64(now.Unix())
	nsec := uint32(now.Nanosecond())
	refresh := uint32(s.output.Clock.RefreshInterval().Nanoseconds())
	for _, queued := range feedback {
		for _, fb := range queued {
			s.sendPresented(fb, sec, nsec, refresh, seq)
		}
	}
}

func (s *Scheduler) sendPresented(fb pendingFeedback, sec uint64, nsec, refresh uint32, seq uint64) {
	presented := wire.NewMessageBuilder()
	presented.PutUint32(uint32(sec >> 32))
	presented.PutUint32(uint32(sec))
	presented.PutUint32(nsec)
	presented.PutUint32(refresh)
	presented.PutUint32(uint32(seq >> 32))
	presented.PutUint32(uint32(seq))
	presented.PutUint32(presentedKindVsync | presentedKindHwClock)
	_ = fb.client.Conn.Send(presented.BuildMessage(wire.ObjectID(fb.objectID), presentationFeedbackEventPresented))
}

// Discard resolves every queued feedback object for a client as discarded
// instead of presented — used when a surface is destroyed or its buffer
// superseded before the frame it was queued for ever reaches the screen.
func (s *Scheduler) Discard(clientID object.ClientID) {
	s.mu.Lock()
	pending := s.feedback[clientID]
	delete(s.feedback, clientID)
	delete(s.callbacks, clientID)
	s.mu.Unlock()

	for _, fb := range pending {
		discarded := wire.NewMessageBuilder()
		_ = fb.client.Conn.Send(discarded.BuildMessage(wire.ObjectID(fb.objectID), presentationFeedbackEventDiscarded))
	}
}
