package selection

import "testing"

func TestNegotiatePrefersPreferredWhenInIntersection(t *testing.T) {
	got := Negotiate(ActionCopy|ActionMove, ActionCopy|ActionMove, ActionMove)
	if got != ActionMove {
		t.Errorf("got %v, want ActionMove", got)
	}
}

func TestNegotiateFallsBackToFirstOfCopyMoveAsk(t *testing.T) {
	got := Negotiate(ActionMove|ActionAsk, ActionMove|ActionAsk, ActionNone)
	if got != ActionMove {
		t.Errorf("got %v, want ActionMove", got)
	}
}

func TestNegotiateEmptyWhenDisjoint(t *testing.T) {
	got := Negotiate(ActionCopy, ActionMove, ActionNone)
	if got != ActionNone {
		t.Errorf("got %v, want ActionNone", got)
	}
}
