package events

import "testing"

func TestDrainReturnsAndClearsQueue(t *testing.T) {
	q := NewQueue()
	q.Push(CompositorEvent{Kind: WindowCreated, WindowID: 1})
	q.Push(CompositorEvent{Kind: FocusChanged, ClientID: 2})

	got := q.Drain()
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if len(q.Drain()) != 0 {
		t.Fatal("expected empty queue after drain")
	}
}

func TestPushDropsOldestAtCapacity(t *testing.T) {
	q := NewQueue()
	q.capacity = 2
	q.Push(CompositorEvent{Kind: WindowCreated, WindowID: 1})
	q.Push(CompositorEvent{Kind: WindowCreated, WindowID: 2})
	q.Push(CompositorEvent{Kind: WindowCreated, WindowID: 3})

	got := q.Drain()
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].WindowID != 2 || got[1].WindowID != 3 {
		t.Fatalf("expected the oldest event dropped, got %+v", got)
	}
	if q.Dropped() != 1 {
		t.Fatalf("dropped count = %d, want 1", q.Dropped())
	}
}
