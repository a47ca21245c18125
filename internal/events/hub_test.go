package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubPublishDeliversInOrder(t *testing.T) {
	t.Parallel()
	h := NewHub(10)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(TypeCallStarted, map[string]string{"tool": "entity"})
	h.Publish(TypeCallCompleted, map[string]any{"ok": true})

	first := recvEvent(t, ch)
	if first.ID != 1 || first.Type != TypeCallStarted {
		t.Errorf("first event = id %d type %s, want 1 %s", first.ID, first.Type, TypeCallStarted)
	}
	var data map[string]string
	if err := json.Unmarshal(first.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data["tool"] != "entity" {
		t.Errorf("data tool = %q, want entity", data["tool"])
	}

	second := recvEvent(t, ch)
	if second.ID != 2 || second.Type != TypeCallCompleted {
		t.Errorf("second event = id %d type %s, want 2 %s", second.ID, second.Type, TypeCallCompleted)
	}
	if first.At.After(second.At) {
		t.Error("event timestamps out of order")
	}
}

func TestHubNilDataBecomesEmptyObject(t *testing.T) {
	t.Parallel()
	h := NewHub(10)
	h.Publish(TypeSessionState, nil)

	events := h.SnapshotSince(0)
	if len(events) != 1 {
		t.Fatalf("snapshot has %d events, want 1", len(events))
	}
	if string(events[0].Data) != "{}" {
		t.Errorf("data = %s, want {}", events[0].Data)
	}
}

func TestHubSnapshotSince(t *testing.T) {
	t.Parallel()
	h := NewHub(3)
	for i := 0; i < 5; i++ {
		h.Publish(TypeSweepRemoved, map[string]int{"n": i})
	}

	all := h.SnapshotSince(0)
	if len(all) != 3 {
		t.Fatalf("full snapshot has %d events, want ring capacity 3", len(all))
	}
	if all[0].ID != 3 || all[2].ID != 5 {
		t.Errorf("snapshot ids = %d..%d, want 3..5 oldest-first", all[0].ID, all[2].ID)
	}

	tail := h.SnapshotSince(4)
	if len(tail) != 1 || tail[0].ID != 5 {
		t.Fatalf("snapshot since 4 = %v, want just id 5", tail)
	}

	if got := h.SnapshotSince(5); len(got) != 0 {
		t.Errorf("snapshot since newest has %d events, want 0", len(got))
	}
}

func TestHubSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	t.Parallel()
	h := NewHub(10)
	_, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Nobody reads the subscription; publishing must still return.
		for i := 0; i < 500; i++ {
			h.Publish(TypeCallStarted, nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	t.Parallel()
	h := NewHub(10)
	ch, cancel := h.Subscribe()

	cancel()
	cancel() // Second cancel is a no-op.

	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}

	// Publishing after cancel must not panic on the removed subscriber.
	h.Publish(TypeSessionState, nil)
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}
