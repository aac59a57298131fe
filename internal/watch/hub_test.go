package watch

import "testing"

func TestPublishReachesAllSubscribers(t *testing.T) {
	t.Parallel()

	h := NewHub()
	a, unsubA := h.Subscribe()
	b, unsubB := h.Subscribe()
	defer unsubA()
	defer unsubB()

	want := Change{Topic: TopicEvents, Op: OpCreated, ID: "e1"}
	h.Publish(want)

	for name, ch := range map[string]<-chan Change{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got != want {
				t.Fatalf("%s got %+v, want %+v", name, got, want)
			}
		default:
			t.Fatalf("%s did not receive change", name)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	h := NewHub()
	ch, unsub := h.Subscribe()
	unsub()
	unsub()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	if h.Len() != 0 {
		t.Fatalf("Len = %d, want 0", h.Len())
	}
	// Publishing after unsubscribe must not panic on the closed channel.
	h.Publish(Change{Topic: TopicNotifications, Op: OpDeleted, ID: "n1"})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	h := NewHub()
	ch, unsub := h.Subscribe()
	defer unsub()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish(Change{Topic: TopicEvents, Op: OpUpdated, ID: "e"})
	}
	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("buffered = %d, want %d", got, subscriberBuffer)
	}
}

func TestNilHubPublishIsNoop(t *testing.T) {
	t.Parallel()

	var h *Hub
	h.Publish(Change{Topic: TopicEvents, Op: OpCreated, ID: "x"})
}
