// Package watch is the in-process change feed the presentation layer uses to
// react to store mutations without polling.
package watch

import "sync"

// Topic names the store a change came from.
type Topic string

const (
	TopicEvents        Topic = "events"
	TopicNotifications Topic = "notifications"
)

// Op is the kind of mutation.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change describes one mutation. ID is the event or notification ID.
type Change struct {
	Topic Topic
	Op    Op
	ID    string
}

const subscriberBuffer = 64

// Hub fans changes out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the change.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Change]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Change]struct{})}
}

// Subscribe registers a subscriber and returns its channel plus an
// unsubscribe function, which closes the channel and is safe to call twice.
func (h *Hub) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Publish sends c to every current subscriber. A nil Hub is a no-op so stores
// can run without a feed.
func (h *Hub) Publish(c Change) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- c:
		default:
			// drop if subscriber is slow
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
