package takeover

import (
	"sync"

	"floorline/internal/ports"
)

// subscriberBuffer keeps publishes non-blocking; a subscriber that never
// drains simply misses notices (the server-side instance check remains
// authoritative).
const subscriberBuffer = 4

// Hub fans takeover notices out to the instances listening on a session.
// It is a latency optimization over the heartbeat round-trip, never the
// arbiter of ownership.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan ports.TakeoverNotice]struct{}
}

// Verify interface compliance at compile time
var _ ports.TakeoverNotifier = (*Hub)(nil)

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan ports.TakeoverNotice]struct{})}
}

// Subscribe registers interest in a session's takeover notices. The
// returned cancel function must be called when the listener goes away.
func (h *Hub) Subscribe(sessionID string) (<-chan ports.TakeoverNotice, func()) {
	ch := make(chan ports.TakeoverNotice, subscriberBuffer)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan ports.TakeoverNotice]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[sessionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// NotifyTakeover implements ports.TakeoverNotifier. Sends never block:
// a full subscriber drops the notice rather than stalling the ownership
// transaction.
func (h *Hub) NotifyTakeover(n ports.TakeoverNotice) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[n.SessionID] {
		select {
		case ch <- n:
		default:
		}
	}
}
