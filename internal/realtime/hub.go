package realtime

import (
	"sync"

	"github.com/Skotchmaster/quickcommerce/internal/transport"
)

const watcherBuffer = 16

// Hub fans rider positions out to the watchers of that rider. Slow watchers
// lose positions instead of blocking the publisher.
type Hub struct {
	mu       sync.RWMutex
	watchers map[uint]map[chan transport.Position]struct{}
}

func NewHub() *Hub {
	return &Hub{watchers: make(map[uint]map[chan transport.Position]struct{})}
}

// Subscribe registers a watcher for riderID. The returned cancel func must be
// called once; it closes the channel.
func (h *Hub) Subscribe(riderID uint) (<-chan transport.Position, func()) {
	ch := make(chan transport.Position, watcherBuffer)

	h.mu.Lock()
	set, ok := h.watchers[riderID]
	if !ok {
		set = make(map[chan transport.Position]struct{})
		h.watchers[riderID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(set, ch)
			if len(set) == 0 {
				delete(h.watchers, riderID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(p transport.Position) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.watchers[p.RiderID] {
		select {
		case ch <- p:
		default:
		}
	}
}

func (h *Hub) Watchers(riderID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[riderID])
}
