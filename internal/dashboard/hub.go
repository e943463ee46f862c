package dashboard

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthianna/honeypot-dashboard-sub003/pkg/panel"
)

// Event is one panel state change as delivered to stream subscribers.
type Event struct {
	Panel    string         `json:"panel"`
	Snapshot panel.Snapshot `json:"snapshot"`
}

// hub fans panel events out to every connected stream client. Publishing
// never blocks: a subscriber that stops draining its channel misses events
// and the misses are counted.
type hub struct {
	logger *zap.Logger

	mu          sync.Mutex
	subscribers map[string]chan Event
	dropped     int
}

func newHub(logger *zap.Logger) *hub {
	return &hub{
		logger:      logger,
		subscribers: make(map[string]chan Event),
	}
}

func (h *hub) subscribe() (string, chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, 64)
	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()
	h.logger.Debug("stream subscriber connected", zap.String("subscriber", id))
	return id, ch
}

func (h *hub) unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	close(ch)
	h.logger.Debug("stream subscriber gone", zap.String("subscriber", id))
}

// publish delivers ev to every subscriber. Sends stay under the lock so a
// concurrent unsubscribe can never close a channel mid-send; they never
// block, a full subscriber just misses the event.
func (h *hub) publish(ev Event) {
	h.mu.Lock()
	dropped := 0
	for _, ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	h.dropped += dropped
	h.mu.Unlock()

	if dropped > 0 {
		h.logger.Debug("dropped events for slow subscribers",
			zap.String("panel", ev.Panel), zap.Int("dropped", dropped))
	}
}

func (h *hub) clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *hub) droppedEvents() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
