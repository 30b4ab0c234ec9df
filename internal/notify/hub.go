// Package notify pushes registration events to connected dashboards.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

const defaultBuffer = 16

type Event struct {
	Name string
	Data any
}

// Hub is a registry of subscriber channels. Broadcast never blocks: a
// subscriber whose buffer is full misses that event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	buffer int
	closed bool
	logger *zap.Logger
}

func NewHub(buffer int, logger ...*zap.Logger) *Hub {
	l := zap.L().Named("notify.hub")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notify.hub")
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[uint64]chan Event),
		buffer: buffer,
		logger: l,
	}
}

// Subscribe registers a new subscriber. The channel is closed by Unsubscribe
// or Close.
func (h *Hub) Subscribe() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return 0, ch
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = ch

	h.logger.Debug("subscriber added", zap.Uint64("subscriber_id", id), zap.Int("subscribers", len(h.subs)))
	return id, ch
}

func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(ch)

	h.logger.Debug("subscriber removed", zap.Uint64("subscriber_id", id), zap.Int("subscribers", len(h.subs)))
}

// Broadcast returns how many subscribers received the event.
func (h *Hub) Broadcast(name string, data any) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ev := Event{Name: name, Data: data}
	delivered := 0
	for id, ch := range h.subs {
		select {
		case ch <- ev:
			delivered++
		default:
			h.logger.Warn("subscriber buffer full, event dropped",
				zap.Uint64("subscriber_id", id),
				zap.String("event", name),
			)
		}
	}
	return delivered
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber; later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	h.closed = true
}
