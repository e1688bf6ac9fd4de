package hooks

import (
	"sync"

	"github.com/rxtech-lab/swapit-router/internal/models"
	"github.com/rxtech-lab/swapit-router/internal/services"
)

const subscriberBuffer = 64

// EventStreamHook fans SwapExecuted events out to live subscribers such as the /api/events stream.
// A subscriber whose buffer is full misses the event instead of blocking the swap path.
type EventStreamHook struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]chan models.SwapExecuted
}

// CanHandle implements Hook.
func (h *EventStreamHook) CanHandle(kind models.SwapKind) bool {
	return true
}

// OnSwapExecuted implements Hook.
func (h *EventStreamHook) OnSwapExecuted(event models.SwapExecuted) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of future events and a function that closes it
func (h *EventStreamHook) Subscribe() (<-chan models.SwapExecuted, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan models.SwapExecuted, subscriberBuffer)
	h.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers, id)
			close(ch)
		})
	}
}

// Subscribers returns the number of open subscriptions
func (h *EventStreamHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func NewEventStreamHook() *EventStreamHook {
	return &EventStreamHook{
		subscribers: make(map[int]chan models.SwapExecuted),
	}
}

var _ services.Hook = (*EventStreamHook)(nil)
