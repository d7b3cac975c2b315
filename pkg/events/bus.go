package events

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls further behind than this loses events rather than blocking
// the publishing pipeline.
const subscriberBuffer = 64

// Bus is an in-process publish/subscribe broker for pipeline events.
// One Bus per process; channels are named per session. Publishing never
// blocks: slow subscribers drop events.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan Event // channel name -> sub id -> chan
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[string]chan Event)}
}

// Subscribe registers a subscriber on a channel. The returned cancel
// function unsubscribes and closes the event channel; it is safe to
// call more than once.
func (b *Bus) Subscribe(channel string) (<-chan Event, func()) {
	id := uuid.New().String()
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[string]chan Event)
	}
	b.subs[channel][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			// Close under the write lock: Publish holds the read lock for
			// its whole send loop, so no send can race the close.
			b.mu.Lock()
			if chans, ok := b.subs[channel]; ok {
				delete(chans, id)
				if len(chans) == 0 {
					delete(b.subs, channel)
				}
			}
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of a channel.
// Best-effort per subscriber: a full buffer drops the event with a
// warning instead of stalling the pipeline.
func (b *Bus) Publish(channel string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs[channel] {
		select {
		case ch <- event:
		default:
			slog.Warn("Dropping event for slow subscriber",
				"channel", channel, "subscriber", id, "event_type", event.Type)
		}
	}
}

// SubscriberCount returns the number of subscribers on a channel.
func (b *Bus) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}
