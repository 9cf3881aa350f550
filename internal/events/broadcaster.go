package events

import (
	"sync"
)

// Subscriber receives broadcast events.
type Subscriber chan Event

type broadcaster struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]struct{}
}

var hub = &broadcaster{
	subscribers: make(map[Subscriber]struct{}),
}

// Subscribe registers a buffered subscriber channel.
func Subscribe() Subscriber {
	ch := make(Subscriber, 64)
	hub.mu.Lock()
	hub.subscribers[ch] = struct{}{}
	hub.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
// Unsubscribing twice is a no-op.
func Unsubscribe(sub Subscriber) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, ok := hub.subscribers[sub]; !ok {
		return
	}
	delete(hub.subscribers, sub)
	close(sub)
}

// CloseAllSubscribers closes every subscriber channel. Called on shutdown.
func CloseAllSubscribers() {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for sub := range hub.subscribers {
		close(sub)
	}
	hub.subscribers = make(map[Subscriber]struct{})
}

// broadcast never blocks: a subscriber with a full buffer misses the event.
func broadcast(e Event) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for sub := range hub.subscribers {
		select {
		case sub <- e:
		default:
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func SubscriberCount() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscribers)
}

// RecentEvents returns the last n buffered events. n <= 0 returns all.
func RecentEvents(n int) []Event {
	all := buffer.Snapshot()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}
