package host

import (
	"sync"
)

// EventKind enumerates host notifications.
type EventKind string

const (
	// EventChatChanged fires after the active chat switches; ChatGUID
	// carries the new chat's identifier.
	EventChatChanged EventKind = "chat_changed"
	// EventMessageAdded fires when a message is appended; Index is its position.
	EventMessageAdded EventKind = "message_added"
	// EventMessageDeleted fires when a message is removed; Index is the
	// position it occupied before the log reindexed.
	EventMessageDeleted EventKind = "message_deleted"
	// EventMessageEdited fires when a message body changes.
	EventMessageEdited EventKind = "message_edited"
	// EventMoreLoaded fires after a bulk history load.
	EventMoreLoaded EventKind = "more_loaded"
)

// Event is one host notification.
type Event struct {
	Kind     EventKind
	ChatGUID string
	Index    int
}

const subscriberBuffer = 64

type subscriber struct {
	kinds map[EventKind]bool
	ch    chan Event
}

// Bus fans host events out to subscribers. Delivery is non-blocking: a
// subscriber that stops draining its channel loses events rather than
// stalling the publisher.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscriber)}
}

// Subscribe registers interest in the given kinds (all kinds when empty) and
// returns the delivery channel plus a cancel function. Cancel closes the
// channel; it is safe to call more than once.
func (b *Bus) Subscribe(kinds ...EventKind) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscriber{ch: make(chan Event, subscriberBuffer)}
	if len(kinds) > 0 {
		sub.kinds = make(map[EventKind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if s, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(s.ch)
			}
			b.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Publish delivers an event to every matching subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if sub.kinds != nil && !sub.kinds[ev.Kind] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
