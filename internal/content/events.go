package content

import "sync"

// EventType classifies broadcast events.
type EventType string

// Event types.
const (
	EventToast    EventType = "toast"
	EventRefresh  EventType = "refresh"
	EventProgress EventType = "progress"
)

// Event is a change notification for open views.
type Event struct {
	Type       EventType `json:"type"`
	Collection string    `json:"collection,omitempty"`
	ID         string    `json:"id,omitempty"`
	Slot       string    `json:"slot,omitempty"`
	Percent    int       `json:"percent,omitempty"`
	Level      Level     `json:"level,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// Broadcaster fans events out to in-process subscribers. Slow subscribers
// miss events rather than block publishers.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Publish delivers event to every subscriber with buffer room.
func (b *Broadcaster) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel of events and a cancel func that closes it.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Notifier returns a Notifier publishing toasts for a collection.
func (b *Broadcaster) Notifier(collection string) Notifier {
	return &broadcastNotifier{b: b, collection: collection}
}

type broadcastNotifier struct {
	b          *Broadcaster
	collection string
}

func (n *broadcastNotifier) Success(msg string) {
	n.b.Publish(Event{Type: EventToast, Collection: n.collection, Level: LevelSuccess, Message: msg})
}

func (n *broadcastNotifier) Error(msg string) {
	n.b.Publish(Event{Type: EventToast, Collection: n.collection, Level: LevelError, Message: msg})
}
