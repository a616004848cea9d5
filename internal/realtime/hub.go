// Package realtime fans row-level change notifications out to subscribers.
// Subscriptions are keyed by table + single column equality + event type,
// matching what the change-feed transport can filter on; a consumer that
// needs "either column" holds one subscription per column.
package realtime

import (
	"log"
	"sync"
)

// EventType is the row operation a subscription listens for
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
)

// Event is a single row-level change notification
type Event struct {
	Table   string      `json:"table"`
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// Filter selects the events a subscription receives. Only one equality
// predicate per subscription; an OR across columns cannot be expressed.
type Filter struct {
	Table  string    `json:"table"`
	Column string    `json:"column"`
	Value  string    `json:"value"`
	Type   EventType `json:"type"`
}

// Subscription is one registered filter and its delivery channel
type Subscription struct {
	Filter Filter
	C      chan Event
	id     uint64
}

// Hub routes published events to matching subscriptions
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers a filter and returns its subscription. The channel
// buffer absorbs bursts; events beyond it are dropped for that subscriber.
func (h *Hub) Subscribe(f Filter, buffer int) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		Filter: f,
		C:      make(chan Event, buffer),
		id:     h.nextID,
	}
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe releases the subscription slot and closes its channel.
// Subscribers must release every channel they hold; a leaked subscription
// keeps consuming a slot until process exit.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.C)
}

// Publish delivers the event to every subscription whose filter matches
// the given column values. Delivery never blocks the publisher.
func (h *Hub) Publish(table string, typ EventType, columns map[string]string, payload interface{}) {
	event := Event{Table: table, Type: typ, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		f := sub.Filter
		if f.Table != table || f.Type != typ {
			continue
		}
		if columns[f.Column] != f.Value {
			continue
		}
		select {
		case sub.C <- event:
		default:
			log.Printf("realtime: dropping %s/%s event for slow subscriber %s=%s", table, typ, f.Column, f.Value)
		}
	}
}

// SubscriberCount reports the number of live subscription slots
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
