// Package changefeed is the in-process change-notification hub. Every
// committed mutation publishes a table-change event; the presentation layer
// subscribes and re-reads through the query surface instead of polling.
//
// Events are hints, not data: an event says "this table changed for this
// cadence/period", never what changed. Subscribers that fall behind lose
// events, which is harmless — a dropped hint means a refresh is already
// pending for them.
package changefeed

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Table identifies which record table changed.
type Table string

const (
	TableCadences   Table = "cadences"
	TablePeriods    Table = "periods"
	TableRoutes     Table = "routes"
	TableRefuelings Table = "refuelings"
	TableExpenses   Table = "expenses"
	TableCouplings  Table = "couplings"
)

// Op names the kind of mutation.
type Op string

const (
	OpInsert   Op = "insert"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpRollover Op = "rollover"
	OpClose    Op = "close"
)

// Event is one change notification.
type Event struct {
	ID        string    `json:"id"`
	Table     Table     `json:"table"`
	Op        Op        `json:"op"`
	CadenceID int64     `json:"cadence_id,omitempty"`
	PeriodID  int64     `json:"period_id,omitempty"`
	At        time.Time `json:"at"`
}

// Hub fans events out to subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	buffer int
}

// NewHub creates a hub. Each subscriber gets a buffer of 16 pending events.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event), buffer: 16}
}

// Publish assigns the event an ID and timestamp and delivers it to every
// subscriber without blocking the writer.
func (h *Hub) Publish(e Event) Event {
	e.ID = uuid.NewString()
	e.At = time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default: // subscriber is behind; it will refresh on its next event
		}
	}
	return e
}

// Subscribe registers a new subscriber. The returned cancel function must be
// called to release the subscription.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.buffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
