package engine

import (
	"sync"
	"time"

	"github.com/orcvnrln/papersim/internal/types"
)

// EventType enumerates the engine's notification kinds.
type EventType string

const (
	EventOrderPlaced    EventType = "order_placed"
	EventOrderFilled    EventType = "order_filled"
	EventOrderRejected  EventType = "order_rejected"
	EventOrderCancelled EventType = "order_cancelled"
	EventTradeClosed    EventType = "trade_closed"
	EventPricesUpdated  EventType = "prices_updated"
	EventStarted        EventType = "started"
	EventStopped        EventType = "stopped"
	EventReset          EventType = "reset"
)

// Event carries a snapshot of the entity it refers to. The Order and
// Trade pointers are copies; subscribers may retain them freely.
type Event struct {
	Type      EventType          `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Order     *types.Order       `json:"order,omitempty"`
	Trade     *types.Trade       `json:"trade,omitempty"`
	Prices    map[string]float64 `json:"prices,omitempty"`
	Equity    float64            `json:"equity,omitempty"`
}

// Subscriber receives engine events. Dispatch is synchronous and
// ordered; subscribers must not call back into the engine.
type Subscriber func(Event)

type eventBus struct {
	mu   sync.RWMutex
	subs []Subscriber
}

func (b *eventBus) subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
}

func (b *eventBus) publish(events []Event) {
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, ev := range events {
		for _, sub := range subs {
			sub(ev)
		}
	}
}

func orderEvent(t EventType, o *types.Order) Event {
	cp := *o
	return Event{Type: t, Timestamp: time.Now(), Order: &cp}
}

func tradeEvent(t *types.Trade) Event {
	cp := *t
	return Event{Type: EventTradeClosed, Timestamp: time.Now(), Trade: &cp}
}
