package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlacedEvent is emitted once a submission has been charged.
// The order-record worker and the AMQP relay consume it.
type PlacedEvent struct {
	OrderNumber string          `json:"orderNumber"`
	PaymentID   string          `json:"paymentId"`
	Items       []Item          `json:"items"`
	Total       decimal.Decimal `json:"total"`
	Customer    Customer        `json:"customer"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

func (PlacedEvent) EventName() string { return "order.placed" }

func NewPlacedEvent(number, paymentID string, items []Item, customer Customer) PlacedEvent {
	return PlacedEvent{
		OrderNumber: number,
		PaymentID:   paymentID,
		Items:       cloneItems(items),
		Total:       Total(items),
		Customer:    customer,
		OccurredAt:  time.Now().UTC(),
	}
}

// StatusChangedEvent is emitted when an order moves to a new status.
type StatusChangedEvent struct {
	OrderNumber string    `json:"orderNumber"`
	From        Status    `json:"from"`
	To          Status    `json:"to"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func (StatusChangedEvent) EventName() string { return "order.status_changed" }

func NewStatusChangedEvent(o *Order, from Status) StatusChangedEvent {
	return StatusChangedEvent{
		OrderNumber: o.Number,
		From:        from,
		To:          o.Status,
		OccurredAt:  time.Now().UTC(),
	}
}
