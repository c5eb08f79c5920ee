package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: already exists")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
	ErrUnknownStatus          = errors.New("order: unknown status")
)

// Item is the snapshot of a cart line taken at submission time.
type Item struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Customer holds the contact details supplied at checkout.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Order struct {
	Number    string
	Items     []Item
	Total     decimal.Decimal
	Customer  Customer
	PaymentID string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds a placed order from a paid submission. Items are copied so later
// mutations of the caller's slice do not leak into the record.
func New(number string, items []Item, customer Customer, paymentID string) (*Order, error) {
	if number == "" {
		return nil, &ValidationError{Field: "orderNumber", Reason: "is required"}
	}
	if err := Validate(items, customer); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Order{
		Number:    number,
		Items:     cloneItems(items),
		Total:     Total(items),
		Customer:  customer,
		PaymentID: paymentID,
		Status:    StatusPlaced,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = cloneItems(o.Items)
	return &c
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
