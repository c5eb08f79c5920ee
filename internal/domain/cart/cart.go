package cart

import (
	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/order"
)

type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

// Cart is an ordered list of lines keyed by item id.
type Cart struct {
	items []Item
}

func New(items []Item) *Cart {
	c := &Cart{}
	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 {
			continue
		}
		c.items = append(c.items, it)
	}
	return c
}

// Add increments an existing line by one or appends a new line with quantity 1.
// Items without an id are ignored.
func (c *Cart) Add(it Item) {
	if it.ID == "" {
		return
	}
	for i := range c.items {
		if c.items[i].ID == it.ID {
			c.items[i].Quantity++
			return
		}
	}
	it.Quantity = 1
	c.items = append(c.items, it)
}

func (c *Cart) Remove(id string) {
	out := c.items[:0]
	for _, it := range c.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	c.items = out
}

// SetQuantity removes the line when qty < 1. Unknown ids are ignored.
func (c *Cart) SetQuantity(id string, qty int) {
	if qty < 1 {
		c.Remove(id)
		return
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) Clear() { c.items = nil }

func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) TotalPrice() decimal.Decimal {
	return order.Total(c.OrderItems())
}

// OrderItems snapshots the cart as submission lines.
func (c *Cart) OrderItems() []order.Item {
	out := make([]order.Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, order.Item{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	return out
}
