package menu

import (
	"context"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Available   *bool           `json:"available,omitempty"`
}

// IsAvailable treats a missing flag as available.
func (i Item) IsAvailable() bool {
	return i.Available == nil || *i.Available
}

type Category struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

type Repository interface {
	All(ctx context.Context) ([]Item, error)
}

// Group buckets items by category, keeping categories in first-seen order and
// items in source order within each category.
func Group(items []Item) []Category {
	index := make(map[string]int)
	out := make([]Category, 0)
	for _, it := range items {
		i, ok := index[it.Category]
		if !ok {
			i = len(out)
			index[it.Category] = i
			out = append(out, Category{Category: it.Category})
		}
		out[i].Items = append(out[i].Items, it)
	}
	return out
}
