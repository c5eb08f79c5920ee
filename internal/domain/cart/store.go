package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/order"
)

// Storage persists cart lines between runs.
type Storage interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// Store is a Cart that writes through to Storage after every mutation.
type Store struct {
	mu      sync.Mutex
	cart    *Cart
	storage Storage
}

func Open(ctx context.Context, storage Storage) (*Store, error) {
	items, err := storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cart: load: %w", err)
	}
	return &Store{cart: New(items), storage: storage}, nil
}

func (s *Store) mutate(ctx context.Context, fn func(c *Cart)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := &Cart{items: s.cart.Items()}
	fn(next)
	if err := s.storage.Save(ctx, next.Items()); err != nil {
		return fmt.Errorf("cart: save: %w", err)
	}
	s.cart = next
	return nil
}

func (s *Store) Add(ctx context.Context, it Item) error {
	return s.mutate(ctx, func(c *Cart) { c.Add(it) })
}

func (s *Store) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, func(c *Cart) { c.Remove(id) })
}

func (s *Store) SetQuantity(ctx context.Context, id string, qty int) error {
	return s.mutate(ctx, func(c *Cart) { c.SetQuantity(id, qty) })
}

func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func(c *Cart) { c.Clear() })
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalItems()
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice()
}

func (s *Store) OrderItems() []order.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.OrderItems()
}
