package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
)

// OrderRepository keeps order records in process memory. Records are lost on
// restart; ORDER_STORE_DSN switches main to the Postgres store.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

var _ domain.Repository = (*OrderRepository)(nil)

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.Number == "" {
		return fmt.Errorf("order repository: number is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.Number]; exists {
		return domain.ErrConflict
	}
	r.orders[order.Number] = order.Clone()
	return nil
}

func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[number]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order, from domain.Status) error {
	_ = ctx
	if order == nil || order.Number == "" {
		return fmt.Errorf("order repository: number is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.orders[order.Number]
	if !exists {
		return domain.ErrNotFound
	}
	if stored.Status != from {
		return domain.ErrConflict
	}
	r.orders[order.Number] = order.Clone()
	return nil
}
