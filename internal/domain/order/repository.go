package order

import "context"

type Repository interface {
	Save(ctx context.Context, order *Order) error
	FindByNumber(ctx context.Context, number string) (*Order, error)
	// Update stores order only while the stored status still equals from.
	// A record that moved on in the meantime yields ErrConflict.
	Update(ctx context.Context, order *Order, from Status) error
}
