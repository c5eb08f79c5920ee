package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	domain "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
)

const uniqueViolation = "23505"

// DBPool is the subset of *pgxpool.Pool the repository uses.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type OrderRepository struct {
	pool DBPool
}

var _ domain.Repository = (*OrderRepository)(nil)

func NewOrderRepository(pool DBPool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Save(ctx context.Context, o *domain.Order) error {
	if o == nil || o.Number == "" {
		return fmt.Errorf("order repository: number is required")
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (order_number, items, total, customer_name, customer_phone, payment_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, o.Number, items, o.Total.StringFixed(2), o.Customer.Name, o.Customer.Phone, o.PaymentID, string(o.Status), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var (
		o      domain.Order
		items  []byte
		total  string
		status string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT order_number, items, total::text, customer_name, customer_phone, payment_id, status, created_at, updated_at
		FROM orders
		WHERE order_number = $1
	`, number).Scan(&o.Number, &items, &total, &o.Customer.Name, &o.Customer.Phone, &o.PaymentID, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("decode total: %w", err)
	}
	o.Status = domain.Status(status)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}

// Update persists the mutable fields of an existing record, guarded on its
// previous status.
func (r *OrderRepository) Update(ctx context.Context, o *domain.Order, from domain.Status) error {
	if o == nil || o.Number == "" {
		return fmt.Errorf("order repository: number is required")
	}
	updated := o.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $2, payment_id = $3, updated_at = $4
		WHERE order_number = $1 AND status = $5
	`, o.Number, string(o.Status), o.PaymentID, updated, string(from))
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = r.pool.QueryRow(ctx, `SELECT status FROM orders WHERE order_number = $1`, o.Number).Scan(&current)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrNotFound
	case err != nil:
		return fmt.Errorf("update order: %w", err)
	default:
		return domain.ErrConflict
	}
}
