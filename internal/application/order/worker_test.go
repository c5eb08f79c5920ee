package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/homeflavors/internal/domain/outbox"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/memory"
)

type captureSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (c *captureSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if c.handlers == nil {
		c.handlers = make(map[string]domoutbox.Handler)
	}
	c.handlers[name] = h
}

type otherEvent struct{}

func (otherEvent) EventName() string { return "order.placed" }

func TestRecordOrderWorkerSavesPlacedOrder(t *testing.T) {
	repo := memory.NewOrderRepository()
	sub := &captureSubscriber{}
	NewRecordOrderWorker(repo, nil).Start(sub)

	h, ok := sub.handlers["order.placed"]
	require.True(t, ok)

	evt := domain.NewPlacedEvent("ORD55555555", "pay_5",
		[]domain.Item{{Name: "Chana Masala", Price: decimal.RequireFromString("10.25"), Quantity: 2}},
		domain.Customer{Name: "Sam", Phone: "+15551230000"},
	)
	require.NoError(t, h(context.Background(), evt))
	require.NoError(t, h(context.Background(), evt))

	o, err := repo.FindByNumber(context.Background(), "ORD55555555")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaced, o.Status)
	assert.Equal(t, "20.50", o.Total.StringFixed(2))
	assert.Equal(t, evt.OccurredAt, o.CreatedAt)

	assert.NoError(t, h(context.Background(), otherEvent{}))
}
