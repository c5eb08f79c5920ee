package order

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(name, price string, qty int) Item {
	return Item{Name: name, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestTotalIsExact(t *testing.T) {
	items := []Item{item("Samosa", "0.10", 1), item("Chai", "0.20", 1)}
	assert.True(t, Total(items).Equal(decimal.RequireFromString("0.30")))
	cents, err := MinorUnits(Total(items))
	require.NoError(t, err)
	assert.Equal(t, int64(30), cents)

	items = []Item{item("Biryani", "12.99", 2), item("Lassi", "3.50", 1)}
	assert.Equal(t, "29.48", Total(items).StringFixed(2))
	cents, err = MinorUnits(Total(items))
	require.NoError(t, err)
	assert.Equal(t, int64(2948), cents)
}

func TestMinorUnitsRounding(t *testing.T) {
	cents, err := MinorUnits(decimal.RequireFromString("9.995"))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cents)

	cents, err = MinorUnits(decimal.Zero)
	require.NoError(t, err)
	assert.Zero(t, cents)
}

func TestMinorUnitsRejectsAmountsBeyondInt64Cents(t *testing.T) {
	total := Total([]Item{item("Feast", "184467440737095516.17", 1)})
	_, err := MinorUnits(total)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = MinorUnits(decimal.RequireFromString("92233720368547758.08"))
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	cents, err := MinorUnits(decimal.RequireFromString("92233720368547758.07"))
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775807), cents)
}

func TestHugeExponentsAreRejectedWithoutRescaling(t *testing.T) {
	var price decimal.Decimal
	require.NoError(t, price.UnmarshalJSON([]byte("1e30000000")))

	start := time.Now()
	_, err := MinorUnits(price)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	vErr := Validate([]Item{{Name: "Dal", Price: price, Quantity: 1}}, Customer{Name: "Asha", Phone: "+15551234567"})
	require.Error(t, vErr)
	assert.Contains(t, vErr.Error(), "out of range")

	require.NoError(t, price.UnmarshalJSON([]byte("1e-30000000")))
	assert.Error(t, Validate([]Item{{Name: "Dal", Price: price, Quantity: 1}}, Customer{Name: "Asha", Phone: "+15551234567"}))

	assert.Less(t, time.Since(start), time.Second)
}

func TestValidate(t *testing.T) {
	ok := []Item{item("Dal", "8.00", 1)}
	cust := Customer{Name: "Asha", Phone: "+15551234567"}
	require.NoError(t, Validate(ok, cust))

	cases := []struct {
		name  string
		items []Item
		cust  Customer
		field string
	}{
		{"missing name", ok, Customer{Phone: "+1555"}, "customerDetails.name"},
		{"missing phone", ok, Customer{Name: "Asha"}, "customerDetails.phone"},
		{"no items", nil, cust, "orderItems"},
		{"zero quantity", []Item{item("Dal", "8.00", 0)}, cust, "orderItems[0].quantity"},
		{"negative price", []Item{item("Dal", "-1", 1)}, cust, "orderItems[0].price"},
		{"blank item name", []Item{item(" ", "1", 1)}, cust, "orderItems[0].name"},
		{"fractional cents", []Item{item("Dal", "8.005", 1)}, cust, "orderItems[0].price"},
		{"price above limit", []Item{item("Dal", "10000.01", 1)}, cust, "orderItems[0].price"},
		{"price beyond int64 cents", []Item{item("Dal", "184467440737095516.17", 1)}, cust, "orderItems[0].price"},
		{"total above limit", []Item{item("Dal", "9999.99", 11)}, cust, "orderItems"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.items, tc.cust)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestNewCopiesItems(t *testing.T) {
	items := []Item{item("Dal", "8.00", 1)}
	o, err := New("ORD12345678", items, Customer{Name: "Asha", Phone: "+15551234567"}, "pay-1")
	require.NoError(t, err)
	items[0].Quantity = 99

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, "8.00", o.Total.StringFixed(2))

	c := o.Clone()
	c.Items[0].Name = "changed"
	assert.Equal(t, "Dal", o.Items[0].Name)
}

func TestTransitionTo(t *testing.T) {
	newOrder := func() *Order {
		o, err := New("ORD1", []Item{item("Dal", "8", 1)}, Customer{Name: "A", Phone: "+1"}, "p")
		require.NoError(t, err)
		return o
	}

	o := newOrder()
	for _, next := range []Status{StatusInProgress, StatusReady, StatusDelivered} {
		changed, err := o.TransitionTo(next)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, next, o.Status)
	}

	changed, err := o.TransitionTo(StatusDelivered)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = o.TransitionTo(StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	o = newOrder()
	_, err = o.TransitionTo(StatusReady)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, StatusPlaced, o.Status)

	changed, err = o.TransitionTo(StatusCancelled)
	require.NoError(t, err)
	assert.True(t, changed)
	_, err = o.TransitionTo(StatusInProgress)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	_, err = newOrder().TransitionTo(Status("teleported"))
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, st)
	assert.True(t, StatusCancelled.Terminal())

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
