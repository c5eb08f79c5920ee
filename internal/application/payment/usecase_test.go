package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domorder "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/homeflavors/internal/domain/payment"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
)

type fakeGateway struct {
	chargeFn func(ctx context.Context, req dompayment.ChargeRequest) (dompayment.ChargeResult, error)
	calls    []dompayment.ChargeRequest
}

func (f *fakeGateway) Charge(ctx context.Context, req dompayment.ChargeRequest) (dompayment.ChargeResult, error) {
	f.calls = append(f.calls, req)
	return f.chargeFn(ctx, req)
}

func completed(id string) func(context.Context, dompayment.ChargeRequest) (dompayment.ChargeResult, error) {
	return func(context.Context, dompayment.ChargeRequest) (dompayment.ChargeResult, error) {
		return dompayment.ChargeResult{ID: id, Status: dompayment.StatusCompleted}, nil
	}
}

func TestChargeSendsCentsAndDerivedKey(t *testing.T) {
	gw := &fakeGateway{chargeFn: completed("pay_1")}
	uc := NewChargeUseCase(gw, observability.Nop())
	uc.now = func() time.Time { return time.UnixMilli(1700000000123) }

	res, err := uc.Execute(context.Background(), ChargeInput{
		OrderNumber: "ORD00000007",
		SourceToken: "cnon:ok",
		Amount:      decimal.RequireFromString("0.30"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_1", res.PaymentID)
	assert.Equal(t, "ORD00000007-1700000000123", res.IdempotencyKey)

	require.Len(t, gw.calls, 1)
	assert.Equal(t, int64(30), gw.calls[0].AmountMinor)
	assert.Equal(t, "USD", gw.calls[0].Currency)
	assert.Equal(t, "ORD00000007", gw.calls[0].ReferenceID)
}

func TestChargeKeepsCallerKey(t *testing.T) {
	gw := &fakeGateway{chargeFn: completed("pay_2")}
	res, err := NewChargeUseCase(gw, nil).Execute(context.Background(), ChargeInput{
		OrderNumber:    "ORD1",
		SourceToken:    "cnon:ok",
		Amount:         decimal.NewFromInt(5),
		IdempotencyKey: "client-key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "client-key-1", res.IdempotencyKey)
	assert.Equal(t, "client-key-1", gw.calls[0].IdempotencyKey)
}

func TestChargeValidation(t *testing.T) {
	gw := &fakeGateway{chargeFn: completed("x")}
	uc := NewChargeUseCase(gw, nil)

	_, err := uc.Execute(context.Background(), ChargeInput{Amount: decimal.NewFromInt(1)})
	var vErr *domorder.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "sourceId", vErr.Field)

	_, err = uc.Execute(context.Background(), ChargeInput{SourceToken: "t", Amount: decimal.RequireFromString("0.004")})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "total", vErr.Field)
	assert.Empty(t, gw.calls)
}

func TestChargeRefusesTotalsBeyondInt64Cents(t *testing.T) {
	gw := &fakeGateway{chargeFn: completed("x")}
	total := domorder.Total([]domorder.Item{{
		Name: "Feast", Price: decimal.RequireFromString("184467440737095516.17"), Quantity: 1,
	}})

	_, err := NewChargeUseCase(gw, nil).Execute(context.Background(), ChargeInput{
		OrderNumber: "ORD1",
		SourceToken: "cnon:ok",
		Amount:      total,
	})
	var vErr *domorder.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "total", vErr.Field)
	assert.Empty(t, gw.calls)
}

func TestChargeGatewayRejection(t *testing.T) {
	gw := &fakeGateway{chargeFn: func(context.Context, dompayment.ChargeRequest) (dompayment.ChargeResult, error) {
		return dompayment.ChargeResult{}, &dompayment.GatewayError{
			StatusCode: 402,
			Details:    []dompayment.ErrorDetail{{Code: "CARD_DECLINED", Detail: "Card declined."}},
		}
	}}
	_, err := NewChargeUseCase(gw, nil).Execute(context.Background(), ChargeInput{SourceToken: "t", Amount: decimal.NewFromInt(3)})

	var pErr *dompayment.PaymentError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "CARD_DECLINED", pErr.Details()[0].Code)
	var gErr *dompayment.GatewayError
	assert.True(t, errors.As(err, &gErr))
	assert.Len(t, gw.calls, 1)
}

func TestChargeNotCompleted(t *testing.T) {
	gw := &fakeGateway{chargeFn: func(context.Context, dompayment.ChargeRequest) (dompayment.ChargeResult, error) {
		return dompayment.ChargeResult{ID: "pay_p", Status: "PENDING"}, nil
	}}
	_, err := NewChargeUseCase(gw, nil).Execute(context.Background(), ChargeInput{SourceToken: "t", Amount: decimal.NewFromInt(3)})

	var pErr *dompayment.PaymentError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "pay_p", pErr.PaymentID)
	assert.Equal(t, "PENDING", pErr.Status)
	assert.Equal(t, "PAYMENT_NOT_COMPLETED", pErr.Details()[0].Code)
}

func TestChargeTransportFailureIsPaymentError(t *testing.T) {
	gw := &fakeGateway{chargeFn: func(context.Context, dompayment.ChargeRequest) (dompayment.ChargeResult, error) {
		return dompayment.ChargeResult{}, errors.New("dial tcp: refused")
	}}
	_, err := NewChargeUseCase(gw, nil).Execute(context.Background(), ChargeInput{SourceToken: "t", Amount: decimal.NewFromInt(3)})

	var pErr *dompayment.PaymentError
	require.True(t, errors.As(err, &pErr))
	assert.Contains(t, err.Error(), "refused")
}
