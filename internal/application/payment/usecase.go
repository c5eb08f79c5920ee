package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/homeflavors/internal/application"
	domorder "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/homeflavors/internal/domain/payment"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
)

const (
	paymentService        = "payment-service"
	useCasePaymentCharge  = "payment.charge"
	gatewayPeer           = "square"
	gatewayEndpointCreate = "payments.create"
)

type ChargeInput struct {
	OrderNumber    string
	SourceToken    string
	Amount         decimal.Decimal
	IdempotencyKey string
	Note           string
}

type ChargeResult struct {
	PaymentID      string
	Status         string
	IdempotencyKey string
}

// ChargeUseCase captures one card payment. Exactly one gateway call per Execute.
type ChargeUseCase struct {
	gateway dompayment.Gateway
	ins     *application.Instruments
	now     func() time.Time
}

var _ application.UseCase[ChargeInput, *ChargeResult] = (*ChargeUseCase)(nil)

func NewChargeUseCase(gateway dompayment.Gateway, tel observability.Observability) *ChargeUseCase {
	return &ChargeUseCase{
		gateway: gateway,
		ins:     application.NewInstruments(tel, paymentService),
		now:     time.Now,
	}
}

// IdempotencyKey returns the caller key, or <orderNumber>-<unix millis> when none was given.
func IdempotencyKey(callerKey, orderNumber string, now time.Time) string {
	if k := strings.TrimSpace(callerKey); k != "" {
		return k
	}
	return fmt.Sprintf("%s-%d", orderNumber, now.UnixMilli())
}

func (uc *ChargeUseCase) Execute(ctx context.Context, cmd ChargeInput) (_ *ChargeResult, err error) {
	ctx, run := uc.ins.Start(ctx, useCasePaymentCharge, "ChargePayment",
		attribute.String("order.number", cmd.OrderNumber),
	)
	defer func() { run.End(err) }()

	if strings.TrimSpace(cmd.SourceToken) == "" {
		run.Fail("SOURCE_ID_REQUIRED")
		return nil, &domorder.ValidationError{Field: "sourceId", Reason: "is required"}
	}
	cents, err := domorder.MinorUnits(cmd.Amount)
	if err != nil {
		run.Fail("AMOUNT_OUT_OF_RANGE")
		return nil, &domorder.ValidationError{Field: "total", Reason: "is out of range"}
	}
	if cents <= 0 {
		run.Fail("AMOUNT_INVALID")
		return nil, &domorder.ValidationError{Field: "total", Reason: "must be greater than zero"}
	}
	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return nil, err
	}

	key := IdempotencyKey(cmd.IdempotencyKey, cmd.OrderNumber, uc.now())
	run.Field("amount_minor", cents)
	run.Span().SetAttributes(attribute.Int64("payment.amount_minor", cents))

	callStart := time.Now()
	res, gwErr := uc.gateway.Charge(ctx, dompayment.ChargeRequest{
		SourceToken:    cmd.SourceToken,
		AmountMinor:    cents,
		Currency:       domorder.Currency,
		IdempotencyKey: key,
		ReferenceID:    cmd.OrderNumber,
		Note:           cmd.Note,
	})
	uc.ins.External(gatewayPeer, gatewayEndpointCreate, application.ExternalOutcome(ctx, gwErr), callStart)

	if gwErr != nil {
		var gErr *dompayment.GatewayError
		if errors.As(gwErr, &gErr) {
			run.Fail("GATEWAY_REJECTED")
			return nil, &dompayment.PaymentError{Gateway: gErr}
		}
		run.Fail("GATEWAY_FAILED")
		return nil, &dompayment.PaymentError{Gateway: &dompayment.GatewayError{Err: gwErr}}
	}

	run.Field("payment_id", res.ID)
	run.Span().SetAttributes(attribute.String("payment.id", res.ID), attribute.String("payment.status", res.Status))
	if res.Status != dompayment.StatusCompleted {
		run.Fail("PAYMENT_NOT_COMPLETED")
		return nil, &dompayment.PaymentError{PaymentID: res.ID, Status: res.Status}
	}

	return &ChargeResult{PaymentID: res.ID, Status: res.Status, IdempotencyKey: key}, nil
}
