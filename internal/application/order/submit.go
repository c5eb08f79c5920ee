package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/homeflavors/internal/application"
	apppayment "github.com/Zhima-Mochi/homeflavors/internal/application/payment"
	domnotification "github.com/Zhima-Mochi/homeflavors/internal/domain/notification"
	domain "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/homeflavors/internal/domain/outbox"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
)

const (
	orderService       = "order-service"
	useCaseOrderSubmit = "order.submit"
	publishPeer        = "outbox"
	publishTimeout     = 300 * time.Millisecond
)

type SubmitOrderInput struct {
	PaymentToken   string
	Items          []domain.Item
	Customer       domain.Customer
	IdempotencyKey string
}

type SubmitOrderResult struct {
	OrderNumber        string
	PaymentID          string
	Total              decimal.Decimal
	NotificationStatus domnotification.Status
}

// SubmitOrderUseCase validates a checkout, charges it and tells the owner.
// Only validation and payment failures fail the submission.
type SubmitOrderUseCase struct {
	numbers   NumberGenerator
	payments  PaymentPort
	owner     OwnerNotifier
	publisher domoutbox.Publisher
	ins       *application.Instruments
}

var _ application.UseCase[SubmitOrderInput, *SubmitOrderResult] = (*SubmitOrderUseCase)(nil)

func NewSubmitOrderUseCase(
	numbers NumberGenerator,
	payments PaymentPort,
	owner OwnerNotifier,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *SubmitOrderUseCase {
	return &SubmitOrderUseCase{
		numbers:   numbers,
		payments:  payments,
		owner:     owner,
		publisher: publisher,
		ins:       application.NewInstruments(tel, orderService),
	}
}

func (uc *SubmitOrderUseCase) Execute(ctx context.Context, cmd SubmitOrderInput) (_ *SubmitOrderResult, err error) {
	ctx, run := uc.ins.Start(ctx, useCaseOrderSubmit, "SubmitOrder",
		attribute.Int("order.items", len(cmd.Items)),
	)
	defer func() { run.End(err) }()

	if err := domain.Validate(cmd.Items, cmd.Customer); err != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, err
	}
	if strings.TrimSpace(cmd.PaymentToken) == "" {
		run.Fail("SOURCE_ID_REQUIRED")
		return nil, &domain.ValidationError{Field: "sourceId", Reason: "is required"}
	}
	total := domain.Total(cmd.Items)
	if cents, err := domain.MinorUnits(total); err != nil || cents <= 0 {
		run.Fail("TOTAL_INVALID")
		return nil, &domain.ValidationError{Field: "orderItems", Reason: "total must be greater than zero"}
	}
	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return nil, err
	}

	number, err := uc.numbers.Next()
	if err != nil {
		run.Fail("ORDER_NUMBER_FAILED")
		return nil, fmt.Errorf("order: number: %w", err)
	}
	run.Field("order_number", number)
	run.Span().SetAttributes(attribute.String("order.number", number), attribute.String("order.total", total.StringFixed(2)))

	charge, err := uc.payments.Execute(ctx, apppayment.ChargeInput{
		OrderNumber:    number,
		SourceToken:    cmd.PaymentToken,
		Amount:         total,
		IdempotencyKey: cmd.IdempotencyKey,
		Note:           "Home Flavors order " + number,
	})
	if err != nil {
		run.Fail("PAYMENT_FAILED")
		return nil, err
	}
	run.Field("payment_id", charge.PaymentID)

	res := &SubmitOrderResult{
		OrderNumber:        number,
		PaymentID:          charge.PaymentID,
		Total:              total,
		NotificationStatus: domnotification.StatusSent,
	}

	if _, nErr := uc.owner.NotifyOwner(ctx, domnotification.Params{
		OrderNumber: number,
		Items:       cmd.Items,
		Total:       total,
		Customer:    cmd.Customer,
	}); nErr != nil {
		res.NotificationStatus = domnotification.StatusFailed
		run.Note("OWNER_NOTIFICATION_FAILED")
		run.Span().RecordError(nErr)
		run.Logger().Warn("owner_notification_failed",
			observability.F("order_number", number),
			observability.F("error", nErr.Error()),
		)
	}
	run.Field("notification_status", string(res.NotificationStatus))

	uc.publishPlaced(ctx, run, domain.NewPlacedEvent(number, charge.PaymentID, cmd.Items, cmd.Customer))

	run.Span().AddEvent("order.placed", trace.WithAttributes(attribute.String("order.number", number)))
	return res, nil
}

// publishPlaced is best-effort; a slow or closed bus never fails the submission.
func (uc *SubmitOrderUseCase) publishPlaced(ctx context.Context, run *application.Run, evt domain.PlacedEvent) {
	if uc.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	pubErr := uc.publisher.Publish(pubCtx, evt)
	if pubErr == nil && pubCtx.Err() != nil {
		pubErr = pubCtx.Err()
	}
	uc.ins.External(publishPeer, evt.EventName(), application.ExternalOutcome(pubCtx, pubErr), start)

	if pubErr != nil {
		status := "EVENT_PUBLISH_FAILED"
		if errors.Is(pubErr, context.DeadlineExceeded) {
			status = "EVENT_PUBLISH_TIMEOUT"
		}
		run.Note(status)
		run.Field("event_publish_error", pubErr.Error())
		run.Span().RecordError(pubErr)
	}
}
