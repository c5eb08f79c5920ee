package order

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/homeflavors/internal/application"
	domain "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/homeflavors/internal/domain/outbox"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
)

const (
	workerService   = "order-worker"
	useCaseRecord   = "order.worker.record_placed"
	recordSpanName  = "RecordPlacedOrder"
	ignoredOutcome  = "ignored"
	duplicateStatus = "ALREADY_RECORDED"
)

// RecordOrderWorker persists every charged order from the order.placed event.
type RecordOrderWorker struct {
	repo domain.Repository
	ins  *application.Instruments
}

func NewRecordOrderWorker(repo domain.Repository, tel observability.Observability) *RecordOrderWorker {
	return &RecordOrderWorker{repo: repo, ins: application.NewInstruments(tel, workerService)}
}

func (w *RecordOrderWorker) Start(subscriber domoutbox.Subscriber) {
	if subscriber == nil || w.repo == nil {
		return
	}
	subscriber.Subscribe(domain.PlacedEvent{}.EventName(), w.HandlePlaced)
}

func (w *RecordOrderWorker) HandlePlaced(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domain.PlacedEvent)
	if !ok {
		w.ins.Logger().Debug("event_ignored", observability.F("event", e.EventName()), observability.F("outcome", ignoredOutcome))
		return nil
	}

	ctx, run := w.ins.Start(ctx, useCaseRecord, recordSpanName,
		attribute.String("event", e.EventName()),
		attribute.String("order.number", evt.OrderNumber),
	)
	defer func() { run.End(err) }()
	run.Field("order_number", evt.OrderNumber)

	o, err := domain.New(evt.OrderNumber, evt.Items, evt.Customer, evt.PaymentID)
	if err != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return fmt.Errorf("worker: construct order: %w", err)
	}
	o.CreatedAt = evt.OccurredAt
	o.UpdatedAt = evt.OccurredAt

	if err := w.repo.Save(ctx, o); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			run.Note(duplicateStatus)
			return nil
		}
		run.Fail("ORDER_SAVE_FAILED")
		return fmt.Errorf("worker: save order: %w", err)
	}
	return nil
}
