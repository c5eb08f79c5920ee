package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/homeflavors/internal/application"
	domnotification "github.com/Zhima-Mochi/homeflavors/internal/domain/notification"
	domain "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/homeflavors/internal/domain/outbox"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
)

const (
	useCaseOrderGet    = "order.get"
	useCaseOrderStatus = "order.update_status"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = errors.New("order: repository failure")
)

type GetOrderUseCase struct {
	repo domain.Repository
	ins  *application.Instruments
}

var _ application.UseCase[string, *domain.Order] = (*GetOrderUseCase)(nil)

func NewGetOrderUseCase(repo domain.Repository, tel observability.Observability) *GetOrderUseCase {
	return &GetOrderUseCase{repo: repo, ins: application.NewInstruments(tel, orderService)}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, number string) (_ *domain.Order, err error) {
	ctx, run := uc.ins.Start(ctx, useCaseOrderGet, "GetOrder", attribute.String("order.number", number))
	defer func() { run.End(err) }()

	o, err := uc.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.Fail("NOT_FOUND")
		} else {
			run.Fail("REPO_READ_FAILED")
		}
		return nil, wrapRepositoryError(err)
	}
	return o, nil
}

type UpdateOrderStatusInput struct {
	OrderNumber string
	Status      string
}

type UpdateOrderStatusResult struct {
	OrderNumber        string
	Status             domain.Status
	Changed            bool
	NotificationStatus domnotification.Status
}

// UpdateOrderStatusUseCase advances the kitchen workflow and tells the customer.
type UpdateOrderStatusUseCase struct {
	repo      domain.Repository
	customer  CustomerNotifier
	publisher domoutbox.Publisher
	ins       *application.Instruments
}

var _ application.UseCase[UpdateOrderStatusInput, *UpdateOrderStatusResult] = (*UpdateOrderStatusUseCase)(nil)

func NewUpdateOrderStatusUseCase(
	repo domain.Repository,
	customer CustomerNotifier,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *UpdateOrderStatusUseCase {
	return &UpdateOrderStatusUseCase{
		repo:      repo,
		customer:  customer,
		publisher: publisher,
		ins:       application.NewInstruments(tel, orderService),
	}
}

func (uc *UpdateOrderStatusUseCase) Execute(ctx context.Context, cmd UpdateOrderStatusInput) (_ *UpdateOrderStatusResult, err error) {
	ctx, run := uc.ins.Start(ctx, useCaseOrderStatus, "UpdateOrderStatus",
		attribute.String("order.number", cmd.OrderNumber),
		attribute.String("order.target_status", cmd.Status),
	)
	defer func() { run.End(err) }()

	if strings.TrimSpace(cmd.OrderNumber) == "" {
		run.Fail("ORDER_NUMBER_REQUIRED")
		return nil, &domain.ValidationError{Field: "orderNumber", Reason: "is required"}
	}
	target, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		run.Fail("STATUS_UNKNOWN")
		return nil, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("must be one of %v", domain.Statuses())}
	}

	o, err := uc.repo.FindByNumber(ctx, cmd.OrderNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.Fail("NOT_FOUND")
		} else {
			run.Fail("REPO_READ_FAILED")
		}
		return nil, wrapRepositoryError(err)
	}

	from := o.Status
	changed, err := o.TransitionTo(target)
	if err != nil {
		run.Fail("STATE_TRANSITION_FAILED")
		return nil, err
	}
	res := &UpdateOrderStatusResult{
		OrderNumber:        o.Number,
		Status:             o.Status,
		Changed:            changed,
		NotificationStatus: domnotification.StatusSkipped,
	}
	if !changed {
		run.Note("UNCHANGED")
		return res, nil
	}

	if err := uc.repo.Update(ctx, o, from); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			run.Fail("CONCURRENT_UPDATE")
			return nil, fmt.Errorf("%w: order %s changed from %s concurrently", domain.ErrInvalidStateTransition, o.Number, from)
		}
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Field("from", string(from))
	run.Field("to", string(o.Status))

	res.NotificationStatus = uc.notifyCustomer(ctx, run, o)
	uc.publishChanged(ctx, run, domain.NewStatusChangedEvent(o, from))
	return res, nil
}

func (uc *UpdateOrderStatusUseCase) notifyCustomer(ctx context.Context, run *application.Run, o *domain.Order) domnotification.Status {
	tpl, ok := domnotification.TemplateForStatus(o.Status)
	if !ok || uc.customer == nil {
		return domnotification.StatusSkipped
	}
	_, err := uc.customer.Send(ctx, o.Customer.Phone, tpl, domnotification.Params{
		OrderNumber: o.Number,
		Items:       o.Items,
		Total:       o.Total,
		Customer:    o.Customer,
	})
	if err != nil {
		run.Note("CUSTOMER_NOTIFICATION_FAILED")
		run.Span().RecordError(err)
		run.Logger().Warn("customer_notification_failed",
			observability.F("order_number", o.Number),
			observability.F("error", err.Error()),
		)
		return domnotification.StatusFailed
	}
	return domnotification.StatusSent
}

func (uc *UpdateOrderStatusUseCase) publishChanged(ctx context.Context, run *application.Run, evt domain.StatusChangedEvent) {
	if uc.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	pubErr := uc.publisher.Publish(pubCtx, evt)
	uc.ins.External(publishPeer, evt.EventName(), application.ExternalOutcome(pubCtx, pubErr), start)
	if pubErr != nil {
		run.Field("event_publish_error", pubErr.Error())
		run.Span().RecordError(pubErr)
	}
}

func wrapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrConflict):
		return domain.ErrConflict
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}
