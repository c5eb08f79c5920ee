package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/homeflavors/internal/application"
	domnotification "github.com/Zhima-Mochi/homeflavors/internal/domain/notification"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
)

const (
	notificationService = "notification-service"
	useCaseNotify       = "notification.notify"
	useCaseSendTest     = "notification.send_test"
	messagingPeer       = "twilio"
	messagingEndpoint   = "messages.create"
)

// Service is the single entry point for outbound WhatsApp messages.
type Service struct {
	sender domnotification.Sender
	owner  string
	ins    *application.Instruments
}

func NewService(sender domnotification.Sender, ownerNumber string, tel observability.Observability) (*Service, error) {
	if err := domnotification.ValidateRecipient(ownerNumber); err != nil {
		return nil, fmt.Errorf("owner number: %w", err)
	}
	return &Service{
		sender: sender,
		owner:  ownerNumber,
		ins:    application.NewInstruments(tel, notificationService),
	}, nil
}

// Send validates, renders and delivers one templated message, returning the provider message id.
func (s *Service) Send(ctx context.Context, to string, tpl domnotification.Template, p domnotification.Params) (_ string, err error) {
	ctx, run := s.ins.Start(ctx, useCaseNotify, "Notify",
		attribute.String("notification.template", string(tpl)),
		attribute.String("order.number", p.OrderNumber),
	)
	defer func() { run.End(err) }()
	run.Field("template", string(tpl))

	if err := domnotification.ValidateRecipient(to); err != nil {
		run.Fail("INVALID_RECIPIENT")
		return "", err
	}
	body, err := domnotification.Render(tpl, p)
	if err != nil {
		run.Fail("UNKNOWN_TEMPLATE")
		return "", err
	}

	callStart := time.Now()
	sid, sendErr := s.sender.Send(ctx, domnotification.Message{To: to, Body: body})
	s.ins.External(messagingPeer, messagingEndpoint, application.ExternalOutcome(ctx, sendErr), callStart)
	if sendErr != nil {
		run.Fail("DELIVERY_FAILED")
		return "", sendErr
	}

	run.Field("message_sid", sid)
	return sid, nil
}

// NotifyOwner sends the new-order summary to the shop owner.
func (s *Service) NotifyOwner(ctx context.Context, p domnotification.Params) (string, error) {
	return s.Send(ctx, s.owner, domnotification.TemplateNewOrderForOwner, p)
}

type SendTestInput struct {
	To          string
	Status      string
	OrderNumber string
}

type SendTestResult struct {
	MessageSID  string
	OrderNumber string
}

// SendTestUseCase backs the operator endpoint that sends any template to any number.
type SendTestUseCase struct {
	svc *Service
	ins *application.Instruments
}

var _ application.UseCase[SendTestInput, *SendTestResult] = (*SendTestUseCase)(nil)

func NewSendTestUseCase(svc *Service, tel observability.Observability) *SendTestUseCase {
	return &SendTestUseCase{svc: svc, ins: application.NewInstruments(tel, notificationService)}
}

func (uc *SendTestUseCase) Execute(ctx context.Context, cmd SendTestInput) (_ *SendTestResult, err error) {
	ctx, run := uc.ins.Start(ctx, useCaseSendTest, "SendTestNotification")
	defer func() { run.End(err) }()

	tpl, err := domnotification.ParseTemplate(cmd.Status)
	if err != nil {
		run.Fail("UNKNOWN_TEMPLATE")
		return nil, err
	}
	if err := domnotification.ValidateRecipient(cmd.To); err != nil {
		run.Fail("INVALID_RECIPIENT")
		return nil, err
	}

	number := strings.TrimSpace(cmd.OrderNumber)
	if number == "" {
		number = "TEST-" + uuid.NewString()[:8]
	}

	sid, err := uc.svc.Send(ctx, cmd.To, tpl, domnotification.Params{OrderNumber: number})
	if err != nil {
		run.Fail("SEND_FAILED")
		return nil, err
	}
	return &SendTestResult{MessageSID: sid, OrderNumber: number}, nil
}
