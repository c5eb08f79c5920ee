package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domnotification "github.com/Zhima-Mochi/homeflavors/internal/domain/notification"
	"github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
)

type fakeSender struct {
	sendFn func(ctx context.Context, msg domnotification.Message) (string, error)
	sent   []domnotification.Message
}

func (f *fakeSender) Send(ctx context.Context, msg domnotification.Message) (string, error) {
	f.sent = append(f.sent, msg)
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return "SM-fake", nil
}

const owner = "+15550000001"

func newService(t *testing.T, sender *fakeSender) *Service {
	t.Helper()
	svc, err := NewService(sender, owner, observability.Nop())
	require.NoError(t, err)
	return svc
}

func TestNewServiceRejectsBadOwner(t *testing.T) {
	_, err := NewService(&fakeSender{}, "0800", nil)
	var rErr *domnotification.InvalidRecipientError
	assert.True(t, errors.As(err, &rErr))
}

func TestNotifyOwnerRendersSummary(t *testing.T) {
	sender := &fakeSender{}
	items := []order.Item{{Name: "Butter Chicken", Price: decimal.RequireFromString("13.50"), Quantity: 1}}

	sid, err := newService(t, sender).NotifyOwner(context.Background(), domnotification.Params{
		OrderNumber: "ORD42",
		Items:       items,
		Total:       order.Total(items),
		Customer:    order.Customer{Name: "Lina", Phone: "+15553334444"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SM-fake", sid)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, owner, sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Body, "New Order #ORD42")
	assert.Contains(t, sender.sent[0].Body, "Total: $13.50")
}

func TestSendRejectsBeforeCalling(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(t, sender)

	_, err := svc.Send(context.Background(), "12345", domnotification.TemplateOrderReady, domnotification.Params{})
	var rErr *domnotification.InvalidRecipientError
	assert.True(t, errors.As(err, &rErr))

	_, err = svc.Send(context.Background(), "+15551112222", domnotification.Template("nope"), domnotification.Params{})
	var uErr *domnotification.UnknownTemplateError
	assert.True(t, errors.As(err, &uErr))

	assert.Empty(t, sender.sent)
}

func TestSendPropagatesDeliveryError(t *testing.T) {
	sender := &fakeSender{sendFn: func(context.Context, domnotification.Message) (string, error) {
		return "", &domnotification.DeliveryError{Code: 21211, Message: "invalid to"}
	}}
	_, err := newService(t, sender).Send(context.Background(), "+15551112222", domnotification.TemplateOrderReady, domnotification.Params{OrderNumber: "1"})
	var dErr *domnotification.DeliveryError
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, 21211, dErr.Code)
}

func TestSendTestUseCase(t *testing.T) {
	sender := &fakeSender{}
	uc := NewSendTestUseCase(newService(t, sender), nil)

	res, err := uc.Execute(context.Background(), SendTestInput{To: "+15551112222", Status: "orderInProgress", OrderNumber: "ORD9"})
	require.NoError(t, err)
	assert.Equal(t, "SM-fake", res.MessageSID)
	assert.Equal(t, "ORD9", res.OrderNumber)
	assert.Contains(t, sender.sent[0].Body, "Order #ORD9 Update")

	res, err = uc.Execute(context.Background(), SendTestInput{To: "+15551112222", Status: "orderReady"})
	require.NoError(t, err)
	assert.Regexp(t, `^TEST-[0-9a-f]{8}$`, res.OrderNumber)

	_, err = uc.Execute(context.Background(), SendTestInput{To: "+15551112222", Status: "orderLost"})
	var uErr *domnotification.UnknownTemplateError
	require.True(t, errors.As(err, &uErr))
	assert.Len(t, uErr.Valid, 6)

	_, err = uc.Execute(context.Background(), SendTestInput{To: "nope", Status: "orderReady"})
	var rErr *domnotification.InvalidRecipientError
	assert.True(t, errors.As(err, &rErr))
	assert.Len(t, sender.sent, 2)
}
