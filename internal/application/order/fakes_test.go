package order

import (
	"context"
	"errors"
	"sync"

	apppayment "github.com/Zhima-Mochi/homeflavors/internal/application/payment"
	domnotification "github.com/Zhima-Mochi/homeflavors/internal/domain/notification"
	domoutbox "github.com/Zhima-Mochi/homeflavors/internal/domain/outbox"
)

type fixedNumbers struct {
	number string
	err    error
}

func (f fixedNumbers) Next() (string, error) { return f.number, f.err }

type fakePayments struct {
	executeFn func(ctx context.Context, cmd apppayment.ChargeInput) (*apppayment.ChargeResult, error)
	calls     []apppayment.ChargeInput
}

func (f *fakePayments) Execute(ctx context.Context, cmd apppayment.ChargeInput) (*apppayment.ChargeResult, error) {
	f.calls = append(f.calls, cmd)
	return f.executeFn(ctx, cmd)
}

type fakeNotifier struct {
	err        error
	ownerCalls []domnotification.Params
	sendTo     []string
	sendTpl    []domnotification.Template
}

func (f *fakeNotifier) NotifyOwner(_ context.Context, p domnotification.Params) (string, error) {
	f.ownerCalls = append(f.ownerCalls, p)
	if f.err != nil {
		return "", f.err
	}
	return "SM-owner", nil
}

func (f *fakeNotifier) Send(_ context.Context, to string, tpl domnotification.Template, _ domnotification.Params) (string, error) {
	f.sendTo = append(f.sendTo, to)
	f.sendTpl = append(f.sendTpl, tpl)
	if f.err != nil {
		return "", f.err
	}
	return "SM-customer", nil
}

type lockedNotifier struct {
	mu   sync.Mutex
	sent []domnotification.Template
}

func (f *lockedNotifier) Send(_ context.Context, _ string, tpl domnotification.Template, _ domnotification.Params) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tpl)
	return "SM-customer", nil
}

func (f *lockedNotifier) templates() []domnotification.Template {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domnotification.Template(nil), f.sent...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

var errBusClosed = errors.New("bus closed")
