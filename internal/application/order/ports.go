package order

import (
	"context"

	apppayment "github.com/Zhima-Mochi/homeflavors/internal/application/payment"
	domnotification "github.com/Zhima-Mochi/homeflavors/internal/domain/notification"
)

type NumberGenerator interface {
	Next() (string, error)
}

type PaymentPort interface {
	Execute(ctx context.Context, cmd apppayment.ChargeInput) (*apppayment.ChargeResult, error)
}

type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, p domnotification.Params) (string, error)
}

type CustomerNotifier interface {
	Send(ctx context.Context, to string, tpl domnotification.Template, p domnotification.Params) (string, error)
}
