package payment

import (
	"context"
	"fmt"
	"strings"
)

// StatusCompleted is the only gateway status that counts as a successful charge.
const StatusCompleted = "COMPLETED"

type ChargeRequest struct {
	SourceToken    string
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
	ReferenceID    string
	Note           string
}

type ChargeResult struct {
	ID     string
	Status string
}

// Gateway captures a card charge with a processor.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// ErrorDetail mirrors one processor error entry.
type ErrorDetail struct {
	Category string `json:"category,omitempty"`
	Code     string `json:"code,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Field    string `json:"field,omitempty"`
}

// GatewayError is a processor rejection or transport failure. StatusCode is
// zero when no HTTP response was received.
type GatewayError struct {
	StatusCode int
	Details    []ErrorDetail
	Err        error
}

func (e *GatewayError) Error() string {
	if len(e.Details) > 0 {
		parts := make([]string, 0, len(e.Details))
		for _, d := range e.Details {
			parts = append(parts, fmt.Sprintf("%s: %s", d.Code, d.Detail))
		}
		return "payment gateway: " + strings.Join(parts, "; ")
	}
	if e.Err != nil {
		return "payment gateway: " + e.Err.Error()
	}
	return fmt.Sprintf("payment gateway: http %d", e.StatusCode)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// PaymentError reports a charge that the gateway answered but did not complete.
type PaymentError struct {
	PaymentID string
	Status    string
	Gateway   *GatewayError
}

func (e *PaymentError) Error() string {
	if e.Gateway != nil {
		return "payment failed: " + e.Gateway.Error()
	}
	return fmt.Sprintf("payment %s not completed: status %s", e.PaymentID, e.Status)
}

func (e *PaymentError) Unwrap() error {
	if e.Gateway == nil {
		return nil
	}
	return e.Gateway
}

// Details flattens gateway details for presentation.
func (e *PaymentError) Details() []ErrorDetail {
	if e.Gateway == nil {
		return []ErrorDetail{{Category: "PAYMENT_METHOD_ERROR", Code: "PAYMENT_NOT_COMPLETED", Detail: "payment status " + e.Status}}
	}
	return e.Gateway.Details
}
