package notification

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// InvalidRecipientError is returned before any outbound call when a phone
// number is not in E.164 form.
type InvalidRecipientError struct {
	Recipient string
}

func (e *InvalidRecipientError) Error() string {
	return fmt.Sprintf("invalid recipient %q: must be in international format (e.g., +1234567890)", e.Recipient)
}

type UnknownTemplateError struct {
	Name  string
	Valid []string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("unknown template %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

// DeliveryError wraps a rejection or transport failure from the messaging provider.
type DeliveryError struct {
	Code    int
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("notification delivery failed (code %d): %s", e.Code, e.Message)
	}
	return "notification delivery failed: " + e.Message
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func ValidateRecipient(phone string) error {
	if !e164.MatchString(phone) {
		return &InvalidRecipientError{Recipient: phone}
	}
	return nil
}

// Message is a rendered body ready for delivery.
type Message struct {
	To   string
	Body string
}

// Sender delivers a message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Status is the outcome of a best-effort notification.
type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)
