package twilio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	twilio "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/notification"
)

const whatsappPrefix = "whatsapp:"

// MessageCreator is the slice of the Twilio REST API the sender needs.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type Config struct {
	AccountSID string
	AuthToken  string
	// From is the WhatsApp-enabled sender number in E.164 form.
	From string
}

// Sender delivers WhatsApp messages through Twilio.
type Sender struct {
	api  MessageCreator
	from string
}

var _ notification.Sender = (*Sender)(nil)

func New(cfg Config) (*Sender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("twilio: account sid and auth token are required")
	}
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return NewWithAPI(rc.Api, cfg.From)
}

// NewWithAPI builds a sender around an existing message API.
func NewWithAPI(api MessageCreator, from string) (*Sender, error) {
	from = strings.TrimPrefix(from, whatsappPrefix)
	if err := notification.ValidateRecipient(from); err != nil {
		return nil, fmt.Errorf("twilio: sender number: %w", err)
	}
	return &Sender{api: api, from: from}, nil
}

func (s *Sender) Send(ctx context.Context, msg notification.Message) (string, error) {
	if err := notification.ValidateRecipient(msg.To); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", &notification.DeliveryError{Message: "request cancelled", Err: err}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(whatsappPrefix + msg.To)
	params.SetFrom(whatsappPrefix + s.from)
	params.SetBody(msg.Body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		var restErr *twclient.TwilioRestError
		if errors.As(err, &restErr) {
			return "", &notification.DeliveryError{Code: restErr.Code, Message: restErr.Message, Err: err}
		}
		return "", &notification.DeliveryError{Message: err.Error(), Err: err}
	}
	if resp == nil || resp.Sid == nil {
		return "", &notification.DeliveryError{Message: "response has no message sid"}
	}
	return *resp.Sid, nil
}
