package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	"github.com/square/square-go-sdk/core"
	"github.com/square/square-go-sdk/option"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/payment"
)

const DefaultVersion = "2024-07-17"

type Config struct {
	AccessToken string
	LocationID  string
	// Environment is "sandbox" or "production". BaseURL, when set, wins.
	Environment string
	BaseURL     string
	Version     string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client charges cards through the Square Payments API.
type Client struct {
	payments   paymentsAPI
	locationID string
	baseURL    string
}

type paymentsAPI interface {
	Create(ctx context.Context, req *sq.CreatePaymentRequest, opts ...option.RequestOption) (*sq.CreatePaymentResponse, error)
}

var _ payment.Gateway = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("square: access token is required")
	}
	if cfg.LocationID == "" {
		return nil, errors.New("square: location id is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		switch strings.ToLower(cfg.Environment) {
		case "", "sandbox":
			baseURL = sq.Environments.Sandbox
		case "production":
			baseURL = sq.Environments.Production
		default:
			return nil, fmt.Errorf("square: unknown environment %q", cfg.Environment)
		}
	}

	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	api := sqclient.NewClient(
		option.WithToken(cfg.AccessToken),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(hc),
		option.WithHTTPHeader(http.Header{"Square-Version": []string{version}}),
		// Square deduplicates on the idempotency key; a charge is attempted once.
		option.WithMaxAttempts(1),
	)
	return &Client{payments: api.Payments, locationID: cfg.LocationID, baseURL: baseURL}, nil
}

// Charge issues exactly one CreatePayment call.
func (c *Client) Charge(ctx context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	currency := sq.Currency(req.Currency)
	body := &sq.CreatePaymentRequest{
		SourceID:       req.SourceToken,
		IdempotencyKey: req.IdempotencyKey,
		AmountMoney:    &sq.Money{Amount: sq.Int64(req.AmountMinor), Currency: &currency},
		LocationID:     sq.String(c.locationID),
		Autocomplete:   sq.Bool(true),
	}
	if req.ReferenceID != "" {
		body.ReferenceID = sq.String(req.ReferenceID)
	}
	if req.Note != "" {
		body.Note = sq.String(req.Note)
	}

	resp, err := c.payments.Create(ctx, body)
	if err != nil {
		return payment.ChargeResult{}, gatewayError(err)
	}
	if len(resp.Errors) > 0 {
		return payment.ChargeResult{}, &payment.GatewayError{
			StatusCode: http.StatusOK,
			Details:    details(resp.Errors),
			Err:        errors.New("payment rejected"),
		}
	}
	if resp.Payment == nil {
		return payment.ChargeResult{}, &payment.GatewayError{
			StatusCode: http.StatusOK,
			Err:        errors.New("response has no payment"),
		}
	}
	return payment.ChargeResult{ID: deref(resp.Payment.ID), Status: deref(resp.Payment.Status)}, nil
}

// gatewayError keeps the HTTP status and Square's error entries from an SDK failure.
func gatewayError(err error) *payment.GatewayError {
	var apiErr *core.APIError
	if !errors.As(err, &apiErr) {
		return &payment.GatewayError{Err: err}
	}
	out := &payment.GatewayError{StatusCode: apiErr.StatusCode, Err: err}
	if body := apiErr.Unwrap(); body != nil {
		var parsed struct {
			Errors []payment.ErrorDetail `json:"errors"`
		}
		if json.Unmarshal([]byte(body.Error()), &parsed) == nil {
			out.Details = parsed.Errors
		}
	}
	return out
}

func details(errs []*sq.Error) []payment.ErrorDetail {
	out := make([]payment.ErrorDetail, 0, len(errs))
	for _, e := range errs {
		if e == nil {
			continue
		}
		out = append(out, payment.ErrorDetail{
			Category: string(e.Category),
			Code:     string(e.Code),
			Detail:   deref(e.Detail),
			Field:    deref(e.Field),
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
