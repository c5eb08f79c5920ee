package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/cart"
	dommenu "github.com/Zhima-Mochi/homeflavors/internal/domain/menu"
	dompayment "github.com/Zhima-Mochi/homeflavors/internal/domain/payment"
)

const (
	headerRequestID      = "X-Request-ID"
	headerIdempotencyKey = "Idempotency-Key"
	defaultTimeout       = 30 * time.Second
)

// APIError is a non-2xx answer from the ordering API.
type APIError struct {
	StatusCode int
	Message    string
	Details    []dompayment.ErrorDetail
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Details) > 0 {
		parts := make([]string, 0, len(e.Details))
		for _, d := range e.Details {
			parts = append(parts, strings.TrimSpace(d.Code+" "+d.Detail))
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, msg)
}

// Client talks to the ordering API on behalf of the shopper CLI.
type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{BaseURL: u, HTTP: httpClient}, nil
}

func (c *Client) Menu(ctx context.Context) ([]dommenu.Category, error) {
	var out []dommenu.Category
	if err := c.do(ctx, http.MethodGet, "/api/menu", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type CustomerDetails struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type orderItem struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type submitOrderRequest struct {
	SourceID        string          `json:"sourceId"`
	OrderItems      []orderItem     `json:"orderItems"`
	CustomerDetails CustomerDetails `json:"customerDetails"`
}

type OrderReceipt struct {
	Success            bool            `json:"success"`
	OrderNumber        string          `json:"orderNumber"`
	PaymentID          string          `json:"paymentId"`
	Total              decimal.Decimal `json:"total"`
	NotificationStatus string          `json:"notificationStatus"`
}

// SubmitOrder posts the cart lines for checkout. An empty idempotencyKey lets
// the server derive one.
func (c *Client) SubmitOrder(ctx context.Context, sourceID string, items []cart.Item, customer CustomerDetails, idempotencyKey string) (*OrderReceipt, error) {
	req := submitOrderRequest{
		SourceID:        sourceID,
		OrderItems:      make([]orderItem, 0, len(items)),
		CustomerDetails: customer,
	}
	for _, it := range items {
		req.OrderItems = append(req.OrderItems, orderItem{ID: it.ID, Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}

	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set(headerIdempotencyKey, idempotencyKey)
	}

	var out OrderReceipt
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, headers http.Header, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	u := c.BaseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	for k, vv := range headers {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error   string                   `json:"error"`
			Details []dompayment.ErrorDetail `json:"details"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
			apiErr.Details = payload.Details
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}
