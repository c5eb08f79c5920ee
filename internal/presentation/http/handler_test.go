package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmenu "github.com/Zhima-Mochi/homeflavors/internal/application/menu"
	appnotification "github.com/Zhima-Mochi/homeflavors/internal/application/notification"
	apporder "github.com/Zhima-Mochi/homeflavors/internal/application/order"
	dommenu "github.com/Zhima-Mochi/homeflavors/internal/domain/menu"
	domnotification "github.com/Zhima-Mochi/homeflavors/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/homeflavors/internal/domain/payment"
)

type useCaseFunc[C, R any] func(ctx context.Context, cmd C) (R, error)

func (f useCaseFunc[C, R]) Execute(ctx context.Context, cmd C) (R, error) { return f(ctx, cmd) }

func unexpected[C, R any](t *testing.T) useCaseFunc[C, R] {
	return func(context.Context, C) (R, error) {
		t.Helper()
		t.Fatal("unexpected use case call")
		var zero R
		return zero, nil
	}
}

func newTestHandler(t *testing.T, uc UseCases) http.Handler {
	t.Helper()
	if uc.ListMenu == nil {
		uc.ListMenu = unexpected[appmenu.ListMenuInput, []dommenu.Category](t)
	}
	if uc.SubmitOrder == nil {
		uc.SubmitOrder = unexpected[apporder.SubmitOrderInput, *apporder.SubmitOrderResult](t)
	}
	if uc.GetOrder == nil {
		uc.GetOrder = unexpected[string, *domorder.Order](t)
	}
	if uc.UpdateStatus == nil {
		uc.UpdateStatus = unexpected[apporder.UpdateOrderStatusInput, *apporder.UpdateOrderStatusResult](t)
	}
	if uc.SendTest == nil {
		uc.SendTest = unexpected[appnotification.SendTestInput, *appnotification.SendTestResult](t)
	}
	return NewHandler(uc, Options{CORSAllowOrigins: []string{"https://shop.example"}}, nil, nil).Router()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestHandler(t, UseCases{}), http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	rec := do(t, newTestHandler(t, UseCases{}), http.MethodGet, "/health", "", map[string]string{headerRequestID: "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get(headerRequestID))
}

func TestListMenu(t *testing.T) {
	available := false
	uc := UseCases{
		ListMenu: useCaseFunc[appmenu.ListMenuInput, []dommenu.Category](func(context.Context, appmenu.ListMenuInput) ([]dommenu.Category, error) {
			return []dommenu.Category{{
				Category: "Mains",
				Items: []dommenu.Item{
					{ID: "1", Name: "Biryani", Price: decimal.RequireFromString("12.99"), Category: "Mains"},
					{ID: "2", Name: "Korma", Price: decimal.RequireFromString("11.5"), Category: "Mains", Available: &available},
				},
			}}, nil
		}),
	}

	rec := do(t, newTestHandler(t, uc), http.MethodGet, "/api/menu", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"category":"Mains","items":[
		{"id":"1","name":"Biryani","description":"","price":12.99,"image":"","category":"Mains"},
		{"id":"2","name":"Korma","description":"","price":11.50,"image":"","category":"Mains","available":false}
	]}]`, rec.Body.String())
}

func TestListMenuFailure(t *testing.T) {
	uc := UseCases{
		ListMenu: useCaseFunc[appmenu.ListMenuInput, []dommenu.Category](func(context.Context, appmenu.ListMenuInput) ([]dommenu.Category, error) {
			return nil, errors.New("menu: connection refused")
		}),
	}

	rec := do(t, newTestHandler(t, uc), http.MethodGet, "/api/menu", "", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to fetch menu", decodeBody(t, rec)["error"])
}

const submitBody = `{
	"sourceId": "cnon:card-nonce-ok",
	"orderItems": [
		{"id": "1", "name": "Biryani", "price": 12.99, "quantity": 2, "image": "b.png"},
		{"name": "Lassi", "price": "3.50", "quantity": 1}
	],
	"customerDetails": {"name": " Asha ", "phone": "+15551234567"}
}`

func TestSubmitOrder(t *testing.T) {
	var got apporder.SubmitOrderInput
	uc := UseCases{
		SubmitOrder: useCaseFunc[apporder.SubmitOrderInput, *apporder.SubmitOrderResult](func(_ context.Context, cmd apporder.SubmitOrderInput) (*apporder.SubmitOrderResult, error) {
			got = cmd
			return &apporder.SubmitOrderResult{
				OrderNumber:        "ORD12345678",
				PaymentID:          "pay_1",
				Total:              decimal.RequireFromString("29.48"),
				NotificationStatus: domnotification.StatusFailed,
			}, nil
		}),
	}

	rec := do(t, newTestHandler(t, uc), http.MethodPost, "/api/orders", submitBody, map[string]string{headerIdempotencyKey: "key-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"orderNumber":"ORD12345678","paymentId":"pay_1","total":29.48,"notificationStatus":"failed"}`, rec.Body.String())

	assert.Equal(t, "cnon:card-nonce-ok", got.PaymentToken)
	assert.Equal(t, "key-1", got.IdempotencyKey)
	assert.Equal(t, domorder.Customer{Name: "Asha", Phone: "+15551234567"}, got.Customer)
	require.Len(t, got.Items, 2)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("12.99")))
	assert.True(t, got.Items[1].Price.Equal(decimal.RequireFromString("3.5")))
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestSubmitOrderErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
		wantDetail bool
	}{
		{
			name:       "malformed body",
			body:       `{"sourceId":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "validation",
			body:       submitBody,
			err:        &domorder.ValidationError{Field: "customerDetails.phone", Reason: "is required"},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation: customerDetails.phone is required",
		},
		{
			name: "payment declined",
			body: submitBody,
			err: &dompayment.PaymentError{Gateway: &dompayment.GatewayError{
				StatusCode: http.StatusPaymentRequired,
				Details:    []dompayment.ErrorDetail{{Category: "PAYMENT_METHOD_ERROR", Code: "CARD_DECLINED"}},
			}},
			wantStatus: http.StatusInternalServerError,
			wantError:  "payment failed",
			wantDetail: true,
		},
		{
			name:       "unexpected",
			body:       submitBody,
			err:        errors.New("order: number: entropy exhausted"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := UseCases{
				SubmitOrder: useCaseFunc[apporder.SubmitOrderInput, *apporder.SubmitOrderResult](func(context.Context, apporder.SubmitOrderInput) (*apporder.SubmitOrderResult, error) {
					return nil, tt.err
				}),
			}

			rec := do(t, newTestHandler(t, uc), http.MethodPost, "/api/orders", tt.body, nil)

			require.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
			if tt.wantDetail {
				details, ok := body["details"].([]any)
				require.True(t, ok)
				require.Len(t, details, 1)
				assert.Equal(t, "CARD_DECLINED", details[0].(map[string]any)["code"])
			} else {
				assert.NotContains(t, body, "details")
			}
		})
	}
}

func TestGetOrder(t *testing.T) {
	created := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	uc := UseCases{
		GetOrder: useCaseFunc[string, *domorder.Order](func(_ context.Context, number string) (*domorder.Order, error) {
			if number != "ORD00000001" {
				return nil, apporder.ErrNotFound
			}
			return &domorder.Order{
				Number:    number,
				Items:     []domorder.Item{{Name: "Biryani", Price: decimal.RequireFromString("12.99"), Quantity: 1}},
				Total:     decimal.RequireFromString("12.99"),
				Customer:  domorder.Customer{Name: "Asha", Phone: "+15551234567"},
				PaymentID: "pay_1",
				Status:    domorder.StatusReady,
				CreatedAt: created,
				UpdatedAt: created,
			}, nil
		}),
	}
	h := newTestHandler(t, uc)

	rec := do(t, h, http.MethodGet, "/api/orders/ORD00000001", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ORD00000001", body["orderNumber"])
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, 12.99, body["total"])
	assert.Equal(t, "2026-03-01T18:30:00Z", body["createdAt"])

	rec = do(t, h, http.MethodGet, "/api/orders/ORD99999999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	uc := UseCases{
		UpdateStatus: useCaseFunc[apporder.UpdateOrderStatusInput, *apporder.UpdateOrderStatusResult](func(_ context.Context, cmd apporder.UpdateOrderStatusInput) (*apporder.UpdateOrderStatusResult, error) {
			switch cmd.Status {
			case "ready":
				return &apporder.UpdateOrderStatusResult{
					OrderNumber:        cmd.OrderNumber,
					Status:             domorder.StatusReady,
					Changed:            true,
					NotificationStatus: domnotification.StatusSent,
				}, nil
			case "placed":
				return nil, domorder.ErrInvalidStateTransition
			case "missing":
				return nil, apporder.ErrNotFound
			default:
				return nil, &domorder.ValidationError{Field: "status", Reason: "is unknown"}
			}
		}),
	}
	h := newTestHandler(t, uc)

	rec := do(t, h, http.MethodPost, "/api/orders/ORD00000001/status", `{"status":"ready"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"orderNumber":"ORD00000001","status":"ready","notificationStatus":"sent"}`, rec.Body.String())

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/orders/ORD00000001/status", `{"status":"placed"}`, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/orders/ORD00000001/status", `{"status":"missing"}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/orders/ORD00000001/status", `{"status":"eaten"}`, nil).Code)
}

func TestSendTestNotification(t *testing.T) {
	uc := UseCases{
		SendTest: useCaseFunc[appnotification.SendTestInput, *appnotification.SendTestResult](func(_ context.Context, cmd appnotification.SendTestInput) (*appnotification.SendTestResult, error) {
			switch {
			case cmd.Status == "bogus":
				return nil, &domnotification.UnknownTemplateError{Name: cmd.Status, Valid: domnotification.TemplateNames()}
			case cmd.To == "12345":
				return nil, &domnotification.InvalidRecipientError{Recipient: cmd.To}
			case cmd.To == "+15550000000":
				return nil, &domnotification.DeliveryError{Code: 63016, Message: "outside session window"}
			}
			return &appnotification.SendTestResult{MessageSID: "SM123", OrderNumber: "TEST-abcd1234"}, nil
		}),
	}
	h := newTestHandler(t, uc)

	rec := do(t, h, http.MethodPost, "/api/notifications/test", `{"to":"+15551234567","status":"orderReady"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"messageSid":"SM123","orderNumber":"TEST-abcd1234"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/notifications/test", `{"to":"+15551234567","status":"bogus"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["validStatuses"], len(domnotification.TemplateNames()))

	rec = do(t, h, http.MethodPost, "/api/notifications/test", `{"to":"12345","status":"orderReady"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, decodeBody(t, rec), "validStatuses")

	rec = do(t, h, http.MethodPost, "/api/notifications/test", `{"to":"+15550000000","status":"orderReady"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t, UseCases{})

	rec := do(t, h, http.MethodOptions, "/api/orders", "", map[string]string{
		"Origin":                        "https://shop.example",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")

	rec = do(t, h, http.MethodGet, "/health", "", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
