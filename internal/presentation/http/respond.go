package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	domnotification "github.com/Zhima-Mochi/homeflavors/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/homeflavors/internal/domain/payment"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
	"github.com/Zhima-Mochi/homeflavors/internal/observability/logctx"
)

const maxBodyBytes = 1 << 20

var errInternal = errors.New("internal server error")

type errorResponse struct {
	Error         string                   `json:"error"`
	Details       []dompayment.ErrorDetail `json:"details,omitempty"`
	ValidStatuses []string                 `json:"validStatuses,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeDomainError maps typed failures to status codes. Anything unrecognised is
// logged and reported as a generic 500 so internals never reach the client.
func writeDomainError(ctx context.Context, fallback observability.Logger, w http.ResponseWriter, err error) {
	var (
		validation *domorder.ValidationError
		payErr     *dompayment.PaymentError
		gwErr      *dompayment.GatewayError
		tplErr     *domnotification.UnknownTemplateError
		rcptErr    *domnotification.InvalidRecipientError
		delivErr   *domnotification.DeliveryError
	)

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation)
	case errors.As(err, &tplErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: tplErr.Error(), ValidStatuses: tplErr.Valid})
	case errors.As(err, &rcptErr):
		writeError(w, http.StatusBadRequest, rcptErr)
	case errors.Is(err, domorder.ErrNotFound):
		writeError(w, http.StatusNotFound, domorder.ErrNotFound)
	case errors.Is(err, domorder.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &payErr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "payment failed", Details: payErr.Details()})
	case errors.As(err, &gwErr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "payment failed", Details: gwErr.Details})
	case errors.As(err, &delivErr):
		writeError(w, http.StatusInternalServerError, delivErr)
	default:
		logctx.FromOr(ctx, fallback).Error("request_failed", observability.F("error", err.Error()))
		writeError(w, http.StatusInternalServerError, errInternal)
	}
}

// money renders a decimal as a bare JSON number with two fractional digits.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func logErr(r *http.Request, fallback observability.Logger, event string, err error) {
	logctx.FromOr(r.Context(), fallback).Error(event, observability.F("error", err.Error()))
}
