package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationError reports bad or missing caller input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// Validate checks the customer details and every line of a submission.
func Validate(items []Item, customer Customer) error {
	if strings.TrimSpace(customer.Name) == "" {
		return &ValidationError{Field: "customerDetails.name", Reason: "is required"}
	}
	if strings.TrimSpace(customer.Phone) == "" {
		return &ValidationError{Field: "customerDetails.phone", Reason: "is required"}
	}
	if len(items) == 0 {
		return &ValidationError{Field: "orderItems", Reason: "must contain at least one item"}
	}
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return &ValidationError{Field: fmt.Sprintf("orderItems[%d].name", i), Reason: "is required"}
		}
		if it.Quantity < 1 {
			return &ValidationError{Field: fmt.Sprintf("orderItems[%d].quantity", i), Reason: "must be at least 1"}
		}
		if err := validatePrice(it.Price); err != nil {
			err.Field = fmt.Sprintf("orderItems[%d].price", i)
			return err
		}
	}
	if Total(items).GreaterThan(MaxOrderTotal) {
		return &ValidationError{Field: "orderItems", Reason: "total must not exceed " + MaxOrderTotal.StringFixed(2)}
	}
	return nil
}

// validatePrice checks the decimal's shape first so no arithmetic runs on
// inputs such as 1e30000000.
func validatePrice(p decimal.Decimal) *ValidationError {
	if !boundedShape(p) {
		return &ValidationError{Reason: "is out of range"}
	}
	if p.IsNegative() {
		return &ValidationError{Reason: "must be zero or greater"}
	}
	if !p.Equal(p.Round(2)) {
		return &ValidationError{Reason: "must have at most two decimal places"}
	}
	if p.GreaterThan(MaxItemPrice) {
		return &ValidationError{Reason: "must not exceed " + MaxItemPrice.StringFixed(2)}
	}
	return nil
}
