package notification

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/order"
)

// Template names one of the fixed WhatsApp message bodies.
type Template string

const (
	TemplateOrderConfirmation Template = "orderConfirmation"
	TemplateOrderInProgress   Template = "orderInProgress"
	TemplateOrderReady        Template = "orderReady"
	TemplateOrderDelivered    Template = "orderDelivered"
	TemplateOrderCancelled    Template = "orderCancelled"
	TemplateNewOrderForOwner  Template = "newOrderForOwner"
)

var templates = []Template{
	TemplateOrderConfirmation,
	TemplateOrderInProgress,
	TemplateOrderReady,
	TemplateOrderDelivered,
	TemplateOrderCancelled,
	TemplateNewOrderForOwner,
}

// Templates returns the closed template set in declaration order.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

func TemplateNames() []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = string(t)
	}
	return out
}

func ParseTemplate(name string) (Template, error) {
	for _, t := range templates {
		if string(t) == name {
			return t, nil
		}
	}
	return "", &UnknownTemplateError{Name: name, Valid: TemplateNames()}
}

// TemplateForStatus maps a lifecycle status to the customer-facing template.
func TemplateForStatus(s order.Status) (Template, bool) {
	switch s {
	case order.StatusPlaced:
		return TemplateOrderConfirmation, true
	case order.StatusInProgress:
		return TemplateOrderInProgress, true
	case order.StatusReady:
		return TemplateOrderReady, true
	case order.StatusDelivered:
		return TemplateOrderDelivered, true
	case order.StatusCancelled:
		return TemplateOrderCancelled, true
	}
	return "", false
}

// Params carries the values a template may interpolate. Only the owner
// template reads Items, Total and Customer.
type Params struct {
	OrderNumber string
	Items       []order.Item
	Total       decimal.Decimal
	Customer    order.Customer
}

func Render(t Template, p Params) (string, error) {
	n := p.OrderNumber
	switch t {
	case TemplateOrderConfirmation:
		return fmt.Sprintf("🎉 Thank you for your order #%s!\nWe've received your order and will start preparing it shortly.\nWe'll keep you updated on its progress.", n), nil
	case TemplateOrderInProgress:
		return fmt.Sprintf("👨‍🍳 Order #%s Update:\nYour delicious meal is being prepared by our chefs.\nEstimated preparation time: 20-30 minutes.", n), nil
	case TemplateOrderReady:
		return fmt.Sprintf("✅ Order #%s is ready!\nYour order is ready for pickup.\nPlease collect it from our counter.\nThank you for choosing Home Flavors!", n), nil
	case TemplateOrderDelivered:
		return fmt.Sprintf("🚀 Order #%s Delivered!\nWe hope you enjoy your meal.\nPlease rate your experience and provide feedback.", n), nil
	case TemplateOrderCancelled:
		return fmt.Sprintf("❌ Order #%s Cancelled\nYour order has been cancelled as requested.\nAny payment will be refunded within 3-5 business days.", n), nil
	case TemplateNewOrderForOwner:
		return renderOwner(p), nil
	}
	return "", &UnknownTemplateError{Name: string(t), Valid: TemplateNames()}
}

func renderOwner(p Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 New Order #%s\n\n", p.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s\nPhone: %s\n\nItems:\n", p.Customer.Name, p.Customer.Phone)
	for _, it := range p.Items {
		fmt.Fprintf(&b, "- %dx %s ($%s)\n", it.Quantity, it.Name, order.LineTotal(it).StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: $%s", p.Total.StringFixed(2))
	return b.String()
}
