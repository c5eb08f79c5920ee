package httppresentation

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	appmenu "github.com/Zhima-Mochi/homeflavors/internal/application/menu"
	appnotification "github.com/Zhima-Mochi/homeflavors/internal/application/notification"
	apporder "github.com/Zhima-Mochi/homeflavors/internal/application/order"
	dommenu "github.com/Zhima-Mochi/homeflavors/internal/domain/menu"
	domorder "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
)

type menuItemResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Image       string      `json:"image"`
	Category    string      `json:"category"`
	Available   *bool       `json:"available,omitempty"`
}

type menuCategoryResponse struct {
	Category string             `json:"category"`
	Items    []menuItemResponse `json:"items"`
}

func (h *Handler) handleListMenu(w http.ResponseWriter, r *http.Request) {
	categories, err := h.uc.ListMenu.Execute(r.Context(), appmenu.ListMenuInput{})
	if err != nil {
		logErr(r, h.log, "menu_fetch_failed", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to fetch menu"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuResponse(categories))
}

func toMenuResponse(categories []dommenu.Category) []menuCategoryResponse {
	out := make([]menuCategoryResponse, 0, len(categories))
	for _, c := range categories {
		items := make([]menuItemResponse, 0, len(c.Items))
		for _, it := range c.Items {
			items = append(items, menuItemResponse{
				ID:          it.ID,
				Name:        it.Name,
				Description: it.Description,
				Price:       money(it.Price),
				Image:       it.Image,
				Category:    it.Category,
				Available:   it.Available,
			})
		}
		out = append(out, menuCategoryResponse{Category: c.Category, Items: items})
	}
	return out
}

type orderItemRequest struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type customerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type submitOrderRequest struct {
	SourceID        string             `json:"sourceId"`
	OrderItems      []orderItemRequest `json:"orderItems"`
	CustomerDetails customerRequest    `json:"customerDetails"`
}

type submitOrderResponse struct {
	Success            bool        `json:"success"`
	OrderNumber        string      `json:"orderNumber"`
	PaymentID          string      `json:"paymentId"`
	Total              json.Number `json:"total"`
	NotificationStatus string      `json:"notificationStatus"`
}

func (h *Handler) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	items := make([]domorder.Item, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, domorder.Item{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}

	result, err := h.uc.SubmitOrder.Execute(r.Context(), apporder.SubmitOrderInput{
		PaymentToken: req.SourceID,
		Items:        items,
		Customer: domorder.Customer{
			Name:  strings.TrimSpace(req.CustomerDetails.Name),
			Phone: strings.TrimSpace(req.CustomerDetails.Phone),
		},
		IdempotencyKey: strings.TrimSpace(r.Header.Get(headerIdempotencyKey)),
	})
	if err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitOrderResponse{
		Success:            true,
		OrderNumber:        result.OrderNumber,
		PaymentID:          result.PaymentID,
		Total:              money(result.Total),
		NotificationStatus: string(result.NotificationStatus),
	})
}

type orderItemResponse struct {
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

type orderResponse struct {
	OrderNumber string              `json:"orderNumber"`
	Status      string              `json:"status"`
	Items       []orderItemResponse `json:"items"`
	Total       json.Number         `json:"total"`
	Customer    customerRequest     `json:"customer"`
	PaymentID   string              `json:"paymentId"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{Name: it.Name, Price: money(it.Price), Quantity: it.Quantity})
	}
	return orderResponse{
		OrderNumber: o.Number,
		Status:      string(o.Status),
		Items:       items,
		Total:       money(o.Total),
		Customer:    customerRequest{Name: o.Customer.Name, Phone: o.Customer.Phone},
		PaymentID:   o.PaymentID,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.GetOrder.Execute(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateStatusResponse struct {
	OrderNumber        string `json:"orderNumber"`
	Status             string `json:"status"`
	NotificationStatus string `json:"notificationStatus"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.uc.UpdateStatus.Execute(r.Context(), apporder.UpdateOrderStatusInput{
		OrderNumber: chi.URLParam(r, "orderNumber"),
		Status:      strings.TrimSpace(req.Status),
	})
	if err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, updateStatusResponse{
		OrderNumber:        result.OrderNumber,
		Status:             string(result.Status),
		NotificationStatus: string(result.NotificationStatus),
	})
}

type sendTestRequest struct {
	To          string `json:"to"`
	Status      string `json:"status"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

type sendTestResponse struct {
	Success     bool   `json:"success"`
	MessageSID  string `json:"messageSid"`
	OrderNumber string `json:"orderNumber"`
}

func (h *Handler) handleSendTest(w http.ResponseWriter, r *http.Request) {
	var req sendTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.uc.SendTest.Execute(r.Context(), appnotification.SendTestInput{
		To:          strings.TrimSpace(req.To),
		Status:      strings.TrimSpace(req.Status),
		OrderNumber: strings.TrimSpace(req.OrderNumber),
	})
	if err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendTestResponse{
		Success:     true,
		MessageSID:  result.MessageSID,
		OrderNumber: result.OrderNumber,
	})
}
