package handler

import (
	"net/http"
	"time"

	"github.com/xenking/orderdesk/internal/domain/order"
)

type orderRequest struct {
	CustomerID    int64 `json:"customerId"`
	ItemID        int64 `json:"itemId"`
	Quantity      int   `json:"quantity"`
	ApplyDiscount bool  `json:"applyDiscount"`
}

type orderResponse struct {
	ID              int64     `json:"id"`
	CustomerID      int64     `json:"customerId"`
	ItemID          int64     `json:"itemId"`
	Quantity        int       `json:"quantity"`
	TotalPrice      float64   `json:"totalPrice"`
	AppliedDiscount float64   `json:"appliedDiscount"`
	DiscountAmount  float64   `json:"discountAmount"`
	CreatedAt       time.Time `json:"createdAt"`
}

type orderDetailResponse struct {
	orderResponse
	CustomerName    string   `json:"customerName"`
	ItemDescription string   `json:"itemDescription"`
	ItemPrice       *float64 `json:"itemPrice"`
}

func toOrderResponse(o order.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		ItemID:          o.ItemID,
		Quantity:        o.Quantity,
		TotalPrice:      o.TotalPrice.InexactFloat64(),
		AppliedDiscount: o.AppliedDiscount.InexactFloat64(),
		DiscountAmount:  o.DiscountAmount.InexactFloat64(),
		CreatedAt:       o.CreatedAt,
	}
}

func toOrderDetailResponse(d order.Detail) orderDetailResponse {
	resp := orderDetailResponse{
		orderResponse:   toOrderResponse(d.Order),
		CustomerName:    d.CustomerName,
		ItemDescription: d.ItemDescription,
	}
	if d.ItemPrice.Valid {
		price := d.ItemPrice.Decimal.InexactFloat64()
		resp.ItemPrice = &price
	}
	return resp
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	details, err := h.orders.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	resp := make([]orderDetailResponse, len(details))
	for i, d := range details {
		resp[i] = toOrderDetailResponse(d)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDetailResponse(*d))
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.Place(r.Context(), order.MutateRequest{
		CustomerID:    req.CustomerID,
		ItemID:        req.ItemID,
		Quantity:      req.Quantity,
		ApplyDiscount: req.ApplyDiscount,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toOrderResponse(*o))
}

func (h *Handler) modifyOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.orders.Modify(r.Context(), id, order.MutateRequest{
		CustomerID:    req.CustomerID,
		ItemID:        req.ItemID,
		Quantity:      req.Quantity,
		ApplyDiscount: req.ApplyDiscount,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	d, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDetailResponse(*d))
}

// patchOrder is the partial-update escape hatch. The lifecycle fields
// (customer, item, quantity) are rejected by the service so stock and
// pricing invariants cannot be bypassed.
func (h *Handler) patchOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var fields map[string]any
	if !decodeBody(w, r, &fields) {
		return
	}

	updated, err := h.orders.Patch(r.Context(), id, fields)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !updated {
		respondError(w, http.StatusNotFound, order.ErrNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "order updated"})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.orders.Delete(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, order.ErrNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "order deleted"})
}
