package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/orderdesk/internal/domain/item"
)

type itemRequest struct {
	Description     string   `json:"description"`
	Quantity        int      `json:"quantity"`
	Price           *float64 `json:"price"`
	DiscountPercent *float64 `json:"discountPercent"`
}

type itemResponse struct {
	ID          int64    `json:"id"`
	Description string   `json:"description"`
	Quantity    int      `json:"quantity"`
	Price       *float64 `json:"price"`
}

type discountResponse struct {
	ID          int64   `json:"id"`
	ItemID      int64   `json:"itemId"`
	Percent     float64 `json:"percent"`
	Description string  `json:"description"`
	Active      bool    `json:"active"`
}

func toItemResponse(it item.Item) itemResponse {
	resp := itemResponse{
		ID:          it.ID,
		Description: it.Description,
		Quantity:    it.Quantity,
	}
	if it.Price.Valid {
		price := it.Price.Decimal.InexactFloat64()
		resp.Price = &price
	}
	return resp
}

func toNullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*v), Valid: true}
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	resp := make([]itemResponse, len(items))
	for i, it := range items {
		resp[i] = toItemResponse(it)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	it, err := h.items.GetByID(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemResponse(*it))
}

// createItem inserts a catalog item and seeds its discount ledger row. The
// ledger write is a non-critical side effect: a failure is logged, never
// surfaced, and the item creation still succeeds.
func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	it := &item.Item{
		Description: req.Description,
		Quantity:    req.Quantity,
		Price:       toNullDecimal(req.Price),
	}
	if err := h.items.Create(r.Context(), it); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	percent := decimal.Zero
	if req.DiscountPercent != nil {
		percent = decimal.NewFromFloat(*req.DiscountPercent)
	}
	h.upsertItemDiscount(r, it.ID, percent, "Discount for "+it.Description)

	respondJSON(w, http.StatusCreated, toItemResponse(*it))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	it := &item.Item{
		ID:          id,
		Description: req.Description,
		Quantity:    req.Quantity,
		Price:       toNullDecimal(req.Price),
	}
	updated, err := h.items.Update(r.Context(), it)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !updated {
		respondError(w, http.StatusNotFound, item.ErrNotFound.Error())
		return
	}

	if req.DiscountPercent != nil {
		h.upsertItemDiscount(r, id, decimal.NewFromFloat(*req.DiscountPercent), "Discount for "+req.Description)
	}

	respondJSON(w, http.StatusOK, toItemResponse(*it))
}

func (h *Handler) patchItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Description     *string  `json:"description"`
		Quantity        *int     `json:"quantity"`
		Price           *float64 `json:"price"`
		DiscountPercent *float64 `json:"discountPercent"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	fields := make(map[string]any)
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			respondError(w, http.StatusBadRequest, "quantity must not be negative")
			return
		}
		fields["quantity"] = *req.Quantity
	}
	if req.Price != nil {
		fields["price"] = decimal.NewFromFloat(*req.Price)
	}

	if len(fields) > 0 {
		updated, err := h.items.UpdateFields(r.Context(), id, fields)
		if err != nil {
			h.respondDomainError(w, r, err)
			return
		}
		if !updated {
			respondError(w, http.StatusNotFound, item.ErrNotFound.Error())
			return
		}
	}

	if req.DiscountPercent != nil {
		h.upsertItemDiscount(r, id, decimal.NewFromFloat(*req.DiscountPercent), "")
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "item updated"})
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.items.Delete(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, item.ErrNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "item deleted"})
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.discounts.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	resp := make([]discountResponse, len(discounts))
	for i, d := range discounts {
		resp[i] = discountResponse{
			ID:          d.ID,
			ItemID:      d.ItemID,
			Percent:     d.Percent.InexactFloat64(),
			Description: d.Description,
			Active:      d.Active,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) removeItemDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	removed, err := h.discounts.Remove(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "item has no discount")
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "discount removed"})
}

// upsertItemDiscount writes to the discount ledger, swallowing failures so
// the enclosing item mutation cannot be broken by the side effect.
func (h *Handler) upsertItemDiscount(r *http.Request, itemID int64, percent decimal.Decimal, description string) {
	if _, err := h.discounts.Upsert(r.Context(), itemID, percent, description); err != nil {
		zctx.From(r.Context()).Warn("discount upsert failed",
			zap.Int64("item_id", itemID),
			zap.Error(err))
	}
}
