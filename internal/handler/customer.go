package handler

import (
	"net/http"

	"github.com/xenking/orderdesk/internal/domain/customer"
)

type customerRequest struct {
	Name     string `json:"name"`
	Priority bool   `json:"priority"`
}

type customerResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Priority bool   `json:"priority"`
}

func toCustomerResponse(c customer.Customer) customerResponse {
	return customerResponse{ID: c.ID, Name: c.Name, Priority: c.Priority}
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	resp := make([]customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = toCustomerResponse(c)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCustomerResponse(*c))
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	c := &customer.Customer{Name: req.Name, Priority: req.Priority}
	if err := h.customers.Create(r.Context(), c); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCustomerResponse(*c))
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req customerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c := &customer.Customer{ID: id, Name: req.Name, Priority: req.Priority}
	updated, err := h.customers.Update(r.Context(), c)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !updated {
		respondError(w, http.StatusNotFound, customer.ErrNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, toCustomerResponse(*c))
}

func (h *Handler) patchCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name     *string `json:"name"`
		Priority *bool   `json:"priority"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	fields := make(map[string]any)
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Priority != nil {
		fields["priority"] = *req.Priority
	}
	if len(fields) == 0 {
		respondError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	updated, err := h.customers.UpdateFields(r.Context(), id, fields)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !updated {
		respondError(w, http.StatusNotFound, customer.ErrNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "customer updated"})
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.customers.Delete(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, customer.ErrNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "customer deleted"})
}
