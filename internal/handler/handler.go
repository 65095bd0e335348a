// Package handler exposes the retail API over HTTP. Routing is chi; request
// and response bodies are JSON. Domain errors map to statuses here and
// nowhere else.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/orderdesk/internal/domain/customer"
	"github.com/xenking/orderdesk/internal/domain/discount"
	"github.com/xenking/orderdesk/internal/domain/item"
	"github.com/xenking/orderdesk/internal/domain/order"
)

// Handler serves the items, customers, and orders resources.
type Handler struct {
	items     item.Repository
	customers customer.Repository
	discounts discount.Ledger
	orders    *order.Service
}

// New constructs a Handler with the required domain dependencies.
func New(
	items item.Repository,
	customers customer.Repository,
	discounts discount.Ledger,
	orders *order.Service,
) *Handler {
	return &Handler{
		items:     items,
		customers: customers,
		discounts: discounts,
		orders:    orders,
	}
}

// Routes returns the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Post("/", h.createItem)
		r.Get("/discounts/all", h.listDiscounts)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getItem)
			r.Put("/", h.updateItem)
			r.Patch("/", h.patchItem)
			r.Delete("/", h.deleteItem)
			r.Delete("/discount", h.removeItemDiscount)
		})
	})

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getCustomer)
			r.Put("/", h.updateCustomer)
			r.Patch("/", h.patchCustomer)
			r.Delete("/", h.deleteCustomer)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.placeOrder)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getOrder)
			r.Put("/", h.modifyOrder)
			r.Patch("/", h.patchOrder)
			r.Delete("/", h.deleteOrder)
		})
	})

	return r
}

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Message string `json:"message"`
}

// messageResponse acknowledges mutations that return no entity.
type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Message: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pathID parses the {id} route parameter. Responds 400 and returns false on
// a non-numeric value.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// respondDomainError maps domain errors to HTTP statuses. Unexpected errors
// are logged and reported as 500.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr     *order.InsufficientStockError
		qtyErr       *order.InvalidQuantityError
		immutableErr *order.ImmutableFieldError
		unknownErr   *order.UnknownFieldError
	)
	switch {
	case errors.Is(err, item.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, discount.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, item.ErrHasOrders):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &stockErr),
		errors.As(err, &qtyErr),
		errors.As(err, &immutableErr),
		errors.As(err, &unknownErr):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
