package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/luxeshopapp/luxeshop/internal/services"
)

type createOrderRequest struct {
	CustomerEmail   string                   `json:"customer_email"`
	ShippingAddress string                   `json:"shipping_address"`
	PaymentMethod   string                   `json:"payment_method"`
	PaymentRef      string                   `json:"payment_ref"`
	Items           []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CreateOrder is the checkout endpoint. The acting customer comes from the
// token, never from the payload.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	var req createOrderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	input := services.PlaceOrderInput{
		CustomerID:      principal.UserID,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentRef:      req.PaymentRef,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, services.PlaceOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.orderService.PlaceOrder(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, order)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	orders, err := h.orderService.ListCustomerOrders(r.Context(), principal.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	orderID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetCustomerOrder(r.Context(), orderID, principal.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, order)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	orderID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.CancelOrder(r.Context(), orderID, principal.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, order)
}

type requestReturnRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) RequestReturn(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	orderID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req requestReturnRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	ret, err := h.returnService.RequestReturn(r.Context(), orderID, principal.UserID, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, ret)
}
