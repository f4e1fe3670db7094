package handlers

import (
	"net/http"

	"github.com/luxeshopapp/luxeshop/internal/models"
	"github.com/luxeshopapp/luxeshop/internal/services"
)

// AdminListOrders lists orders for the dashboard, optionally filtered by
// ?status=.
func (h *Handlers) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))

	orders, err := h.orderService.ListOrders(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, orders)
}

type updateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

func (h *Handlers) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.TransitionOrder(r.Context(), orderID, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, order)
}

type assignShippingRequest struct {
	Courier    string `json:"courier"`
	TrackingID string `json:"tracking_id"`
}

func (h *Handlers) AdminAssignShipping(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req assignShippingRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	shipping, err := h.shippingService.AssignShipping(r.Context(), services.AssignShippingInput{
		OrderID:    orderID,
		Courier:    req.Courier,
		TrackingID: req.TrackingID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, shipping)
}

type advanceStageRequest struct {
	Stage    models.ShippingStage `json:"stage"`
	Location string               `json:"location"`
}

func (h *Handlers) AdminAdvanceShippingStage(w http.ResponseWriter, r *http.Request) {
	shippingID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req advanceStageRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	shipping, err := h.shippingService.AdvanceStage(r.Context(), shippingID, req.Stage, req.Location)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, shipping)
}

type updateReturnStatusRequest struct {
	Status models.ReturnStatus `json:"status"`
}

func (h *Handlers) AdminUpdateReturnStatus(w http.ResponseWriter, r *http.Request) {
	returnID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateReturnStatusRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	ret, err := h.returnService.AdvanceReturn(r.Context(), returnID, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, ret)
}

func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, stats)
}

func (h *Handlers) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, products)
}

type createProductRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	PriceCents    int    `json:"price_cents"`
	OriginalCents int    `json:"original_cents"`
	Image         string `json:"image"`
	Category      string `json:"category"`
	Stock         int    `json:"stock"`
	IsActive      bool   `json:"is_active"`
}

func (h *Handlers) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), services.CreateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		PriceCents:    req.PriceCents,
		OriginalCents: req.OriginalCents,
		Image:         req.Image,
		Category:      req.Category,
		Stock:         req.Stock,
		IsActive:      req.IsActive,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, product)
}

func (h *Handlers) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), productID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateProductRequest struct {
	IsActive *bool `json:"is_active"`
	Stock    *int  `json:"stock"`
}

// AdminUpdateProduct applies partial product updates: activation toggles and
// stock adjustments. Price and name edits are deliberately not supported so
// the catalog stays aligned with the seed file.
func (h *Handlers) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateProductRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil && req.Stock == nil {
		h.writeErrorMessage(w, r, http.StatusBadRequest, "nothing to update")
		return
	}

	if req.IsActive != nil {
		if err := h.productService.SetProductActive(r.Context(), productID, *req.IsActive); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if req.Stock != nil {
		if err := h.productService.UpdateProductStock(r.Context(), productID, *req.Stock); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	product, err := h.productService.GetProduct(r.Context(), productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, product)
}
