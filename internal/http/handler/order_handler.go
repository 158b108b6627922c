package handler

import (
	"net/http"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// OrderHandler serves orders placed through quote acceptance
type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// List godoc
// @Summary List orders
// @Description Customers see the orders they placed, suppliers the orders placed with them
// @Tags Orders
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param status query string false "Filter by order status" Enums(pending, processing, shipped, delivered, cancelled, refunded)
// @Param sortBy query string false "Sort field" Enums(createdAt, totalAmount, orderNumber, deliverySlot)
// @Param sortOrder query string false "Sort direction" Enums(asc, desc)
// @Success 200 {object} domain.APIResponse{data=[]domain.OrderDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 401 {object} domain.APIResponse
// @Failure 403 {object} domain.APIResponse
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/orders [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters domain.OrderFilters
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.OrderStatus(raw)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status: must be one of pending, processing, shipped, delivered, cancelled, refunded")
			return
		}
		filters.Status = &status
	}
	page, limit := parsePagination(r)

	orders, pagination, err := h.orderService.List(r.Context(), filters, parseSort(r), page, limit)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list orders")
		return
	}

	respondPage(w, orders, pagination)
}

// GetByID godoc
// @Summary Get order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.APIResponse{data=domain.OrderDTO}
// @Failure 400 {object} domain.APIResponse "Invalid ID"
// @Failure 404 {object} domain.APIResponse "Order not found"
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/orders/{id} [get]
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "get order")
		return
	}

	respondData(w, http.StatusOK, "", order)
}

// UpdateStatus godoc
// @Summary Advance order status
// @Description Supplier moves an order one step: pending to processing to shipped to delivered, or cancelled to refunded
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body domain.UpdateOrderStatusRequest true "Target status"
// @Success 200 {object} domain.APIResponse{data=domain.OrderDTO}
// @Failure 400 {object} domain.APIResponse "Invalid ID or transition not allowed"
// @Failure 404 {object} domain.APIResponse "Order not found"
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}
	var req domain.UpdateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "update order status")
		return
	}

	respondData(w, http.StatusOK, "Order status updated", order)
}

// Cancel godoc
// @Summary Cancel order
// @Description Customer cancels a pending or processing order; reserved stock is restored
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body domain.ReasonRequest false "Cancellation reason"
// @Success 200 {object} domain.APIResponse{data=domain.OrderDTO}
// @Failure 400 {object} domain.APIResponse "Invalid ID or order can no longer be cancelled"
// @Failure 404 {object} domain.APIResponse "Order not found"
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/orders/{id}/cancel [put]
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "order")
	if !ok {
		return
	}
	reason, ok := decodeOptionalReason(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.Cancel(r.Context(), id, reason)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "cancel order")
		return
	}

	respondData(w, http.StatusOK, "Order cancelled", order)
}
