package handler

import (
	"net/http"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// QuoteRequestHandler serves the customer side of the quote workflow
type QuoteRequestHandler struct {
	quoteService *service.QuoteService
	logger       *zap.Logger
}

func NewQuoteRequestHandler(quoteService *service.QuoteService, logger *zap.Logger) *QuoteRequestHandler {
	return &QuoteRequestHandler{
		quoteService: quoteService,
		logger:       logger,
	}
}

// parseQuoteRequestStatus reads the optional status filter, writing a 400 for unknown values
func parseQuoteRequestStatus(w http.ResponseWriter, r *http.Request) (*domain.QuoteRequestStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	status := domain.QuoteRequestStatus(raw)
	if !status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Invalid status: must be one of pending, quoted, accepted, cancelled, expired")
		return nil, false
	}
	return &status, true
}

// Create godoc
// @Summary Create quote request
// @Description Publishes a request for quotation to targeted suppliers, or to every active supplier when broadcastToAll is set
// @Tags Quote Requests
// @Accept json
// @Produce json
// @Param request body domain.CreateQuoteRequestRequest true "Quote request"
// @Success 201 {object} domain.APIResponse{data=domain.QuoteRequestDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 401 {object} domain.APIResponse
// @Failure 403 {object} domain.APIResponse
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/quotes/request [post]
func (h *QuoteRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuoteRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quote, err := h.quoteService.CreateQuoteRequest(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "create quote request")
		return
	}

	w.Header().Set("Location", "/api/quotes/request/"+quote.ID.String())
	respondData(w, http.StatusCreated, "Quote request created", quote)
}

// List godoc
// @Summary List own quote requests
// @Tags Quote Requests
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param status query string false "Filter by status" Enums(pending, quoted, accepted, cancelled, expired)
// @Success 200 {object} domain.APIResponse{data=[]domain.QuoteRequestDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 401 {object} domain.APIResponse
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/quotes/request [get]
func (h *QuoteRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	status, ok := parseQuoteRequestStatus(w, r)
	if !ok {
		return
	}
	page, limit := parsePagination(r)

	quotes, pagination, err := h.quoteService.ListCustomerRequests(r.Context(), domain.QuoteRequestFilters{Status: status}, page, limit)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list quote requests")
		return
	}

	respondPage(w, quotes, pagination)
}

// GetByID godoc
// @Summary Get quote request
// @Description Returns one of the caller's quote requests with its responses, cheapest first
// @Tags Quote Requests
// @Produce json
// @Param id path string true "Quote request ID"
// @Success 200 {object} domain.APIResponse{data=domain.QuoteRequestDetailDTO}
// @Failure 400 {object} domain.APIResponse "Invalid ID"
// @Failure 404 {object} domain.APIResponse "Quote request not found"
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/quotes/request/{id} [get]
func (h *QuoteRequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "quote request")
	if !ok {
		return
	}

	quote, err := h.quoteService.GetCustomerRequest(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "get quote request")
		return
	}

	respondData(w, http.StatusOK, "", quote)
}

// Cancel godoc
// @Summary Cancel quote request
// @Description Cancels a pending or quoted request and rejects its pending responses
// @Tags Quote Requests
// @Accept json
// @Produce json
// @Param id path string true "Quote request ID"
// @Param request body domain.ReasonRequest false "Cancellation reason"
// @Success 200 {object} domain.APIResponse{data=domain.QuoteRequestDTO}
// @Failure 400 {object} domain.APIResponse "Invalid ID or request already closed"
// @Failure 404 {object} domain.APIResponse "Quote request not found"
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/quotes/request/{id}/cancel [put]
func (h *QuoteRequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "quote request")
	if !ok {
		return
	}
	reason, ok := decodeOptionalReason(w, r)
	if !ok {
		return
	}

	quote, err := h.quoteService.CancelQuoteRequest(r.Context(), id, reason)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "cancel quote request")
		return
	}

	respondData(w, http.StatusOK, "Quote request cancelled", quote)
}

// Accept godoc
// @Summary Accept quote response
// @Description Accepts one response, rejects the other pending responses and places an order, atomically
// @Tags Quote Requests
// @Produce json
// @Param id path string true "Quote request ID"
// @Param responseId path string true "Quote response ID"
// @Success 200 {object} domain.APIResponse{data=domain.AcceptQuoteResultDTO}
// @Failure 400 {object} domain.APIResponse "Invalid ID, request closed, response not pending or expired"
// @Failure 404 {object} domain.APIResponse "Quote request or response not found"
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/quotes/request/{id}/accept/{responseId} [put]
func (h *QuoteRequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	requestID, ok := parseUUIDParam(w, r, "id", "quote request")
	if !ok {
		return
	}
	responseID, ok := parseUUIDParam(w, r, "responseId", "quote response")
	if !ok {
		return
	}

	result, err := h.quoteService.AcceptResponse(r.Context(), requestID, responseID)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "accept quote response")
		return
	}

	respondData(w, http.StatusOK, "Quote accepted and order placed", result)
}
