package handler

import (
	"net/http"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// QuoteResponseHandler serves the supplier side of the quote workflow
type QuoteResponseHandler struct {
	quoteService *service.QuoteService
	logger       *zap.Logger
}

func NewQuoteResponseHandler(quoteService *service.QuoteService, logger *zap.Logger) *QuoteResponseHandler {
	return &QuoteResponseHandler{
		quoteService: quoteService,
		logger:       logger,
	}
}

// ListRequests godoc
// @Summary List quote requests open to the supplier
// @Description Open requests addressed to the caller or broadcast, with hasResponded set per request. Past-deadline requests are hidden.
// @Tags Quote Responses
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param status query string false "Filter by status" Enums(pending, quoted)
// @Success 200 {object} domain.APIResponse{data=[]domain.SupplierQuoteRequestDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 401 {object} domain.APIResponse
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/quotes/response/requests [get]
func (h *QuoteResponseHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	status, ok := parseQuoteRequestStatus(w, r)
	if !ok {
		return
	}
	page, limit := parsePagination(r)

	quotes, pagination, err := h.quoteService.ListForSupplier(r.Context(), domain.QuoteRequestFilters{Status: status}, page, limit)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list quote requests")
		return
	}

	respondPage(w, quotes, pagination)
}

// Submit godoc
// @Summary Submit quote response
// @Description Prices an open quote request. One response per supplier and request.
// @Tags Quote Responses
// @Accept json
// @Produce json
// @Param request body domain.SubmitQuoteResponseRequest true "Quote response"
// @Success 201 {object} domain.APIResponse{data=domain.QuoteResponseDTO}
// @Failure 400 {object} domain.APIResponse "Validation failed, already responded, request closed or past its deadline"
// @Failure 403 {object} domain.APIResponse "Supplier is not a recipient"
// @Failure 404 {object} domain.APIResponse "Quote request not found"
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/quotes/response [post]
func (h *QuoteResponseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitQuoteResponseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.quoteService.SubmitResponse(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "submit quote response")
		return
	}

	w.Header().Set("Location", "/api/quotes/response/"+response.ID.String())
	respondData(w, http.StatusCreated, "Quote response submitted", response)
}

// List godoc
// @Summary List own quote responses
// @Tags Quote Responses
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param status query string false "Filter by status" Enums(pending, accepted, rejected, withdrawn)
// @Success 200 {object} domain.APIResponse{data=[]domain.QuoteResponseDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 401 {object} domain.APIResponse
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/quotes/response [get]
func (h *QuoteResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters domain.QuoteResponseFilters
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.QuoteResponseStatus(raw)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status: must be one of pending, accepted, rejected, withdrawn")
			return
		}
		filters.Status = &status
	}
	page, limit := parsePagination(r)

	responses, pagination, err := h.quoteService.ListSupplierResponses(r.Context(), filters, page, limit)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list quote responses")
		return
	}

	respondPage(w, responses, pagination)
}

// GetByID godoc
// @Summary Get own quote response
// @Tags Quote Responses
// @Produce json
// @Param id path string true "Quote response ID"
// @Success 200 {object} domain.APIResponse{data=domain.QuoteResponseDTO}
// @Failure 400 {object} domain.APIResponse "Invalid ID"
// @Failure 404 {object} domain.APIResponse "Quote response not found"
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/quotes/response/{id} [get]
func (h *QuoteResponseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "quote response")
	if !ok {
		return
	}

	response, err := h.quoteService.GetSupplierResponse(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "get quote response")
		return
	}

	respondData(w, http.StatusOK, "", response)
}

// Withdraw godoc
// @Summary Withdraw quote response
// @Description Withdraws a pending response; accepted or rejected responses cannot be withdrawn
// @Tags Quote Responses
// @Accept json
// @Produce json
// @Param id path string true "Quote response ID"
// @Param request body domain.ReasonRequest false "Withdrawal reason"
// @Success 200 {object} domain.APIResponse{data=domain.QuoteResponseDTO}
// @Failure 400 {object} domain.APIResponse "Invalid ID or response no longer pending"
// @Failure 404 {object} domain.APIResponse "Quote response not found"
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/quotes/response/{id}/withdraw [put]
func (h *QuoteResponseHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "quote response")
	if !ok {
		return
	}
	reason, ok := decodeOptionalReason(w, r)
	if !ok {
		return
	}

	response, err := h.quoteService.WithdrawResponse(r.Context(), id, reason)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "withdraw quote response")
		return
	}

	respondData(w, http.StatusOK, "Quote response withdrawn", response)
}
