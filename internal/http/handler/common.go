package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/buildmart/marketplace-api/internal/auth"
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/http/middleware"
	"github.com/buildmart/marketplace-api/internal/logger"
	"github.com/buildmart/marketplace-api/internal/repository"
	"github.com/buildmart/marketplace-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondData wraps data in the success envelope
func respondData(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, domain.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondPage wraps a page of results and its pagination in the success envelope
func respondPage(w http.ResponseWriter, data interface{}, pagination *domain.Pagination) {
	respondJSON(w, http.StatusOK, domain.APIResponse{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	})
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIResponse{
		Success: false,
		Code:    getErrorType(status),
		Message: message,
	})
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	fieldErrors := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fieldErrors[jsonFieldPath(fe.Namespace())] = formatValidationError(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.APIResponse{
		Success: false,
		Code:    domain.ErrorTypeValidation,
		Message: "One or more fields failed validation",
		Errors:  fieldErrors,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// jsonFieldPath turns "SubmitQuoteResponseRequest.Items[0].UnitPrice" into "items[0].unitPrice"
func jsonFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = toJSONFieldName(p)
	}
	return strings.Join(parts, ".")
}

// getErrorType returns the envelope code for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	default:
		return domain.ErrorTypeInternal
	}
}

// handleServiceError maps a service error to a status by its category.
// Conflict and Expired are client errors reported as 400 with their own code.
func handleServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, action string) {
	var status int
	var code string

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status, code = http.StatusBadRequest, domain.ErrorTypeValidation
	case errors.Is(err, service.ErrConflict):
		status, code = http.StatusBadRequest, domain.ErrorTypeConflict
	case errors.Is(err, service.ErrExpired):
		status, code = http.StatusBadRequest, domain.ErrorTypeExpired
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, domain.ErrorTypeNotFound
	case errors.Is(err, service.ErrForbidden):
		status, code = http.StatusForbidden, domain.ErrorTypeForbidden
	case errors.Is(err, service.ErrUnauthorized):
		status, code = http.StatusUnauthorized, domain.ErrorTypeUnauthorized
	default:
		requestLogger(r, log).Error("failed to "+action, zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.APIResponse{
			Success: false,
			Code:    domain.ErrorTypeInternal,
			Message: "Failed to " + action,
		})
		return
	}

	respondJSON(w, status, domain.APIResponse{
		Success: false,
		Code:    code,
		Message: err.Error(),
	})
}

// requestLogger scopes log lines to the request and, when known, the caller
func requestLogger(r *http.Request, log *zap.Logger) *zap.Logger {
	l := logger.WithRequest(log, r.Method, r.URL.Path, middleware.RequestIDFromContext(r.Context()))
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		l = logger.WithUser(l, userCtx.UserID.String(), string(userCtx.Role))
	}
	return l
}

// decodeJSON decodes the body into dst and validates it, writing the 400 itself on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// decodeOptionalReason accepts an empty body as "no reason"
func decodeOptionalReason(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req domain.ReasonRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
			return "", false
		}
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return "", false
	}
	return req.Reason, true
}

// parseUUIDParam reads a chi path parameter as a uuid
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID: must be a valid UUID", label))
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads page and limit; pageSize is accepted as an alias of limit
func parsePagination(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit == 0 {
		limit, _ = strconv.Atoi(q.Get("pageSize"))
	}
	return repository.NormalizePage(page, limit)
}

// parseSort reads sortBy and sortOrder, defaulting to newest first
func parseSort(r *http.Request) repository.SortConfig {
	sort := repository.DefaultSortConfig()
	if field := r.URL.Query().Get("sortBy"); field != "" {
		sort.Field = field
	}
	if order := r.URL.Query().Get("sortOrder"); order != "" {
		sort.Order = repository.ParseSortOrder(order)
	}
	return sort
}
