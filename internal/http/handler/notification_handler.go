package handler

import (
	"net/http"
	"strconv"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// NotificationHandler handles HTTP requests for the caller's notification inbox
type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// List godoc
// @Summary List notifications
// @Description Get paginated list of notifications for the current user. Expired notifications are hidden.
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Param unreadOnly query bool false "Filter to show only unread notifications" default(false)
// @Param type query string false "Filter by notification type" Enums(order, quote, payment, delivery, review, system)
// @Success 200 {object} domain.APIResponse{data=[]domain.NotificationDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 401 {object} domain.APIResponse
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	var filters domain.NotificationFilters
	filters.UnreadOnly, _ = strconv.ParseBool(r.URL.Query().Get("unreadOnly"))

	if raw := r.URL.Query().Get("type"); raw != "" {
		notificationType := domain.NotificationType(raw)
		if !notificationType.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid notification type: must be one of order, quote, payment, delivery, review, system")
			return
		}
		filters.Type = &notificationType
	}

	notifications, pagination, err := h.notificationService.ListForCurrentUser(r.Context(), filters, page, limit)
	if err != nil {
		handleServiceError(w, r, h.logger, err, "list notifications")
		return
	}

	respondPage(w, notifications, pagination)
}

// GetUnreadCount godoc
// @Summary Get unread notification count
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.APIResponse{data=domain.UnreadCountDTO}
// @Failure 401 {object} domain.APIResponse
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/notifications/count [get]
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.GetUnreadCount(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "get unread count")
		return
	}

	respondData(w, http.StatusOK, "", count)
}

// MarkAsRead godoc
// @Summary Mark notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.APIResponse "Invalid ID"
// @Failure 404 {object} domain.APIResponse "Notification not found"
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkAsRead(r.Context(), id); err != nil {
		handleServiceError(w, r, h.logger, err, "mark notification as read")
		return
	}

	respondData(w, http.StatusOK, "Notification marked as read", nil)
}

// MarkAllAsRead godoc
// @Summary Mark all notifications as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.APIResponse{data=domain.UnreadCountDTO} "count holds the number of notifications updated"
// @Failure 401 {object} domain.APIResponse
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/notifications/read-all [put]
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.MarkAllAsRead(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "mark all notifications as read")
		return
	}

	respondData(w, http.StatusOK, "All notifications marked as read", domain.UnreadCountDTO{Count: count})
}
