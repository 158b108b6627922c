package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildmart/marketplace-api/internal/auth"
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/mapper"
	"github.com/buildmart/marketplace-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationEventKind identifies a workflow transition another party must learn about
type NotificationEventKind string

const (
	EventQuoteRequestReceived  NotificationEventKind = "quote_request_received"
	EventQuoteReceived         NotificationEventKind = "quote_received"
	EventQuoteAccepted         NotificationEventKind = "quote_accepted"
	EventQuoteNotSelected      NotificationEventKind = "quote_not_selected"
	EventQuoteWithdrawn        NotificationEventKind = "quote_withdrawn"
	EventQuoteRequestCancelled NotificationEventKind = "quote_request_cancelled"
	EventOrderPlaced           NotificationEventKind = "order_placed"
	EventOrderStatusChanged    NotificationEventKind = "order_status_changed"
	EventOrderCancelled        NotificationEventKind = "order_cancelled"
)

// NotificationEvent carries everything a template needs to render one kind of notification
type NotificationEvent struct {
	Kind       NotificationEventKind
	Recipients []uuid.UUID

	QuoteRequestID  *uuid.UUID
	QuoteResponseID *uuid.UUID
	OrderID         *uuid.UUID

	QuoteNumber    string
	ResponseNumber string
	OrderNumber    string
	Amount         float64
	Reason         string
	Status         string
}

type notificationTemplate struct {
	Type     domain.NotificationType
	Title    string
	Message  func(e NotificationEvent) string
	Action   func(e NotificationEvent) string
	Icon     string
	Color    string
	Priority domain.NotificationPriority
}

func quoteRequestURL(e NotificationEvent) string {
	if e.QuoteRequestID == nil {
		return ""
	}
	return "/quotes/request/" + e.QuoteRequestID.String()
}

func orderURL(e NotificationEvent) string {
	if e.OrderID == nil {
		return ""
	}
	return "/orders/" + e.OrderID.String()
}

func withReason(message, reason string) string {
	if reason == "" {
		return message
	}
	return message + " Reason: " + reason
}

var notificationTemplates = map[NotificationEventKind]notificationTemplate{
	EventQuoteRequestReceived: {
		Type:  domain.NotificationTypeQuote,
		Title: "New quote request",
		Message: func(e NotificationEvent) string {
			return fmt.Sprintf("A customer has requested a quote (%s). Submit your pricing before the deadline.", e.QuoteNumber)
		},
		Action:   quoteRequestURL,
		Icon:     "file-text",
		Color:    "blue",
		Priority: domain.NotificationPriorityNormal,
	},
	EventQuoteReceived: {
		Type:  domain.NotificationTypeQuote,
		Title: "Quote received",
		Message: func(e NotificationEvent) string {
			return fmt.Sprintf("You received quote %s for request %s totalling %.2f.", e.ResponseNumber, e.QuoteNumber, e.Amount)
		},
		Action:   quoteRequestURL,
		Icon:     "inbox",
		Color:    "green",
		Priority: domain.NotificationPriorityNormal,
	},
	EventQuoteAccepted: {
		Type:  domain.NotificationTypeQuote,
		Title: "Quote accepted",
		Message: func(e NotificationEvent) string {
			return fmt.Sprintf("Your quote %s was accepted. Order %s has been placed.", e.ResponseNumber, e.OrderNumber)
		},
		Action:   orderURL,
		Icon:     "check-circle",
		Color:    "green",
		Priority: domain.NotificationPriorityHigh,
	},
	EventQuoteNotSelected: {
		Type:  domain.NotificationTypeQuote,
		Title: "Quote not selected",
		Message: func(e NotificationEvent) string {
			return fmt.Sprintf("The customer accepted another quote for request %s.", e.QuoteNumber)
		},
		Action:   quoteRequestURL,
		Icon:     "x-circle",
		Color:    "gray",
		Priority: domain.NotificationPriorityLow,
	},
	EventQuoteWithdrawn: {
		Type:  domain.NotificationTypeQuote,
		Title: "Quote withdrawn",
		Message: func(e NotificationEvent) string {
			return withReason(fmt.Sprintf("A supplier withdrew quote %s for request %s.", e.ResponseNumber, e.QuoteNumber), e.Reason)
		},
		Action:   quoteRequestURL,
		Icon:     "rotate-ccw",
		Color:    "orange",
		Priority: domain.NotificationPriorityNormal,
	},
	EventQuoteRequestCancelled: {
		Type:  domain.NotificationTypeQuote,
		Title: "Quote request cancelled",
		Message: func(e NotificationEvent) string {
			return withReason(fmt.Sprintf("The customer cancelled quote request %s.", e.QuoteNumber), e.Reason)
		},
		Action:   quoteRequestURL,
		Icon:     "slash",
		Color:    "gray",
		Priority: domain.NotificationPriorityLow,
	},
	EventOrderPlaced: {
		Type:  domain.NotificationTypeOrder,
		Title: "Order placed",
		Message: func(e NotificationEvent) string {
			return fmt.Sprintf("Order %s was created from your accepted quote, total %.2f.", e.OrderNumber, e.Amount)
		},
		Action:   orderURL,
		Icon:     "shopping-cart",
		Color:    "blue",
		Priority: domain.NotificationPriorityHigh,
	},
	EventOrderStatusChanged: {
		Type:  domain.NotificationTypeDelivery,
		Title: "Order updated",
		Message: func(e NotificationEvent) string {
			return fmt.Sprintf("Order %s is now %s.", e.OrderNumber, e.Status)
		},
		Action:   orderURL,
		Icon:     "truck",
		Color:    "blue",
		Priority: domain.NotificationPriorityNormal,
	},
	EventOrderCancelled: {
		Type:  domain.NotificationTypeOrder,
		Title: "Order cancelled",
		Message: func(e NotificationEvent) string {
			return withReason(fmt.Sprintf("The customer cancelled order %s.", e.OrderNumber), e.Reason)
		},
		Action:   orderURL,
		Icon:     "x-octagon",
		Color:    "red",
		Priority: domain.NotificationPriorityHigh,
	},
}

// DispatchFailure records a recipient whose notification could not be stored
type DispatchFailure struct {
	Kind   NotificationEventKind
	UserID uuid.UUID
	Err    error
}

// NotificationDispatcher records notifications for workflow events. It never fails the caller.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, events ...NotificationEvent) []DispatchFailure
}

// NotificationStore is the persistence used by NotificationService
type NotificationStore interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, filters domain.NotificationFilters, now time.Time, page, limit int) ([]domain.Notification, int64, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

// NotificationService dispatches workflow notifications and serves the user inbox
type NotificationService struct {
	store  NotificationStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService creates a new NotificationService instance.
// ttl sets expiresAt on dispatched notifications; zero keeps them forever.
func NewNotificationService(store NotificationStore, ttl time.Duration, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Dispatch renders each event through its template and stores one notification per
// recipient. Every recipient is attempted; failures are logged and returned.
func (s *NotificationService) Dispatch(ctx context.Context, events ...NotificationEvent) []DispatchFailure {
	var failures []DispatchFailure

	for _, event := range events {
		tmpl, ok := notificationTemplates[event.Kind]
		if !ok {
			s.logger.Error("no notification template for event", zap.String("kind", string(event.Kind)))
			for _, userID := range event.Recipients {
				failures = append(failures, DispatchFailure{Kind: event.Kind, UserID: userID, Err: errors.New("unknown notification event kind")})
			}
			continue
		}

		message := tmpl.Message(event)
		actionURL := tmpl.Action(event)

		var expiresAt *time.Time
		if s.ttl > 0 {
			t := s.now().UTC().Add(s.ttl)
			expiresAt = &t
		}

		for _, userID := range event.Recipients {
			notification := &domain.Notification{
				UserID:          userID,
				Type:            tmpl.Type,
				Event:           string(event.Kind),
				Title:           tmpl.Title,
				Message:         message,
				QuoteRequestID:  event.QuoteRequestID,
				QuoteResponseID: event.QuoteResponseID,
				OrderID:         event.OrderID,
				ActionURL:       actionURL,
				Icon:            tmpl.Icon,
				Color:           tmpl.Color,
				Priority:        tmpl.Priority,
				ExpiresAt:       expiresAt,
			}

			if err := s.store.Create(ctx, notification); err != nil {
				s.logger.Warn("failed to create notification for user",
					zap.String("kind", string(event.Kind)),
					zap.String("userID", userID.String()),
					zap.Error(err),
				)
				failures = append(failures, DispatchFailure{Kind: event.Kind, UserID: userID, Err: err})
			}
		}

		s.logger.Debug("notifications dispatched",
			zap.String("kind", string(event.Kind)),
			zap.Int("recipients", len(event.Recipients)),
		)
	}

	if len(failures) > 0 {
		s.logger.Warn("notification dispatch completed with failures", zap.Int("failed", len(failures)))
	}

	return failures
}

// ListForCurrentUser returns the caller's inbox with pagination
func (s *NotificationService) ListForCurrentUser(ctx context.Context, filters domain.NotificationFilters, page, limit int) ([]domain.NotificationDTO, *domain.Pagination, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, nil, ErrUserContextRequired
	}

	page, limit = repository.NormalizePage(page, limit)

	notifications, total, err := s.store.ListByUser(ctx, userCtx.UserID, filters, s.now().UTC(), page, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	dtos := make([]domain.NotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToNotificationDTO(&notifications[i])
	}

	return dtos, domain.NewPagination(page, limit, total), nil
}

// MarkAsRead marks one of the caller's notifications as read
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}

	updated, err := s.store.MarkAsRead(ctx, id, userCtx.UserID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if !updated {
		return ErrNotificationNotFound
	}

	return nil
}

// MarkAllAsRead marks every notification of the caller as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context) (int64, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return 0, ErrUserContextRequired
	}

	count, err := s.store.MarkAllAsRead(ctx, userCtx.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	s.logger.Info("all notifications marked as read",
		zap.String("userID", userCtx.UserID.String()),
		zap.Int64("count", count),
	)

	return count, nil
}

// GetUnreadCount returns the count of unread notifications for the caller
func (s *NotificationService) GetUnreadCount(ctx context.Context) (*domain.UnreadCountDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	count, err := s.store.CountUnread(ctx, userCtx.UserID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &domain.UnreadCountDTO{Count: count}, nil
}
