package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buildmart/marketplace-api/internal/auth"
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/events"
	"github.com/buildmart/marketplace-api/internal/mapper"
	"github.com/buildmart/marketplace-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// previousOrderStatus gives the only status a supplier may advance from to reach the key
var previousOrderStatus = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderStatusProcessing: domain.OrderStatusPending,
	domain.OrderStatusShipped:    domain.OrderStatusProcessing,
	domain.OrderStatusDelivered:  domain.OrderStatusShipped,
	domain.OrderStatusRefunded:   domain.OrderStatusCancelled,
}

// cancellableOrderStatuses are the statuses in which the customer may still cancel
var cancellableOrderStatuses = []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusProcessing}

// OrderService serves orders materialized from accepted quotes
type OrderService struct {
	orderRepo   *repository.OrderRepository
	productRepo *repository.ProductRepository
	notifier    NotificationDispatcher
	publisher   events.Publisher
	logger      *zap.Logger
	db          *gorm.DB
	now         func() time.Time
}

// NewOrderService creates a new OrderService instance
func NewOrderService(
	orderRepo *repository.OrderRepository,
	productRepo *repository.ProductRepository,
	notifier NotificationDispatcher,
	publisher events.Publisher,
	logger *zap.Logger,
	db *gorm.DB,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger,
		db:          db,
		now:         time.Now,
	}
}

// List returns the caller's orders: placed by them as customer, or with them as supplier
func (s *OrderService) List(ctx context.Context, filters domain.OrderFilters, sort repository.SortConfig, page, limit int) ([]domain.OrderDTO, *domain.Pagination, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, nil, ErrUserContextRequired
	}

	page, limit = repository.NormalizePage(page, limit)

	var orders []domain.Order
	var total int64
	var err error

	switch userCtx.Role {
	case domain.RoleCustomer:
		orders, total, err = s.orderRepo.ListForCustomer(ctx, userCtx.UserID, filters, sort, page, limit)
	case domain.RoleSupplier:
		orders, total, err = s.orderRepo.ListForSupplier(ctx, userCtx.UserID, filters, sort, page, limit)
	default:
		return nil, nil, fmt.Errorf("%w: orders are listed per customer or supplier", ErrForbidden)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list orders: %w", err)
	}

	dtos := make([]domain.OrderDTO, len(orders))
	for i := range orders {
		dtos[i] = mapper.ToOrderDTO(&orders[i])
	}

	return dtos, domain.NewPagination(page, limit, total), nil
}

// GetByID returns an order the caller is a party to
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	order, err := s.orderRepo.GetByIDForParty(ctx, id, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

// UpdateStatus advances one of the supplier's orders by exactly one step
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *domain.UpdateOrderStatusRequest) (*domain.OrderDTO, error) {
	userCtx, err := currentSupplier(ctx)
	if err != nil {
		return nil, err
	}

	from, ok := previousOrderStatus[req.Status]
	if !ok {
		return nil, invalidInput("status: %s cannot be set by the supplier", req.Status)
	}

	now := s.now().UTC()

	updated, err := s.orderRepo.TransitionStatus(ctx, id, userCtx.UserID, from, req.Status, strings.TrimSpace(req.SupplierNotes), now)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order, err := s.orderRepo.GetByIDForParty(ctx, id, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if !updated {
		if order.SupplierID != userCtx.UserID {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidOrderTransition, order.OrderStatus, req.Status)
	}

	s.logger.Info("order status updated",
		zap.String("orderID", order.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(req.Status)))

	afterCtx := context.WithoutCancel(ctx)

	s.notifier.Dispatch(afterCtx, NotificationEvent{
		Kind:        EventOrderStatusChanged,
		Recipients:  []uuid.UUID{order.CustomerID},
		OrderID:     &order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.OrderStatus),
	})
	publishEvent(afterCtx, s.publisher, s.logger, events.OrderStatusChanged, orderPayload(order))

	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

// Cancel cancels one of the customer's orders while it is pending or processing
// and puts the reserved stock back, both in one transaction.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*domain.OrderDTO, error) {
	userCtx, err := currentCustomer(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reason = strings.TrimSpace(reason)

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)

		cancelled, err := orders.Cancel(ctx, id, userCtx.UserID, cancellableOrderStatuses, reason, now)
		if err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		order, err = orders.GetByIDForParty(ctx, id, userCtx.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to get order: %w", err)
		}
		if !cancelled {
			if order.CustomerID != userCtx.UserID {
				return ErrOrderNotFound
			}
			return fmt.Errorf("%w: order is %s and can no longer be cancelled", ErrInvalidOrderTransition, order.OrderStatus)
		}

		products := s.productRepo.WithTx(tx)
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if err := products.IncrementStock(ctx, *item.ProductID, item.Quantity, now); err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("orderID", order.ID.String()),
		zap.String("customerID", userCtx.UserID.String()))

	afterCtx := context.WithoutCancel(ctx)

	s.notifier.Dispatch(afterCtx, NotificationEvent{
		Kind:        EventOrderCancelled,
		Recipients:  []uuid.UUID{order.SupplierID},
		OrderID:     &order.ID,
		OrderNumber: order.OrderNumber,
		Reason:      reason,
	})
	publishEvent(afterCtx, s.publisher, s.logger, events.OrderCancelled, orderPayload(order))

	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}
