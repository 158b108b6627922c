package repository

import (
	"context"
	"time"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// orderSortFields maps API sort fields to order columns
var orderSortFields = map[string]string{
	"createdAt":    "created_at",
	"totalAmount":  "total_amount",
	"orderNumber":  "order_number",
	"deliverySlot": "delivery_slot",
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// Create persists the order with its line items
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.withItems(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDForParty loads an order only when the user is its customer or supplier
func (r *OrderRepository) GetByIDForParty(ctx context.Context, id, userID uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.withItems(r.db.WithContext(ctx)).
		Where("id = ? AND (customer_id = ? OR supplier_id = ?)", id, userID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByQuoteReference finds the order materialized from a quote response
func (r *OrderRepository) GetByQuoteReference(ctx context.Context, responseID uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.withItems(r.db.WithContext(ctx)).
		Where("quote_reference = ?", responseID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CountByQuoteReference counts orders materialized from a quote response
func (r *OrderRepository) CountByQuoteReference(ctx context.Context, responseID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("quote_reference = ?", responseID).
		Count(&count).Error
	return count, err
}

// ListForCustomer returns orders placed by the customer
func (r *OrderRepository) ListForCustomer(ctx context.Context, customerID uuid.UUID, filters domain.OrderFilters, sort SortConfig, page, limit int) ([]domain.Order, int64, error) {
	return r.list(ctx, "customer_id", customerID, filters, sort, page, limit)
}

// ListForSupplier returns orders placed with the supplier
func (r *OrderRepository) ListForSupplier(ctx context.Context, supplierID uuid.UUID, filters domain.OrderFilters, sort SortConfig, page, limit int) ([]domain.Order, int64, error) {
	return r.list(ctx, "supplier_id", supplierID, filters, sort, page, limit)
}

func (r *OrderRepository) list(ctx context.Context, column string, userID uuid.UUID, filters domain.OrderFilters, sort SortConfig, page, limit int) ([]domain.Order, int64, error) {
	var orders []domain.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Order{}).Where(column+" = ?", userID)
	if filters.Status != nil {
		query = query.Where("order_status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.withItems(query).
		Scopes(paginate(page, limit)).
		Order(BuildOrderClause(sort, orderSortFields, "created_at")).
		Find(&orders).Error

	return orders, total, err
}

// TransitionStatus moves a supplier's order from one status to the next.
// Returns false when the order is not in the expected status.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id, supplierID uuid.UUID, from, to domain.OrderStatus, supplierNotes string, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"order_status": to,
		"updated_at":   at,
	}
	if supplierNotes != "" {
		updates["supplier_notes"] = supplierNotes
	}
	if to == domain.OrderStatusDelivered {
		updates["delivered_at"] = at
	}
	if to == domain.OrderStatusRefunded {
		updates["payment_status"] = domain.PaymentStatusRefunded
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND supplier_id = ? AND order_status = ?", id, supplierID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Cancel cancels a customer's order while it is in one of the cancellable statuses
func (r *OrderRepository) Cancel(ctx context.Context, id, customerID uuid.UUID, cancellable []domain.OrderStatus, note string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND customer_id = ? AND order_status IN ?", id, customerID, cancellable).
		Updates(map[string]interface{}{
			"order_status":      domain.OrderStatusCancelled,
			"cancellation_note": note,
			"cancelled_at":      at,
			"updated_at":        at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *OrderRepository) withItems(query *gorm.DB) *gorm.DB {
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}
