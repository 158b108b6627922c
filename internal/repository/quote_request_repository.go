package repository

import (
	"context"
	"time"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuoteRequestRepository struct {
	db *gorm.DB
}

func NewQuoteRequestRepository(db *gorm.DB) *QuoteRequestRepository {
	return &QuoteRequestRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *QuoteRequestRepository) WithTx(tx *gorm.DB) *QuoteRequestRepository {
	return &QuoteRequestRepository{db: tx}
}

// Create persists the request together with its items and supplier targets
func (r *QuoteRequestRepository) Create(ctx context.Context, request *domain.QuoteRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *QuoteRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteRequest, error) {
	var request domain.QuoteRequest
	err := r.withAssociations(r.db.WithContext(ctx)).
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetByIDForCustomer loads a request only when it belongs to the customer
func (r *QuoteRequestRepository) GetByIDForCustomer(ctx context.Context, id, customerID uuid.UUID) (*domain.QuoteRequest, error) {
	var request domain.QuoteRequest
	err := r.withAssociations(r.db.WithContext(ctx)).
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// ListByCustomer returns the customer's requests, newest first
func (r *QuoteRequestRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, filters domain.QuoteRequestFilters, page, limit int) ([]domain.QuoteRequest, int64, error) {
	var requests []domain.QuoteRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.QuoteRequest{}).Where("customer_id = ?", customerID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.withAssociations(query).
		Scopes(paginate(page, limit)).
		Order("created_at DESC").
		Find(&requests).Error

	return requests, total, err
}

// ListOpenForSupplier returns actionable requests visible to the supplier: targeted
// explicitly or broadcast, still open and not past their deadline. Newest first.
func (r *QuoteRequestRepository) ListOpenForSupplier(ctx context.Context, supplierID uuid.UUID, statuses []domain.QuoteRequestStatus, now time.Time, page, limit int) ([]domain.QuoteRequest, int64, error) {
	var requests []domain.QuoteRequest
	var total int64

	if len(statuses) == 0 {
		return []domain.QuoteRequest{}, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&domain.QuoteRequest{}).
		Where("status IN ?", statuses).
		Where("required_by > ?", now).
		Where("(broadcast_to_all = ? OR EXISTS (SELECT 1 FROM quote_request_targets t WHERE t.quote_request_id = quote_requests.id AND t.supplier_id = ?))", true, supplierID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.withAssociations(query).
		Scopes(paginate(page, limit)).
		Order("created_at DESC").
		Find(&requests).Error

	return requests, total, err
}

// RecordResponse bumps the response counter and moves the request to quoted.
// Returns false when the request is no longer open.
func (r *QuoteRequestRepository) RecordResponse(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.QuoteRequest{}).
		Where("id = ? AND status IN ?", id, domain.OpenQuoteRequestStatuses).
		Updates(map[string]interface{}{
			"response_count": gorm.Expr("response_count + 1"),
			"status":         domain.QuoteRequestStatusQuoted,
			"updated_at":     at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkAccepted records the winning response. Returns false when the request
// was not open at the moment of the update.
func (r *QuoteRequestRepository) MarkAccepted(ctx context.Context, id, responseID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.QuoteRequest{}).
		Where("id = ? AND status IN ?", id, domain.OpenQuoteRequestStatuses).
		Updates(map[string]interface{}{
			"status":               domain.QuoteRequestStatusAccepted,
			"accepted_response_id": responseID,
			"accepted_at":          at,
			"updated_at":           at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Cancel closes an open request owned by the customer
func (r *QuoteRequestRepository) Cancel(ctx context.Context, id, customerID uuid.UUID, reason string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.QuoteRequest{}).
		Where("id = ? AND customer_id = ? AND status IN ?", id, customerID, domain.OpenQuoteRequestStatuses).
		Updates(map[string]interface{}{
			"status":              domain.QuoteRequestStatusCancelled,
			"cancellation_reason": reason,
			"cancelled_at":        at,
			"updated_at":          at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ExpireOverdue flips every open request whose deadline has passed to expired
func (r *QuoteRequestRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.QuoteRequest{}).
		Where("status IN ? AND required_by <= ?", domain.OpenQuoteRequestStatuses, now).
		Updates(map[string]interface{}{
			"status":     domain.QuoteRequestStatusExpired,
			"expired_at": now,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *QuoteRequestRepository) withAssociations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Targets")
}
