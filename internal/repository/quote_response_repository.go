package repository

import (
	"context"
	"time"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuoteResponseRepository struct {
	db *gorm.DB
}

func NewQuoteResponseRepository(db *gorm.DB) *QuoteResponseRepository {
	return &QuoteResponseRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *QuoteResponseRepository) WithTx(tx *gorm.DB) *QuoteResponseRepository {
	return &QuoteResponseRepository{db: tx}
}

// Create persists the response and its items. A second response from the same
// supplier to the same request violates the unique index.
func (r *QuoteResponseRepository) Create(ctx context.Context, response *domain.QuoteResponse) error {
	return r.db.WithContext(ctx).Omit("QuoteRequest").Create(response).Error
}

func (r *QuoteResponseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteResponse, error) {
	var response domain.QuoteResponse
	err := r.withItems(r.db.WithContext(ctx)).First(&response, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// GetByIDForRequest loads a response only when it belongs to the given request
func (r *QuoteResponseRepository) GetByIDForRequest(ctx context.Context, id, requestID uuid.UUID) (*domain.QuoteResponse, error) {
	var response domain.QuoteResponse
	err := r.withItems(r.db.WithContext(ctx)).
		Where("id = ? AND quote_request_id = ?", id, requestID).
		First(&response).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// GetByIDForSupplier loads a response only when the supplier submitted it
func (r *QuoteResponseRepository) GetByIDForSupplier(ctx context.Context, id, supplierID uuid.UUID) (*domain.QuoteResponse, error) {
	var response domain.QuoteResponse
	err := r.withItems(r.db.WithContext(ctx)).
		Where("id = ? AND supplier_id = ?", id, supplierID).
		First(&response).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ExistsForSupplier reports whether the supplier already responded to the request
func (r *QuoteResponseRepository) ExistsForSupplier(ctx context.Context, requestID, supplierID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.QuoteResponse{}).
		Where("quote_request_id = ? AND supplier_id = ?", requestID, supplierID).
		Count(&count).Error
	return count > 0, err
}

// RespondedRequestIDs returns the subset of requestIDs the supplier has responded to
func (r *QuoteResponseRepository) RespondedRequestIDs(ctx context.Context, supplierID uuid.UUID, requestIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	responded := make(map[uuid.UUID]bool, len(requestIDs))
	if len(requestIDs) == 0 {
		return responded, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.QuoteResponse{}).
		Where("supplier_id = ? AND quote_request_id IN ?", supplierID, requestIDs).
		Pluck("quote_request_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		responded[id] = true
	}
	return responded, nil
}

// ListByRequest returns every response under a request, cheapest first
func (r *QuoteResponseRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.QuoteResponse, error) {
	var responses []domain.QuoteResponse
	err := r.withItems(r.db.WithContext(ctx)).
		Where("quote_request_id = ?", requestID).
		Order("total_amount ASC, created_at ASC").
		Find(&responses).Error
	return responses, err
}

// ListBySupplier returns the supplier's own responses, newest first
func (r *QuoteResponseRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, filters domain.QuoteResponseFilters, page, limit int) ([]domain.QuoteResponse, int64, error) {
	var responses []domain.QuoteResponse
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.QuoteResponse{}).Where("supplier_id = ?", supplierID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.withItems(query).
		Preload("QuoteRequest").
		Scopes(paginate(page, limit)).
		Order("created_at DESC").
		Find(&responses).Error

	return responses, total, err
}

// SupplierIDsByStatus lists the suppliers whose response under the request is in one of the statuses
func (r *QuoteResponseRepository) SupplierIDsByStatus(ctx context.Context, requestID uuid.UUID, statuses []domain.QuoteResponseStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.QuoteResponse{}).
		Where("quote_request_id = ? AND status IN ?", requestID, statuses).
		Pluck("supplier_id", &ids).Error
	return ids, err
}

// MarkAccepted moves a pending response to accepted. Returns false when it was not pending.
func (r *QuoteResponseRepository) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.QuoteResponse{}).
		Where("id = ? AND status = ?", id, domain.QuoteResponseStatusPending).
		Updates(map[string]interface{}{
			"status":      domain.QuoteResponseStatusAccepted,
			"accepted_at": at,
			"updated_at":  at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RejectPendingSiblings rejects, in one statement, every response under the request
// other than the winner that is still pending. It returns the suppliers whose
// responses were rejected by this call.
func (r *QuoteResponseRepository) RejectPendingSiblings(ctx context.Context, requestID, winnerID uuid.UUID, reason string, at time.Time) ([]uuid.UUID, error) {
	db := r.db.WithContext(ctx)

	result := db.Model(&domain.QuoteResponse{}).
		Where("quote_request_id = ? AND id <> ? AND status = ?", requestID, winnerID, domain.QuoteResponseStatusPending).
		Updates(map[string]interface{}{
			"status":           domain.QuoteResponseStatusRejected,
			"rejection_reason": reason,
			"rejected_at":      at,
			"updated_at":       at,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return []uuid.UUID{}, nil
	}

	var supplierIDs []uuid.UUID
	err := db.Model(&domain.QuoteResponse{}).
		Where("quote_request_id = ? AND status = ? AND rejected_at = ?", requestID, domain.QuoteResponseStatusRejected, at).
		Pluck("supplier_id", &supplierIDs).Error
	return supplierIDs, err
}

// Withdraw moves the supplier's pending response to withdrawn
func (r *QuoteResponseRepository) Withdraw(ctx context.Context, id, supplierID uuid.UUID, reason string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.QuoteResponse{}).
		Where("id = ? AND supplier_id = ? AND status = ?", id, supplierID, domain.QuoteResponseStatusPending).
		Updates(map[string]interface{}{
			"status":            domain.QuoteResponseStatusWithdrawn,
			"withdrawal_reason": reason,
			"withdrawn_at":      at,
			"updated_at":        at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *QuoteResponseRepository) withItems(query *gorm.DB) *gorm.DB {
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}
