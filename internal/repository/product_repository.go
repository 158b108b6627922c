package repository

import (
	"context"
	"time"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository exposes the catalog reads and stock mutations the quote flow needs
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CountByIDs counts how many of the given product ids exist
func (r *ProductRepository) CountByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id IN ?", ids).
		Count(&count).Error
	return count, err
}

// CountByIDsForSupplier counts how many of the given product ids exist and belong to the supplier
func (r *ProductRepository) CountByIDsForSupplier(ctx context.Context, ids []uuid.UUID, supplierID uuid.UUID) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id IN ? AND supplier_id = ?", ids, supplierID).
		Count(&count).Error
	return count, err
}

// DecrementStock takes qty out of the supplier's product only if enough is available.
// Returns false when stock is insufficient or the supplier does not own the product.
func (r *ProductRepository) DecrementStock(ctx context.Context, id, supplierID uuid.UUID, qty float64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND supplier_id = ? AND stock >= ?", id, supplierID, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IncrementStock puts qty back into stock
func (r *ProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty float64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": at,
		}).Error
}
