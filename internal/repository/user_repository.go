package repository

import (
	"context"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActiveIDsByRole resolves every active account holding the role at call time
func (r *UserRepository) ListActiveIDsByRole(ctx context.Context, role domain.UserRole) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("role = ? AND is_active = ?", role, true).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// CountActiveByIDsAndRole counts how many of ids are active accounts with the role
func (r *UserRepository) CountActiveByIDsAndRole(ctx context.Context, ids []uuid.UUID, role domain.UserRole) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id IN ? AND role = ? AND is_active = ?", ids, role, true).
		Count(&count).Error
	return count, err
}
