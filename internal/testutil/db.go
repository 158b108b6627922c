package testutil

import (
	"testing"
	"time"

	"github.com/buildmart/marketplace-api/internal/database"
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a fresh in-memory SQLite database with every model migrated.
// The pool is pinned to one connection so the whole test shares the same memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// CreateTestUser creates an active marketplace account with the given role
func CreateTestUser(t *testing.T, db *gorm.DB, role domain.UserRole, name string) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:       uuid.NewString() + "@example.com",
		DisplayName: name,
		CompanyName: name + " AS",
		Role:        role,
		IsActive:    true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestProduct creates a catalog product owned by the supplier
func CreateTestProduct(t *testing.T, db *gorm.DB, supplierID uuid.UUID, name string, price, stock float64) *domain.Product {
	t.Helper()

	product := &domain.Product{
		Name:       name,
		SKU:        uuid.NewString()[:8],
		Unit:       "pcs",
		Price:      price,
		Stock:      stock,
		SupplierID: supplierID,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
