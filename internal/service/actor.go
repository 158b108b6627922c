package service

import (
	"context"

	"github.com/buildmart/marketplace-api/internal/auth"
	"github.com/buildmart/marketplace-api/internal/domain"
)

// currentCustomer returns the authenticated caller when they act as a customer
func currentCustomer(ctx context.Context) (*auth.UserContext, error) {
	return currentUserWithRole(ctx, domain.RoleCustomer, ErrCustomerRoleRequired)
}

// currentSupplier returns the authenticated caller when they act as a supplier
func currentSupplier(ctx context.Context) (*auth.UserContext, error) {
	return currentUserWithRole(ctx, domain.RoleSupplier, ErrSupplierRoleRequired)
}

func currentUserWithRole(ctx context.Context, role domain.UserRole, roleErr error) (*auth.UserContext, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}
	if !userCtx.HasRole(role) {
		return nil, roleErr
	}
	return userCtx, nil
}
