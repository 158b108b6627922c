package service_test

import (
	"context"
	"testing"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/events"
	"github.com/buildmart/marketplace-api/internal/repository"
	"github.com/buildmart/marketplace-api/internal/service"
	"github.com/buildmart/marketplace-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeOrder runs a full request/response/accept cycle and returns the order id
func placeOrder(t *testing.T, f *marketplaceFixture, product *domain.Product) uuid.UUID {
	t.Helper()
	customerCtx := ctxFor(f.customer)

	req := requestInput(f.supplierA.ID)
	if product != nil {
		req.Items[0].ProductID = &product.ID
	}
	request, err := f.quotes.CreateQuoteRequest(customerCtx, req)
	require.NoError(t, err)

	quote := responseInput(request.ID, 1050)
	if product != nil {
		quote.Items[0].ProductID = &product.ID
	}
	response, err := f.quotes.SubmitResponse(ctxFor(f.supplierA), quote)
	require.NoError(t, err)

	result, err := f.quotes.AcceptResponse(customerCtx, request.ID, response.ID)
	require.NoError(t, err)
	return result.Order.ID
}

func TestOrderService_ListAndGet(t *testing.T) {
	f := setupMarketplace(t)
	orderID := placeOrder(t, f, nil)

	customerOrders, pagination, err := f.orders.List(ctxFor(f.customer), domain.OrderFilters{}, repository.DefaultSortConfig(), 1, 20)
	require.NoError(t, err)
	require.Len(t, customerOrders, 1)
	assert.Equal(t, int64(1), pagination.Total)
	assert.Equal(t, orderID, customerOrders[0].ID)

	supplierOrders, _, err := f.orders.List(ctxFor(f.supplierA), domain.OrderFilters{}, repository.DefaultSortConfig(), 1, 20)
	require.NoError(t, err)
	require.Len(t, supplierOrders, 1)

	otherSupplier, _, err := f.orders.List(ctxFor(f.supplierB), domain.OrderFilters{}, repository.DefaultSortConfig(), 1, 20)
	require.NoError(t, err)
	assert.Empty(t, otherSupplier)

	dto, err := f.orders.GetByID(ctxFor(f.supplierA), orderID)
	require.NoError(t, err)
	assert.Equal(t, 1050.0, dto.TotalAmount)
	assert.True(t, dto.IsFromQuote)
	require.Len(t, dto.Items, 2)
	assert.Equal(t, "Portland cement 25kg", dto.Items[0].ProductSnapshot.Name)

	_, err = f.orders.GetByID(ctxFor(f.supplierB), orderID)
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestOrderService_UpdateStatusOneStepAtATime(t *testing.T) {
	f := setupMarketplace(t)
	orderID := placeOrder(t, f, nil)
	supplierCtx := ctxFor(f.supplierA)

	_, err := f.orders.UpdateStatus(supplierCtx, orderID, &domain.UpdateOrderStatusRequest{Status: domain.OrderStatusShipped})
	assert.ErrorIs(t, err, service.ErrInvalidOrderTransition)

	for _, status := range []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		dto, err := f.orders.UpdateStatus(supplierCtx, orderID, &domain.UpdateOrderStatusRequest{Status: status})
		require.NoError(t, err)
		assert.Equal(t, status, dto.OrderStatus)
	}

	dto, err := f.orders.GetByID(ctxFor(f.customer), orderID)
	require.NoError(t, err)
	assert.NotNil(t, dto.DeliveredAt)

	assert.Len(t, notificationsFor(t, f.db, f.customer.ID, service.EventOrderStatusChanged), 3)

	_, err = f.orders.UpdateStatus(ctxFor(f.supplierB), orderID, &domain.UpdateOrderStatusRequest{Status: domain.OrderStatusProcessing})
	assert.ErrorIs(t, err, service.ErrOrderNotFound)

	_, err = f.orders.UpdateStatus(ctxFor(f.customer), orderID, &domain.UpdateOrderStatusRequest{Status: domain.OrderStatusProcessing})
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestOrderService_CancelRestoresStock(t *testing.T) {
	f := setupMarketplace(t)
	product := testutil.CreateTestProduct(t, f.db, f.supplierA.ID, "Portland cement 25kg", 8, 300)
	orderID := placeOrder(t, f, product)

	var stored domain.Product
	require.NoError(t, f.db.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 200.0, stored.Stock)

	dto, err := f.orders.Cancel(ctxFor(f.customer), orderID, "site closed")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, dto.OrderStatus)
	assert.NotNil(t, dto.CancelledAt)

	require.NoError(t, f.db.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 300.0, stored.Stock)

	assert.Len(t, notificationsFor(t, f.db, f.supplierA.ID, service.EventOrderCancelled), 1)
	assert.Contains(t, f.publisher.RoutingKeys(), events.OrderCancelled)

	_, err = f.orders.Cancel(ctxFor(f.customer), orderID, "")
	assert.ErrorIs(t, err, service.ErrConflict)

	refunded, err := f.orders.UpdateStatus(ctxFor(f.supplierA), orderID, &domain.UpdateOrderStatusRequest{Status: domain.OrderStatusRefunded})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, refunded.OrderStatus)
	assert.Equal(t, domain.PaymentStatusRefunded, refunded.PaymentStatus)
}

func TestOrderService_CancelAfterShipmentIsConflict(t *testing.T) {
	f := setupMarketplace(t)
	orderID := placeOrder(t, f, nil)
	supplierCtx := ctxFor(f.supplierA)

	_, err := f.orders.UpdateStatus(supplierCtx, orderID, &domain.UpdateOrderStatusRequest{Status: domain.OrderStatusProcessing})
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(supplierCtx, orderID, &domain.UpdateOrderStatusRequest{Status: domain.OrderStatusShipped})
	require.NoError(t, err)

	_, err = f.orders.Cancel(ctxFor(f.customer), orderID, "")
	assert.ErrorIs(t, err, service.ErrInvalidOrderTransition)

	other := testutil.CreateTestUser(t, f.db, domain.RoleCustomer, "Other Customer")
	_, err = f.orders.Cancel(ctxFor(other), orderID, "")
	assert.ErrorIs(t, err, service.ErrOrderNotFound)

	_, err = f.orders.Cancel(context.Background(), orderID, "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}
