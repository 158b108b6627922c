package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buildmart/marketplace-api/internal/auth"
	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/events"
	"github.com/buildmart/marketplace-api/internal/repository"
	"github.com/buildmart/marketplace-api/internal/service"
	"github.com/buildmart/marketplace-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type marketplaceFixture struct {
	db            *gorm.DB
	quotes        *service.QuoteService
	orders        *service.OrderService
	notifications *service.NotificationService
	publisher     *testutil.RecordingPublisher

	customer  *domain.User
	supplierA *domain.User
	supplierB *domain.User
	supplierC *domain.User
}

func setupMarketplace(t *testing.T) *marketplaceFixture {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	numberSeq := service.NewNumberSequenceService(
		repository.NewNumberSequenceRepository(db),
		config.QuotesConfig{QuoteRequestPrefix: "QR", QuoteResponsePrefix: "QS", OrderPrefix: "ORD"},
		logger,
	)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), 0, logger)
	publisher := &testutil.RecordingPublisher{}

	quotes := service.NewQuoteService(
		repository.NewQuoteRequestRepository(db),
		repository.NewQuoteResponseRepository(db),
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewUserRepository(db),
		numberSeq,
		notifications,
		publisher,
		logger,
		db,
	)
	orders := service.NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		notifications,
		publisher,
		logger,
		db,
	)

	return &marketplaceFixture{
		db:            db,
		quotes:        quotes,
		orders:        orders,
		notifications: notifications,
		publisher:     publisher,
		customer:      testutil.CreateTestUser(t, db, domain.RoleCustomer, "Fjord Builders"),
		supplierA:     testutil.CreateTestUser(t, db, domain.RoleSupplier, "Alpha Supply"),
		supplierB:     testutil.CreateTestUser(t, db, domain.RoleSupplier, "Beta Materials"),
		supplierC:     testutil.CreateTestUser(t, db, domain.RoleSupplier, "Cobalt Timber"),
	}
}

func ctxFor(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        user.Role,
	})
}

func requestInput(targets ...uuid.UUID) *domain.CreateQuoteRequestRequest {
	return &domain.CreateQuoteRequestRequest{
		Items: []domain.QuoteRequestItemInput{
			{Description: "Portland cement 25kg", Quantity: 100, Unit: "bag"},
			{Description: "Rebar 12mm", Quantity: 40, Unit: "m"},
		},
		DeliveryLocation: domain.DeliveryLocationInput{Address: "Site 4, Harbour Road", City: "Bergen"},
		RequiredBy:       time.Now().UTC().Add(72 * time.Hour),
		TargetSuppliers:  targets,
		BroadcastToAll:   len(targets) == 0,
	}
}

func responseInput(requestID uuid.UUID, total float64) *domain.SubmitQuoteResponseRequest {
	return &domain.SubmitQuoteResponseRequest{
		QuoteRequestID: requestID,
		Items: []domain.QuoteResponseItemInput{
			{Name: "Portland cement 25kg", Quantity: 100, Unit: "bag", UnitPrice: 8},
			{Name: "Rebar 12mm", Quantity: 40, Unit: "m", UnitPrice: 5},
		},
		TotalAmount:           total,
		DeliveryCharges:       50,
		EstimatedDeliveryDays: 3,
		ValidUntil:            time.Now().UTC().Add(48 * time.Hour),
		PaymentTerms:          domain.PaymentTermsCOD,
	}
}

func notificationsFor(t *testing.T, db *gorm.DB, userID uuid.UUID, event service.NotificationEventKind) []domain.Notification {
	var notifications []domain.Notification
	require.NoError(t, db.Where("user_id = ? AND event = ?", userID, string(event)).Find(&notifications).Error)
	return notifications
}

func TestCreateQuoteRequest_Targeted(t *testing.T) {
	f := setupMarketplace(t)

	dto, err := f.quotes.CreateQuoteRequest(ctxFor(f.customer), requestInput(f.supplierA.ID, f.supplierB.ID))
	require.NoError(t, err)

	assert.Regexp(t, `^QR-\d{4}-000001$`, dto.QuoteNumber)
	assert.Equal(t, domain.QuoteRequestStatusPending, dto.Status)
	assert.Equal(t, f.customer.ID, dto.CustomerID)
	assert.False(t, dto.BroadcastToAll)
	assert.ElementsMatch(t, []uuid.UUID{f.supplierA.ID, f.supplierB.ID}, dto.TargetSuppliers)
	require.Len(t, dto.Items, 2)
	assert.Equal(t, 0, dto.Items[0].Position)
	assert.Equal(t, "Rebar 12mm", dto.Items[1].Description)

	assert.Len(t, notificationsFor(t, f.db, f.supplierA.ID, service.EventQuoteRequestReceived), 1)
	assert.Len(t, notificationsFor(t, f.db, f.supplierB.ID, service.EventQuoteRequestReceived), 1)
	assert.Empty(t, notificationsFor(t, f.db, f.supplierC.ID, service.EventQuoteRequestReceived))

	assert.Equal(t, []string{events.QuoteRequestCreated}, f.publisher.RoutingKeys())
}

func TestCreateQuoteRequest_BroadcastNotifiesEveryActiveSupplier(t *testing.T) {
	f := setupMarketplace(t)
	require.NoError(t, f.db.Model(&domain.User{}).Where("id = ?", f.supplierC.ID).Update("is_active", false).Error)

	dto, err := f.quotes.CreateQuoteRequest(ctxFor(f.customer), requestInput())
	require.NoError(t, err)

	assert.True(t, dto.BroadcastToAll)
	assert.Empty(t, dto.TargetSuppliers)
	assert.Len(t, notificationsFor(t, f.db, f.supplierA.ID, service.EventQuoteRequestReceived), 1)
	assert.Len(t, notificationsFor(t, f.db, f.supplierB.ID, service.EventQuoteRequestReceived), 1)
	assert.Empty(t, notificationsFor(t, f.db, f.supplierC.ID, service.EventQuoteRequestReceived))
	assert.Empty(t, notificationsFor(t, f.db, f.customer.ID, service.EventQuoteRequestReceived))
}

func TestCreateQuoteRequest_Validation(t *testing.T) {
	f := setupMarketplace(t)
	ctx := ctxFor(f.customer)

	tests := []struct {
		name   string
		mutate func(req *domain.CreateQuoteRequestRequest)
	}{
		{"empty items", func(req *domain.CreateQuoteRequestRequest) { req.Items = nil }},
		{"item without product or description", func(req *domain.CreateQuoteRequestRequest) { req.Items[0].Description = " " }},
		{"missing address", func(req *domain.CreateQuoteRequestRequest) { req.DeliveryLocation.Address = "" }},
		{"requiredBy in the past", func(req *domain.CreateQuoteRequestRequest) { req.RequiredBy = time.Now().Add(-time.Hour) }},
		{"neither targets nor broadcast", func(req *domain.CreateQuoteRequestRequest) {
			req.TargetSuppliers = nil
			req.BroadcastToAll = false
		}},
		{"targets and broadcast", func(req *domain.CreateQuoteRequestRequest) { req.BroadcastToAll = true }},
		{"target is not a supplier", func(req *domain.CreateQuoteRequestRequest) { req.TargetSuppliers = []uuid.UUID{f.customer.ID} }},
		{"unknown product", func(req *domain.CreateQuoteRequestRequest) {
			id := uuid.New()
			req.Items[0].ProductID = &id
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestInput(f.supplierA.ID)
			tt.mutate(req)

			_, err := f.quotes.CreateQuoteRequest(ctx, req)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&domain.QuoteRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateQuoteRequest_RequiresCustomer(t *testing.T) {
	f := setupMarketplace(t)

	_, err := f.quotes.CreateQuoteRequest(ctxFor(f.supplierA), requestInput(f.supplierB.ID))
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.quotes.CreateQuoteRequest(context.Background(), requestInput(f.supplierB.ID))
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestListForSupplier(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)

	targeted, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
	require.NoError(t, err)
	broadcast, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput())
	require.NoError(t, err)
	_, err = f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierB.ID))
	require.NoError(t, err)

	_, err = f.quotes.SubmitResponse(ctxFor(f.supplierA), responseInput(targeted.ID, 1050))
	require.NoError(t, err)

	list, pagination, err := f.quotes.ListForSupplier(ctxFor(f.supplierA), domain.QuoteRequestFilters{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), pagination.Total)

	byID := map[uuid.UUID]domain.SupplierQuoteRequestDTO{}
	for _, r := range list {
		byID[r.ID] = r
	}
	assert.True(t, byID[targeted.ID].HasResponded)
	assert.Equal(t, domain.QuoteRequestStatusQuoted, byID[targeted.ID].Status)
	assert.False(t, byID[broadcast.ID].HasResponded)

	// Supplier C only sees the broadcast request
	list, _, err = f.quotes.ListForSupplier(ctxFor(f.supplierC), domain.QuoteRequestFilters{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, broadcast.ID, list[0].ID)
}

func TestListForSupplier_HidesClosedAndOverdue(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)

	overdue, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
	require.NoError(t, err)
	cancelled, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
	require.NoError(t, err)
	open, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&domain.QuoteRequest{}).Where("id = ?", overdue.ID).
		Update("required_by", time.Now().UTC().Add(-time.Minute)).Error)
	_, err = f.quotes.CancelQuoteRequest(customerCtx, cancelled.ID, "project postponed")
	require.NoError(t, err)

	list, _, err := f.quotes.ListForSupplier(ctxFor(f.supplierA), domain.QuoteRequestFilters{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, open.ID, list[0].ID)

	status := domain.QuoteRequestStatusCancelled
	list, _, err = f.quotes.ListForSupplier(ctxFor(f.supplierA), domain.QuoteRequestFilters{Status: &status}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitResponse(t *testing.T) {
	f := setupMarketplace(t)

	request, err := f.quotes.CreateQuoteRequest(ctxFor(f.customer), requestInput(f.supplierA.ID))
	require.NoError(t, err)

	dto, err := f.quotes.SubmitResponse(ctxFor(f.supplierA), responseInput(request.ID, 1050))
	require.NoError(t, err)

	assert.Regexp(t, `^QS-\d{4}-000001$`, dto.ResponseNumber)
	assert.Equal(t, domain.QuoteResponseStatusPending, dto.Status)
	assert.Equal(t, request.QuoteNumber, dto.QuoteNumber)
	assert.Equal(t, 1050.0, dto.TotalAmount)
	assert.False(t, dto.IsExpired)
	require.Len(t, dto.Items, 2)
	assert.Equal(t, 800.0, dto.Items[0].TotalPrice)
	assert.Equal(t, 200.0, dto.Items[1].TotalPrice)

	var stored domain.QuoteRequest
	require.NoError(t, f.db.First(&stored, "id = ?", request.ID).Error)
	assert.Equal(t, domain.QuoteRequestStatusQuoted, stored.Status)
	assert.Equal(t, 1, stored.ResponseCount)

	received := notificationsFor(t, f.db, f.customer.ID, service.EventQuoteReceived)
	require.Len(t, received, 1)
	require.NotNil(t, received[0].QuoteResponseID)
	assert.Equal(t, dto.ID, *received[0].QuoteResponseID)

	assert.Contains(t, f.publisher.RoutingKeys(), events.QuoteResponseSubmitted)
}

func TestSubmitResponse_FailureModes(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)
	supplierCtx := ctxFor(f.supplierA)

	request, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
	require.NoError(t, err)

	t.Run("unknown request", func(t *testing.T) {
		_, err := f.quotes.SubmitResponse(supplierCtx, responseInput(uuid.New(), 1050))
		assert.ErrorIs(t, err, service.ErrQuoteRequestNotFound)
	})

	t.Run("supplier not targeted", func(t *testing.T) {
		_, err := f.quotes.SubmitResponse(ctxFor(f.supplierB), responseInput(request.ID, 1050))
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("item count mismatch", func(t *testing.T) {
		req := responseInput(request.ID, 1050)
		req.Items = req.Items[:1]
		_, err := f.quotes.SubmitResponse(supplierCtx, req)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("validUntil not in the future", func(t *testing.T) {
		req := responseInput(request.ID, 1050)
		req.ValidUntil = time.Now().Add(-time.Minute)
		_, err := f.quotes.SubmitResponse(supplierCtx, req)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("delivery charges above total", func(t *testing.T) {
		req := responseInput(request.ID, 40)
		_, err := f.quotes.SubmitResponse(supplierCtx, req)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("second response from the same supplier", func(t *testing.T) {
		_, err := f.quotes.SubmitResponse(supplierCtx, responseInput(request.ID, 1050))
		require.NoError(t, err)

		_, err = f.quotes.SubmitResponse(supplierCtx, responseInput(request.ID, 990))
		assert.ErrorIs(t, err, service.ErrAlreadyResponded)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("request closed", func(t *testing.T) {
		closed, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
		require.NoError(t, err)
		_, err = f.quotes.CancelQuoteRequest(customerCtx, closed.ID, "")
		require.NoError(t, err)

		_, err = f.quotes.SubmitResponse(supplierCtx, responseInput(closed.ID, 1050))
		assert.ErrorIs(t, err, service.ErrQuoteRequestClosed)
	})

	t.Run("deadline passed", func(t *testing.T) {
		overdue, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
		require.NoError(t, err)
		require.NoError(t, f.db.Model(&domain.QuoteRequest{}).Where("id = ?", overdue.ID).
			Update("required_by", time.Now().UTC().Add(-time.Minute)).Error)

		_, err = f.quotes.SubmitResponse(supplierCtx, responseInput(overdue.ID, 1050))
		assert.ErrorIs(t, err, service.ErrExpired)
	})

	var stored domain.QuoteRequest
	require.NoError(t, f.db.First(&stored, "id = ?", request.ID).Error)
	assert.Equal(t, 1, stored.ResponseCount)
}

func TestAcceptResponse(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)

	request, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput())
	require.NoError(t, err)

	winner, err := f.quotes.SubmitResponse(ctxFor(f.supplierA), responseInput(request.ID, 1050))
	require.NoError(t, err)
	loser, err := f.quotes.SubmitResponse(ctxFor(f.supplierB), responseInput(request.ID, 1200))
	require.NoError(t, err)
	withdrawn, err := f.quotes.SubmitResponse(ctxFor(f.supplierC), responseInput(request.ID, 1300))
	require.NoError(t, err)
	_, err = f.quotes.WithdrawResponse(ctxFor(f.supplierC), withdrawn.ID, "out of stock")
	require.NoError(t, err)

	result, err := f.quotes.AcceptResponse(customerCtx, request.ID, winner.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.QuoteRequestStatusAccepted, result.QuoteRequest.Status)
	require.NotNil(t, result.QuoteRequest.AcceptedResponseID)
	assert.Equal(t, winner.ID, *result.QuoteRequest.AcceptedResponseID)
	assert.Equal(t, domain.QuoteResponseStatusAccepted, result.QuoteResponse.Status)
	assert.Regexp(t, `^ORD-\d{4}-000001$`, result.Order.OrderNumber)
	assert.Equal(t, 1050.0, result.Order.TotalAmount)
	assert.Equal(t, domain.OrderStatusPending, result.Order.OrderStatus)

	var order domain.Order
	require.NoError(t, f.db.Preload("Items").First(&order, "id = ?", result.Order.ID).Error)
	assert.Equal(t, f.customer.ID, order.CustomerID)
	assert.Equal(t, f.supplierA.ID, order.SupplierID)
	assert.Equal(t, 1000.0, order.Subtotal)
	assert.Equal(t, 50.0, order.DeliveryFee)
	assert.Equal(t, domain.PaymentMethodCashOnDelivery, order.PaymentMethod)
	assert.True(t, order.IsFromQuote)
	require.NotNil(t, order.QuoteReference)
	assert.Equal(t, winner.ID, *order.QuoteReference)
	assert.Len(t, order.Items, 2)

	var loserRow domain.QuoteResponse
	require.NoError(t, f.db.First(&loserRow, "id = ?", loser.ID).Error)
	assert.Equal(t, domain.QuoteResponseStatusRejected, loserRow.Status)
	assert.Equal(t, domain.RejectionReasonSiblingAccepted, loserRow.RejectionReason)
	assert.NotNil(t, loserRow.RejectedAt)

	var withdrawnRow domain.QuoteResponse
	require.NoError(t, f.db.First(&withdrawnRow, "id = ?", withdrawn.ID).Error)
	assert.Equal(t, domain.QuoteResponseStatusWithdrawn, withdrawnRow.Status)

	assert.Len(t, notificationsFor(t, f.db, f.supplierA.ID, service.EventQuoteAccepted), 1)
	assert.Len(t, notificationsFor(t, f.db, f.supplierB.ID, service.EventQuoteNotSelected), 1)
	assert.Empty(t, notificationsFor(t, f.db, f.supplierC.ID, service.EventQuoteNotSelected))
	assert.Len(t, notificationsFor(t, f.db, f.customer.ID, service.EventOrderPlaced), 1)

	keys := f.publisher.RoutingKeys()
	assert.Contains(t, keys, events.QuoteResponseAccepted)
	assert.Contains(t, keys, events.OrderPlaced)
}

func TestAcceptResponse_FailureModes(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)

	request, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput())
	require.NoError(t, err)
	first, err := f.quotes.SubmitResponse(ctxFor(f.supplierA), responseInput(request.ID, 1050))
	require.NoError(t, err)
	second, err := f.quotes.SubmitResponse(ctxFor(f.supplierB), responseInput(request.ID, 1100))
	require.NoError(t, err)

	t.Run("request owned by someone else", func(t *testing.T) {
		other := testutil.CreateTestUser(t, f.db, domain.RoleCustomer, "Other Customer")
		_, err := f.quotes.AcceptResponse(ctxFor(other), request.ID, first.ID)
		assert.ErrorIs(t, err, service.ErrQuoteRequestNotFound)
	})

	t.Run("response from another request", func(t *testing.T) {
		otherRequest, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierC.ID))
		require.NoError(t, err)
		_, err = f.quotes.AcceptResponse(customerCtx, otherRequest.ID, first.ID)
		assert.ErrorIs(t, err, service.ErrQuoteResponseNotFound)
	})

	t.Run("expired response", func(t *testing.T) {
		require.NoError(t, f.db.Model(&domain.QuoteResponse{}).Where("id = ?", second.ID).
			Update("valid_until", time.Now().UTC().Add(-time.Minute)).Error)

		_, err := f.quotes.AcceptResponse(customerCtx, request.ID, second.ID)
		assert.ErrorIs(t, err, service.ErrQuoteResponseExpired)
	})

	t.Run("second acceptance", func(t *testing.T) {
		_, err := f.quotes.AcceptResponse(customerCtx, request.ID, first.ID)
		require.NoError(t, err)

		_, err = f.quotes.AcceptResponse(customerCtx, request.ID, first.ID)
		assert.ErrorIs(t, err, service.ErrQuoteRequestAlreadyAccepted)
	})

	var orders int64
	require.NoError(t, f.db.Model(&domain.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)
}

func TestAcceptResponse_InsufficientStockRollsBack(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)

	product := testutil.CreateTestProduct(t, f.db, f.supplierA.ID, "Portland cement 25kg", 8, 10)

	req := requestInput(f.supplierA.ID, f.supplierB.ID)
	req.Items[0].ProductID = &product.ID
	request, err := f.quotes.CreateQuoteRequest(customerCtx, req)
	require.NoError(t, err)

	quote := responseInput(request.ID, 1050)
	quote.Items[0].ProductID = &product.ID
	response, err := f.quotes.SubmitResponse(ctxFor(f.supplierA), quote)
	require.NoError(t, err)
	sibling, err := f.quotes.SubmitResponse(ctxFor(f.supplierB), responseInput(request.ID, 1100))
	require.NoError(t, err)

	_, err = f.quotes.AcceptResponse(customerCtx, request.ID, response.ID)
	assert.ErrorIs(t, err, service.ErrInsufficientStock)

	var storedRequest domain.QuoteRequest
	require.NoError(t, f.db.First(&storedRequest, "id = ?", request.ID).Error)
	assert.Equal(t, domain.QuoteRequestStatusQuoted, storedRequest.Status)
	assert.Nil(t, storedRequest.AcceptedResponseID)

	var statuses []domain.QuoteResponseStatus
	require.NoError(t, f.db.Model(&domain.QuoteResponse{}).
		Where("id IN ?", []uuid.UUID{response.ID, sibling.ID}).
		Pluck("status", &statuses).Error)
	assert.Equal(t, []domain.QuoteResponseStatus{domain.QuoteResponseStatusPending, domain.QuoteResponseStatusPending}, statuses)

	var orders int64
	require.NoError(t, f.db.Model(&domain.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	var storedProduct domain.Product
	require.NoError(t, f.db.First(&storedProduct, "id = ?", product.ID).Error)
	assert.Equal(t, 10.0, storedProduct.Stock)
}

func TestAcceptResponse_DecrementsStock(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)

	product := testutil.CreateTestProduct(t, f.db, f.supplierA.ID, "Portland cement 25kg", 8, 250)

	req := requestInput(f.supplierA.ID)
	req.Items[0].ProductID = &product.ID
	request, err := f.quotes.CreateQuoteRequest(customerCtx, req)
	require.NoError(t, err)

	quote := responseInput(request.ID, 1050)
	quote.Items[0].ProductID = &product.ID
	response, err := f.quotes.SubmitResponse(ctxFor(f.supplierA), quote)
	require.NoError(t, err)

	_, err = f.quotes.AcceptResponse(customerCtx, request.ID, response.ID)
	require.NoError(t, err)

	var storedProduct domain.Product
	require.NoError(t, f.db.First(&storedProduct, "id = ?", product.ID).Error)
	assert.Equal(t, 150.0, storedProduct.Stock)
}

func TestSubmitResponse_RejectsOtherSuppliersProduct(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)

	product := testutil.CreateTestProduct(t, f.db, f.supplierA.ID, "Portland cement 25kg", 8, 500)

	request, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID, f.supplierB.ID))
	require.NoError(t, err)

	quote := responseInput(request.ID, 1050)
	quote.Items[0].ProductID = &product.ID
	_, err = f.quotes.SubmitResponse(ctxFor(f.supplierB), quote)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	var responses int64
	require.NoError(t, f.db.Model(&domain.QuoteResponse{}).Where("quote_request_id = ?", request.ID).Count(&responses).Error)
	assert.Zero(t, responses)

	// the owning supplier may still quote it
	own, err := f.quotes.SubmitResponse(ctxFor(f.supplierA), quote)
	require.NoError(t, err)

	_, err = f.quotes.AcceptResponse(customerCtx, request.ID, own.ID)
	require.NoError(t, err)

	var storedProduct domain.Product
	require.NoError(t, f.db.First(&storedProduct, "id = ?", product.ID).Error)
	assert.Equal(t, 400.0, storedProduct.Stock)
}

func TestCancelQuoteRequest(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)

	request, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID, f.supplierB.ID))
	require.NoError(t, err)
	response, err := f.quotes.SubmitResponse(ctxFor(f.supplierA), responseInput(request.ID, 1050))
	require.NoError(t, err)

	dto, err := f.quotes.CancelQuoteRequest(customerCtx, request.ID, "budget cut")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteRequestStatusCancelled, dto.Status)
	assert.Equal(t, "budget cut", dto.CancellationReason)
	assert.NotNil(t, dto.CancelledAt)

	var stored domain.QuoteResponse
	require.NoError(t, f.db.First(&stored, "id = ?", response.ID).Error)
	assert.Equal(t, domain.QuoteResponseStatusPending, stored.Status)

	assert.Len(t, notificationsFor(t, f.db, f.supplierA.ID, service.EventQuoteRequestCancelled), 1)
	assert.Empty(t, notificationsFor(t, f.db, f.supplierB.ID, service.EventQuoteRequestCancelled))

	_, err = f.quotes.CancelQuoteRequest(customerCtx, request.ID, "again")
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = f.quotes.CancelQuoteRequest(customerCtx, uuid.New(), "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCancelQuoteRequest_AfterAcceptance(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)

	request, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
	require.NoError(t, err)
	response, err := f.quotes.SubmitResponse(ctxFor(f.supplierA), responseInput(request.ID, 1050))
	require.NoError(t, err)
	_, err = f.quotes.AcceptResponse(customerCtx, request.ID, response.ID)
	require.NoError(t, err)

	_, err = f.quotes.CancelQuoteRequest(customerCtx, request.ID, "changed my mind")
	assert.ErrorIs(t, err, service.ErrQuoteRequestAlreadyAccepted)
}

func TestWithdrawResponse(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)
	supplierCtx := ctxFor(f.supplierA)

	request, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
	require.NoError(t, err)
	response, err := f.quotes.SubmitResponse(supplierCtx, responseInput(request.ID, 1050))
	require.NoError(t, err)

	_, err = f.quotes.WithdrawResponse(ctxFor(f.supplierB), response.ID, "")
	assert.ErrorIs(t, err, service.ErrQuoteResponseNotFound)

	dto, err := f.quotes.WithdrawResponse(supplierCtx, response.ID, "price change")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteResponseStatusWithdrawn, dto.Status)
	assert.Equal(t, "price change", dto.WithdrawalReason)
	assert.Equal(t, request.QuoteNumber, dto.QuoteNumber)

	withdrawn := notificationsFor(t, f.db, f.customer.ID, service.EventQuoteWithdrawn)
	require.Len(t, withdrawn, 1)
	assert.Contains(t, withdrawn[0].Message, "price change")

	_, err = f.quotes.WithdrawResponse(supplierCtx, response.ID, "")
	assert.ErrorIs(t, err, service.ErrQuoteResponseNotPending)
}

func TestWithdrawResponse_AcceptedIsConflict(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)
	supplierCtx := ctxFor(f.supplierA)

	request, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
	require.NoError(t, err)
	response, err := f.quotes.SubmitResponse(supplierCtx, responseInput(request.ID, 1050))
	require.NoError(t, err)
	_, err = f.quotes.AcceptResponse(customerCtx, request.ID, response.ID)
	require.NoError(t, err)

	_, err = f.quotes.WithdrawResponse(supplierCtx, response.ID, "")
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestGetCustomerRequest_ResponsesCheapestFirst(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)

	request, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput())
	require.NoError(t, err)
	_, err = f.quotes.SubmitResponse(ctxFor(f.supplierA), responseInput(request.ID, 1300))
	require.NoError(t, err)
	_, err = f.quotes.SubmitResponse(ctxFor(f.supplierB), responseInput(request.ID, 1050))
	require.NoError(t, err)
	_, err = f.quotes.SubmitResponse(ctxFor(f.supplierC), responseInput(request.ID, 1200))
	require.NoError(t, err)

	detail, err := f.quotes.GetCustomerRequest(customerCtx, request.ID)
	require.NoError(t, err)
	require.Len(t, detail.Responses, 3)
	assert.Equal(t, 1050.0, detail.Responses[0].TotalAmount)
	assert.Equal(t, 1200.0, detail.Responses[1].TotalAmount)
	assert.Equal(t, 1300.0, detail.Responses[2].TotalAmount)
	assert.Equal(t, 3, detail.ResponseCount)

	other := testutil.CreateTestUser(t, f.db, domain.RoleCustomer, "Other Customer")
	_, err = f.quotes.GetCustomerRequest(ctxFor(other), request.ID)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestListSupplierResponses(t *testing.T) {
	f := setupMarketplace(t)
	customerCtx := ctxFor(f.customer)
	supplierCtx := ctxFor(f.supplierA)

	first, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
	require.NoError(t, err)
	second, err := f.quotes.CreateQuoteRequest(customerCtx, requestInput(f.supplierA.ID))
	require.NoError(t, err)

	r1, err := f.quotes.SubmitResponse(supplierCtx, responseInput(first.ID, 1050))
	require.NoError(t, err)
	_, err = f.quotes.SubmitResponse(supplierCtx, responseInput(second.ID, 990))
	require.NoError(t, err)
	_, err = f.quotes.WithdrawResponse(supplierCtx, r1.ID, "")
	require.NoError(t, err)

	all, pagination, err := f.quotes.ListSupplierResponses(supplierCtx, domain.QuoteResponseFilters{}, 1, 20)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(2), pagination.Total)

	status := domain.QuoteResponseStatusWithdrawn
	withdrawn, _, err := f.quotes.ListSupplierResponses(supplierCtx, domain.QuoteResponseFilters{Status: &status}, 1, 20)
	require.NoError(t, err)
	require.Len(t, withdrawn, 1)
	assert.Equal(t, r1.ID, withdrawn[0].ID)
	assert.Equal(t, first.QuoteNumber, withdrawn[0].QuoteNumber)
}
