package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/events"
	"github.com/buildmart/marketplace-api/internal/mapper"
	"github.com/buildmart/marketplace-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuoteService runs the quote negotiation workflow: customers publish quote
// requests, suppliers answer with priced responses and the customer accepts
// exactly one of them, which materializes an order.
type QuoteService struct {
	requestRepo      *repository.QuoteRequestRepository
	responseRepo     *repository.QuoteResponseRepository
	orderRepo        *repository.OrderRepository
	productRepo      *repository.ProductRepository
	userRepo         *repository.UserRepository
	numberSeqService *NumberSequenceService
	notifier         NotificationDispatcher
	publisher        events.Publisher
	logger           *zap.Logger
	db               *gorm.DB
	now              func() time.Time
}

// NewQuoteService creates a new QuoteService instance
func NewQuoteService(
	requestRepo *repository.QuoteRequestRepository,
	responseRepo *repository.QuoteResponseRepository,
	orderRepo *repository.OrderRepository,
	productRepo *repository.ProductRepository,
	userRepo *repository.UserRepository,
	numberSeqService *NumberSequenceService,
	notifier NotificationDispatcher,
	publisher events.Publisher,
	logger *zap.Logger,
	db *gorm.DB,
) *QuoteService {
	return &QuoteService{
		requestRepo:      requestRepo,
		responseRepo:     responseRepo,
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		userRepo:         userRepo,
		numberSeqService: numberSeqService,
		notifier:         notifier,
		publisher:        publisher,
		logger:           logger,
		db:               db,
		now:              time.Now,
	}
}

// ============================================================================
// Customer operations
// ============================================================================

// CreateQuoteRequest publishes a new quote request and notifies every recipient supplier
func (s *QuoteService) CreateQuoteRequest(ctx context.Context, req *domain.CreateQuoteRequestRequest) (*domain.QuoteRequestDTO, error) {
	userCtx, err := currentCustomer(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := validateQuoteRequestInput(req, now); err != nil {
		return nil, err
	}

	targets := uniqueIDs(req.TargetSuppliers)
	if len(targets) > 0 {
		count, err := s.userRepo.CountActiveByIDsAndRole(ctx, targets, domain.RoleSupplier)
		if err != nil {
			return nil, fmt.Errorf("failed to verify target suppliers: %w", err)
		}
		if count != int64(len(targets)) {
			return nil, invalidInput("targetSuppliers: every target must be an active supplier")
		}
	}

	productIDs := make([]*uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}
	if err := s.verifyProducts(ctx, productIDs); err != nil {
		return nil, err
	}

	quoteNumber, err := s.numberSeqService.GenerateQuoteNumber(ctx)
	if err != nil {
		return nil, err
	}

	request := &domain.QuoteRequest{
		QuoteNumber:        quoteNumber,
		CustomerID:         userCtx.UserID,
		DeliveryAddress:    strings.TrimSpace(req.DeliveryLocation.Address),
		DeliveryCity:       req.DeliveryLocation.City,
		DeliveryPostalCode: req.DeliveryLocation.PostalCode,
		DeliveryLatitude:   req.DeliveryLocation.Latitude,
		DeliveryLongitude:  req.DeliveryLocation.Longitude,
		RequiredBy:         req.RequiredBy.UTC(),
		AdditionalNotes:    req.AdditionalNotes,
		BroadcastToAll:     req.BroadcastToAll,
		Status:             domain.QuoteRequestStatusPending,
	}

	request.Items = make([]domain.QuoteRequestItem, len(req.Items))
	for i, item := range req.Items {
		request.Items[i] = domain.QuoteRequestItem{
			Position:    i,
			ProductID:   item.ProductID,
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			Unit:        item.Unit,
		}
	}

	request.Targets = make([]domain.QuoteRequestTarget, len(targets))
	for i, supplierID := range targets {
		request.Targets[i] = domain.QuoteRequestTarget{SupplierID: supplierID}
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}

	s.logger.Info("quote request created",
		zap.String("quoteRequestID", request.ID.String()),
		zap.String("quoteNumber", request.QuoteNumber),
		zap.String("customerID", userCtx.UserID.String()),
		zap.Bool("broadcastToAll", request.BroadcastToAll),
		zap.Int("targets", len(targets)))

	afterCtx := context.WithoutCancel(ctx)

	recipients := targets
	if request.BroadcastToAll {
		recipients, err = s.userRepo.ListActiveIDsByRole(afterCtx, domain.RoleSupplier)
		if err != nil {
			s.logger.Warn("failed to resolve broadcast recipients",
				zap.String("quoteRequestID", request.ID.String()),
				zap.Error(err))
			recipients = nil
		}
	}

	s.notifier.Dispatch(afterCtx, NotificationEvent{
		Kind:           EventQuoteRequestReceived,
		Recipients:     recipients,
		QuoteRequestID: &request.ID,
		QuoteNumber:    request.QuoteNumber,
	})

	s.publish(afterCtx, events.QuoteRequestCreated, events.QuoteRequestPayload{
		QuoteRequestID: request.ID,
		QuoteNumber:    request.QuoteNumber,
		CustomerID:     request.CustomerID,
		BroadcastToAll: request.BroadcastToAll,
		Recipients:     recipients,
		RequiredBy:     request.RequiredBy,
	})

	dto := mapper.ToQuoteRequestDTO(request)
	return &dto, nil
}

// ListCustomerRequests returns the caller's quote requests, newest first
func (s *QuoteService) ListCustomerRequests(ctx context.Context, filters domain.QuoteRequestFilters, page, limit int) ([]domain.QuoteRequestDTO, *domain.Pagination, error) {
	userCtx, err := currentCustomer(ctx)
	if err != nil {
		return nil, nil, err
	}

	page, limit = repository.NormalizePage(page, limit)

	requests, total, err := s.requestRepo.ListByCustomer(ctx, userCtx.UserID, filters, page, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list quote requests: %w", err)
	}

	dtos := make([]domain.QuoteRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = mapper.ToQuoteRequestDTO(&requests[i])
	}

	return dtos, domain.NewPagination(page, limit, total), nil
}

// GetCustomerRequest returns one of the caller's requests with every response, cheapest first
func (s *QuoteService) GetCustomerRequest(ctx context.Context, id uuid.UUID) (*domain.QuoteRequestDetailDTO, error) {
	userCtx, err := currentCustomer(ctx)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.GetByIDForCustomer(ctx, id, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteRequestNotFound
		}
		return nil, fmt.Errorf("failed to get quote request: %w", err)
	}

	responses, err := s.responseRepo.ListByRequest(ctx, request.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote responses: %w", err)
	}

	now := s.now().UTC()
	responseDTOs := make([]domain.QuoteResponseDTO, len(responses))
	for i := range responses {
		responses[i].QuoteRequest = request
		responseDTOs[i] = mapper.ToQuoteResponseDTO(&responses[i], now)
	}

	return &domain.QuoteRequestDetailDTO{
		QuoteRequestDTO: mapper.ToQuoteRequestDTO(request),
		Responses:       responseDTOs,
	}, nil
}

// AcceptResponse accepts one response under the caller's request. In a single
// transaction it creates the order, marks the response and request accepted and
// rejects every other pending response. Notifications follow the commit.
func (s *QuoteService) AcceptResponse(ctx context.Context, requestID, responseID uuid.UUID) (*domain.AcceptQuoteResultDTO, error) {
	userCtx, err := currentCustomer(ctx)
	if err != nil {
		return nil, err
	}

	request, response, err := s.loadAcceptable(ctx, requestID, responseID, userCtx.UserID)
	if err != nil {
		return nil, err
	}

	orderNumber, err := s.numberSeqService.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	// Shared by every write in the transaction; truncated so the rejected
	// siblings can be selected back by their rejected_at stamp.
	now := s.now().UTC().Truncate(time.Microsecond)

	order := MaterializeOrder(request, response, orderNumber)
	var rejectedSuppliers []uuid.UUID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accepted, err := s.requestRepo.WithTx(tx).MarkAccepted(ctx, request.ID, response.ID, now)
		if err != nil {
			return fmt.Errorf("failed to accept quote request: %w", err)
		}
		if !accepted {
			return s.closedRequestError(ctx, tx, request.ID)
		}

		accepted, err = s.responseRepo.WithTx(tx).MarkAccepted(ctx, response.ID, now)
		if err != nil {
			return fmt.Errorf("failed to accept quote response: %w", err)
		}
		if !accepted {
			return ErrQuoteResponseNotPending
		}

		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrQuoteRequestAlreadyAccepted
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		products := s.productRepo.WithTx(tx)
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			ok, err := products.DecrementStock(ctx, *item.ProductID, response.SupplierID, item.Quantity, now)
			if err != nil {
				return fmt.Errorf("failed to reserve stock: %w", err)
			}
			if !ok {
				s.logger.Info("insufficient stock for accepted quote",
					zap.String("productID", item.ProductID.String()),
					zap.Float64("quantity", item.Quantity))
				return ErrInsufficientStock
			}
		}

		rejectedSuppliers, err = s.responseRepo.WithTx(tx).RejectPendingSiblings(ctx, request.ID, response.ID, domain.RejectionReasonSiblingAccepted, now)
		if err != nil {
			return fmt.Errorf("failed to reject sibling responses: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = domain.QuoteRequestStatusAccepted
	request.AcceptedResponseID = &response.ID
	request.AcceptedAt = &now
	request.UpdatedAt = now
	response.Status = domain.QuoteResponseStatusAccepted
	response.AcceptedAt = &now
	response.UpdatedAt = now
	response.QuoteRequest = request

	s.logger.Info("quote response accepted",
		zap.String("quoteRequestID", request.ID.String()),
		zap.String("quoteResponseID", response.ID.String()),
		zap.String("orderID", order.ID.String()),
		zap.String("orderNumber", order.OrderNumber),
		zap.Int("rejectedSiblings", len(rejectedSuppliers)))

	afterCtx := context.WithoutCancel(ctx)

	s.notifier.Dispatch(afterCtx,
		NotificationEvent{
			Kind:            EventQuoteAccepted,
			Recipients:      []uuid.UUID{response.SupplierID},
			QuoteRequestID:  &request.ID,
			QuoteResponseID: &response.ID,
			OrderID:         &order.ID,
			QuoteNumber:     request.QuoteNumber,
			ResponseNumber:  response.ResponseNumber,
			OrderNumber:     order.OrderNumber,
			Amount:          order.TotalAmount,
		},
		NotificationEvent{
			Kind:           EventQuoteNotSelected,
			Recipients:     rejectedSuppliers,
			QuoteRequestID: &request.ID,
			QuoteNumber:    request.QuoteNumber,
		},
		NotificationEvent{
			Kind:            EventOrderPlaced,
			Recipients:      []uuid.UUID{request.CustomerID},
			QuoteRequestID:  &request.ID,
			QuoteResponseID: &response.ID,
			OrderID:         &order.ID,
			OrderNumber:     order.OrderNumber,
			Amount:          order.TotalAmount,
		},
	)

	s.publish(afterCtx, events.QuoteResponseAccepted, events.QuoteResponsePayload{
		QuoteResponseID: response.ID,
		ResponseNumber:  response.ResponseNumber,
		QuoteRequestID:  request.ID,
		SupplierID:      response.SupplierID,
		TotalAmount:     response.TotalAmount,
		Status:          string(response.Status),
	})
	s.publish(afterCtx, events.OrderPlaced, orderPayload(order))

	return &domain.AcceptQuoteResultDTO{
		QuoteRequest:  mapper.ToQuoteRequestDTO(request),
		QuoteResponse: mapper.ToQuoteResponseDTO(response, now),
		Order:         mapper.ToOrderSummaryDTO(order),
	}, nil
}

// loadAcceptable runs the acceptance preconditions in their reporting order
func (s *QuoteService) loadAcceptable(ctx context.Context, requestID, responseID, customerID uuid.UUID) (*domain.QuoteRequest, *domain.QuoteResponse, error) {
	request, err := s.requestRepo.GetByIDForCustomer(ctx, requestID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrQuoteRequestNotFound
		}
		return nil, nil, fmt.Errorf("failed to get quote request: %w", err)
	}

	if request.Status == domain.QuoteRequestStatusAccepted {
		return nil, nil, ErrQuoteRequestAlreadyAccepted
	}
	if !request.Status.IsOpen() {
		return nil, nil, ErrQuoteRequestClosed
	}

	response, err := s.responseRepo.GetByIDForRequest(ctx, responseID, request.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrQuoteResponseNotFound
		}
		return nil, nil, fmt.Errorf("failed to get quote response: %w", err)
	}

	if response.IsExpired(s.now().UTC()) {
		return nil, nil, ErrQuoteResponseExpired
	}
	if response.Status != domain.QuoteResponseStatusPending {
		return nil, nil, ErrQuoteResponseNotPending
	}

	return request, response, nil
}

// closedRequestError explains why a conditional update on an open request matched nothing
func (s *QuoteService) closedRequestError(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error {
	current, err := s.requestRepo.WithTx(tx).GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to reload quote request: %w", err)
	}
	if current.Status == domain.QuoteRequestStatusAccepted {
		return ErrQuoteRequestAlreadyAccepted
	}
	return ErrQuoteRequestClosed
}

// CancelQuoteRequest closes one of the caller's open requests. Responses are left untouched.
func (s *QuoteService) CancelQuoteRequest(ctx context.Context, id uuid.UUID, reason string) (*domain.QuoteRequestDTO, error) {
	userCtx, err := currentCustomer(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reason = strings.TrimSpace(reason)

	cancelled, err := s.requestRepo.Cancel(ctx, id, userCtx.UserID, reason, now)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel quote request: %w", err)
	}

	request, err := s.requestRepo.GetByIDForCustomer(ctx, id, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteRequestNotFound
		}
		return nil, fmt.Errorf("failed to get quote request: %w", err)
	}

	if !cancelled {
		if request.Status == domain.QuoteRequestStatusAccepted {
			return nil, ErrQuoteRequestAlreadyAccepted
		}
		return nil, ErrQuoteRequestClosed
	}

	s.logger.Info("quote request cancelled",
		zap.String("quoteRequestID", request.ID.String()),
		zap.String("customerID", userCtx.UserID.String()))

	afterCtx := context.WithoutCancel(ctx)

	suppliers, err := s.responseRepo.SupplierIDsByStatus(afterCtx, request.ID, []domain.QuoteResponseStatus{domain.QuoteResponseStatusPending})
	if err != nil {
		s.logger.Warn("failed to resolve suppliers to notify of cancellation",
			zap.String("quoteRequestID", request.ID.String()),
			zap.Error(err))
	}

	s.notifier.Dispatch(afterCtx, NotificationEvent{
		Kind:           EventQuoteRequestCancelled,
		Recipients:     suppliers,
		QuoteRequestID: &request.ID,
		QuoteNumber:    request.QuoteNumber,
		Reason:         reason,
	})

	s.publish(afterCtx, events.QuoteRequestCancelled, events.QuoteRequestPayload{
		QuoteRequestID: request.ID,
		QuoteNumber:    request.QuoteNumber,
		CustomerID:     request.CustomerID,
		BroadcastToAll: request.BroadcastToAll,
		RequiredBy:     request.RequiredBy,
		Reason:         reason,
	})

	dto := mapper.ToQuoteRequestDTO(request)
	return &dto, nil
}

// ============================================================================
// Supplier operations
// ============================================================================

// ListForSupplier returns the open, not yet overdue requests the caller may answer
func (s *QuoteService) ListForSupplier(ctx context.Context, filters domain.QuoteRequestFilters, page, limit int) ([]domain.SupplierQuoteRequestDTO, *domain.Pagination, error) {
	userCtx, err := currentSupplier(ctx)
	if err != nil {
		return nil, nil, err
	}

	page, limit = repository.NormalizePage(page, limit)

	statuses := domain.OpenQuoteRequestStatuses
	if filters.Status != nil {
		if !filters.Status.IsOpen() {
			return []domain.SupplierQuoteRequestDTO{}, domain.NewPagination(page, limit, 0), nil
		}
		statuses = []domain.QuoteRequestStatus{*filters.Status}
	}

	requests, total, err := s.requestRepo.ListOpenForSupplier(ctx, userCtx.UserID, statuses, s.now().UTC(), page, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list quote requests: %w", err)
	}

	ids := make([]uuid.UUID, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}

	responded, err := s.responseRepo.RespondedRequestIDs(ctx, userCtx.UserID, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load response state: %w", err)
	}

	dtos := make([]domain.SupplierQuoteRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = domain.SupplierQuoteRequestDTO{
			QuoteRequestDTO: mapper.ToQuoteRequestDTO(&requests[i]),
			HasResponded:    responded[requests[i].ID],
		}
	}

	return dtos, domain.NewPagination(page, limit, total), nil
}

// SubmitResponse records the caller's priced response to a quote request
func (s *QuoteService) SubmitResponse(ctx context.Context, req *domain.SubmitQuoteResponseRequest) (*domain.QuoteResponseDTO, error) {
	userCtx, err := currentSupplier(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	request, err := s.requestRepo.GetByID(ctx, req.QuoteRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteRequestNotFound
		}
		return nil, fmt.Errorf("failed to get quote request: %w", err)
	}

	if !request.IsVisibleTo(userCtx.UserID) {
		return nil, ErrSupplierNotTargeted
	}
	if !request.Status.IsOpen() {
		return nil, ErrQuoteRequestClosed
	}
	if request.IsPastDeadline(now) {
		return nil, ErrQuoteRequestDeadlinePassed
	}

	exists, err := s.responseRepo.ExistsForSupplier(ctx, request.ID, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing response: %w", err)
	}
	if exists {
		return nil, ErrAlreadyResponded
	}

	if len(req.Items) != len(request.Items) {
		return nil, invalidInput("items: expected %d priced lines, got %d", len(request.Items), len(req.Items))
	}
	if !req.ValidUntil.After(now) {
		return nil, invalidInput("validUntil: must be in the future")
	}
	if req.TotalAmount <= 0 {
		return nil, invalidInput("totalAmount: must be greater than zero")
	}
	if req.DeliveryCharges < 0 || req.DeliveryCharges > req.TotalAmount {
		return nil, invalidInput("deliveryCharges: must be between 0 and totalAmount")
	}

	productIDs := make([]*uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}
	if err := s.verifySupplierProducts(ctx, productIDs, userCtx.UserID); err != nil {
		return nil, err
	}

	responseNumber, err := s.numberSeqService.GenerateResponseNumber(ctx)
	if err != nil {
		return nil, err
	}

	response := &domain.QuoteResponse{
		ResponseNumber:        responseNumber,
		QuoteRequestID:        request.ID,
		SupplierID:            userCtx.UserID,
		TotalAmount:           money(req.TotalAmount).InexactFloat64(),
		DeliveryCharges:       money(req.DeliveryCharges).InexactFloat64(),
		EstimatedDeliveryDays: req.EstimatedDeliveryDays,
		ValidUntil:            req.ValidUntil.UTC(),
		Terms:                 req.Terms,
		PaymentTerms:          req.PaymentTerms,
		Status:                domain.QuoteResponseStatusPending,
	}

	response.Items = make([]domain.QuoteResponseItem, len(req.Items))
	for i, item := range req.Items {
		total := item.TotalPrice
		if total == 0 {
			total = LineTotal(item.UnitPrice, item.Quantity)
		}
		response.Items[i] = domain.QuoteResponseItem{
			Position:   i,
			ProductID:  item.ProductID,
			Name:       strings.TrimSpace(item.Name),
			Quantity:   item.Quantity,
			Unit:       item.Unit,
			UnitPrice:  item.UnitPrice,
			TotalPrice: money(total).InexactFloat64(),
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.responseRepo.WithTx(tx).Create(ctx, response); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyResponded
			}
			return fmt.Errorf("failed to create quote response: %w", err)
		}

		recorded, err := s.requestRepo.WithTx(tx).RecordResponse(ctx, request.ID, now)
		if err != nil {
			return fmt.Errorf("failed to record response on quote request: %w", err)
		}
		if !recorded {
			return ErrQuoteRequestClosed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.ResponseCount++
	request.Status = domain.QuoteRequestStatusQuoted
	response.QuoteRequest = request

	s.logger.Info("quote response submitted",
		zap.String("quoteResponseID", response.ID.String()),
		zap.String("responseNumber", response.ResponseNumber),
		zap.String("quoteRequestID", request.ID.String()),
		zap.String("supplierID", userCtx.UserID.String()),
		zap.Float64("totalAmount", response.TotalAmount))

	afterCtx := context.WithoutCancel(ctx)

	s.notifier.Dispatch(afterCtx, NotificationEvent{
		Kind:            EventQuoteReceived,
		Recipients:      []uuid.UUID{request.CustomerID},
		QuoteRequestID:  &request.ID,
		QuoteResponseID: &response.ID,
		QuoteNumber:     request.QuoteNumber,
		ResponseNumber:  response.ResponseNumber,
		Amount:          response.TotalAmount,
	})

	s.publish(afterCtx, events.QuoteResponseSubmitted, events.QuoteResponsePayload{
		QuoteResponseID: response.ID,
		ResponseNumber:  response.ResponseNumber,
		QuoteRequestID:  request.ID,
		SupplierID:      response.SupplierID,
		TotalAmount:     response.TotalAmount,
		Status:          string(response.Status),
	})

	dto := mapper.ToQuoteResponseDTO(response, now)
	return &dto, nil
}

// ListSupplierResponses returns the caller's own responses, newest first
func (s *QuoteService) ListSupplierResponses(ctx context.Context, filters domain.QuoteResponseFilters, page, limit int) ([]domain.QuoteResponseDTO, *domain.Pagination, error) {
	userCtx, err := currentSupplier(ctx)
	if err != nil {
		return nil, nil, err
	}

	page, limit = repository.NormalizePage(page, limit)

	responses, total, err := s.responseRepo.ListBySupplier(ctx, userCtx.UserID, filters, page, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list quote responses: %w", err)
	}

	now := s.now().UTC()
	dtos := make([]domain.QuoteResponseDTO, len(responses))
	for i := range responses {
		dtos[i] = mapper.ToQuoteResponseDTO(&responses[i], now)
	}

	return dtos, domain.NewPagination(page, limit, total), nil
}

// GetSupplierResponse returns one of the caller's responses
func (s *QuoteService) GetSupplierResponse(ctx context.Context, id uuid.UUID) (*domain.QuoteResponseDTO, error) {
	userCtx, err := currentSupplier(ctx)
	if err != nil {
		return nil, err
	}

	response, err := s.responseRepo.GetByIDForSupplier(ctx, id, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteResponseNotFound
		}
		return nil, fmt.Errorf("failed to get quote response: %w", err)
	}

	if request, err := s.requestRepo.GetByID(ctx, response.QuoteRequestID); err == nil {
		response.QuoteRequest = request
	}

	dto := mapper.ToQuoteResponseDTO(response, s.now().UTC())
	return &dto, nil
}

// WithdrawResponse retracts one of the caller's pending responses
func (s *QuoteService) WithdrawResponse(ctx context.Context, id uuid.UUID, reason string) (*domain.QuoteResponseDTO, error) {
	userCtx, err := currentSupplier(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reason = strings.TrimSpace(reason)

	withdrawn, err := s.responseRepo.Withdraw(ctx, id, userCtx.UserID, reason, now)
	if err != nil {
		return nil, fmt.Errorf("failed to withdraw quote response: %w", err)
	}

	response, err := s.responseRepo.GetByIDForSupplier(ctx, id, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteResponseNotFound
		}
		return nil, fmt.Errorf("failed to get quote response: %w", err)
	}

	if !withdrawn {
		return nil, ErrQuoteResponseNotPending
	}

	request, err := s.requestRepo.GetByID(ctx, response.QuoteRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote request: %w", err)
	}
	response.QuoteRequest = request

	s.logger.Info("quote response withdrawn",
		zap.String("quoteResponseID", response.ID.String()),
		zap.String("supplierID", userCtx.UserID.String()))

	afterCtx := context.WithoutCancel(ctx)

	s.notifier.Dispatch(afterCtx, NotificationEvent{
		Kind:            EventQuoteWithdrawn,
		Recipients:      []uuid.UUID{request.CustomerID},
		QuoteRequestID:  &request.ID,
		QuoteResponseID: &response.ID,
		QuoteNumber:     request.QuoteNumber,
		ResponseNumber:  response.ResponseNumber,
		Reason:          reason,
	})

	s.publish(afterCtx, events.QuoteResponseWithdrawn, events.QuoteResponsePayload{
		QuoteResponseID: response.ID,
		ResponseNumber:  response.ResponseNumber,
		QuoteRequestID:  request.ID,
		SupplierID:      response.SupplierID,
		TotalAmount:     response.TotalAmount,
		Status:          string(response.Status),
		Reason:          reason,
	})

	dto := mapper.ToQuoteResponseDTO(response, now)
	return &dto, nil
}

// ============================================================================
// Helpers
// ============================================================================

func validateQuoteRequestInput(req *domain.CreateQuoteRequestRequest, now time.Time) error {
	if len(req.Items) == 0 {
		return invalidInput("items: at least one item is required")
	}
	for i, item := range req.Items {
		if item.ProductID == nil && strings.TrimSpace(item.Description) == "" {
			return invalidInput("items[%d]: productId or description is required", i)
		}
		if item.Quantity <= 0 {
			return invalidInput("items[%d].quantity: must be greater than zero", i)
		}
	}
	if strings.TrimSpace(req.DeliveryLocation.Address) == "" {
		return invalidInput("deliveryLocation.address: delivery address is required")
	}
	if !req.RequiredBy.After(now) {
		return invalidInput("requiredBy: must be in the future")
	}
	if len(req.TargetSuppliers) == 0 && !req.BroadcastToAll {
		return invalidInput("targetSuppliers: provide target suppliers or set broadcastToAll")
	}
	if len(req.TargetSuppliers) > 0 && req.BroadcastToAll {
		return invalidInput("targetSuppliers: cannot be combined with broadcastToAll")
	}
	return nil
}

// verifyProducts checks every referenced product exists
func (s *QuoteService) verifyProducts(ctx context.Context, refs []*uuid.UUID) error {
	ids := referencedIDs(refs)
	if len(ids) == 0 {
		return nil
	}

	count, err := s.productRepo.CountByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to verify products: %w", err)
	}
	if count != int64(len(ids)) {
		return invalidInput("items: references an unknown product")
	}
	return nil
}

// verifySupplierProducts checks every referenced product is in the supplier's own catalog
func (s *QuoteService) verifySupplierProducts(ctx context.Context, refs []*uuid.UUID, supplierID uuid.UUID) error {
	ids := referencedIDs(refs)
	if len(ids) == 0 {
		return nil
	}

	count, err := s.productRepo.CountByIDsForSupplier(ctx, ids, supplierID)
	if err != nil {
		return fmt.Errorf("failed to verify products: %w", err)
	}
	if count != int64(len(ids)) {
		return invalidInput("items: references a product outside the supplier's catalog")
	}
	return nil
}

func referencedIDs(refs []*uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, ref := range refs {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	return uniqueIDs(ids)
}

func (s *QuoteService) publish(ctx context.Context, routingKey string, payload interface{}) {
	publishEvent(ctx, s.publisher, s.logger, routingKey, payload)
}

// publishEvent emits a domain event; failures are logged and never returned
func publishEvent(ctx context.Context, publisher events.Publisher, logger *zap.Logger, routingKey string, payload interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, routingKey, payload); err != nil {
		logger.Warn("failed to publish domain event",
			zap.String("routingKey", routingKey),
			zap.Error(err))
	}
}

func orderPayload(order *domain.Order) events.OrderPayload {
	return events.OrderPayload{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerID:     order.CustomerID,
		SupplierID:     order.SupplierID,
		TotalAmount:    order.TotalAmount,
		OrderStatus:    string(order.OrderStatus),
		QuoteReference: order.QuoteReference,
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
