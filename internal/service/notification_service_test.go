package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/buildmart/marketplace-api/internal/repository"
	"github.com/buildmart/marketplace-api/internal/service"
	"github.com/buildmart/marketplace-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyStore fails Create for selected users and records the rest
type flakyStore struct {
	failFor map[uuid.UUID]bool
	created []domain.Notification
}

func (s *flakyStore) Create(ctx context.Context, n *domain.Notification) error {
	if s.failFor[n.UserID] {
		return errors.New("connection reset")
	}
	s.created = append(s.created, *n)
	return nil
}

func (s *flakyStore) ListByUser(ctx context.Context, userID uuid.UUID, filters domain.NotificationFilters, now time.Time, page, limit int) ([]domain.Notification, int64, error) {
	return nil, 0, nil
}

func (s *flakyStore) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	return false, nil
}

func (s *flakyStore) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *flakyStore) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	return 0, nil
}

func TestDispatch_AttemptsEveryRecipient(t *testing.T) {
	failing := uuid.New()
	ok1 := uuid.New()
	ok2 := uuid.New()
	store := &flakyStore{failFor: map[uuid.UUID]bool{failing: true}}
	svc := service.NewNotificationService(store, 0, zap.NewNop())

	requestID := uuid.New()
	failures := svc.Dispatch(context.Background(), service.NotificationEvent{
		Kind:           service.EventQuoteRequestReceived,
		Recipients:     []uuid.UUID{ok1, failing, ok2},
		QuoteRequestID: &requestID,
		QuoteNumber:    "QR-2026-000042",
	})

	require.Len(t, failures, 1)
	assert.Equal(t, failing, failures[0].UserID)
	assert.Equal(t, service.EventQuoteRequestReceived, failures[0].Kind)

	require.Len(t, store.created, 2)
	assert.Equal(t, ok1, store.created[0].UserID)
	assert.Equal(t, ok2, store.created[1].UserID)
	assert.Equal(t, domain.NotificationTypeQuote, store.created[0].Type)
	assert.Contains(t, store.created[0].Message, "QR-2026-000042")
	assert.Equal(t, "/quotes/request/"+requestID.String(), store.created[0].ActionURL)
	assert.Nil(t, store.created[0].ExpiresAt)
}

func TestDispatch_UnknownKind(t *testing.T) {
	store := &flakyStore{}
	svc := service.NewNotificationService(store, 0, zap.NewNop())

	failures := svc.Dispatch(context.Background(), service.NotificationEvent{
		Kind:       service.NotificationEventKind("nonsense"),
		Recipients: []uuid.UUID{uuid.New()},
	})

	assert.Len(t, failures, 1)
	assert.Empty(t, store.created)
}

func TestDispatch_TTLSetsExpiry(t *testing.T) {
	store := &flakyStore{}
	svc := service.NewNotificationService(store, 24*time.Hour, zap.NewNop())

	orderID := uuid.New()
	failures := svc.Dispatch(context.Background(), service.NotificationEvent{
		Kind:        service.EventOrderCancelled,
		Recipients:  []uuid.UUID{uuid.New()},
		OrderID:     &orderID,
		OrderNumber: "ORD-2026-000007",
		Reason:      "site closed",
	})

	assert.Empty(t, failures)
	require.Len(t, store.created, 1)
	require.NotNil(t, store.created[0].ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *store.created[0].ExpiresAt, time.Minute)
	assert.Equal(t, domain.NotificationPriorityHigh, store.created[0].Priority)
	assert.Contains(t, store.created[0].Message, "Reason: site closed")
}

func TestNotificationInbox(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db, domain.RoleCustomer, "Fjord Builders")
	other := testutil.CreateTestUser(t, db, domain.RoleSupplier, "Alpha Supply")
	svc := service.NewNotificationService(repository.NewNotificationRepository(db), 0, zap.NewNop())
	ctx := ctxFor(user)

	orderID := uuid.New()
	failures := svc.Dispatch(context.Background(),
		service.NotificationEvent{Kind: service.EventOrderPlaced, Recipients: []uuid.UUID{user.ID}, OrderID: &orderID, OrderNumber: "ORD-2026-000001", Amount: 10},
		service.NotificationEvent{Kind: service.EventOrderStatusChanged, Recipients: []uuid.UUID{user.ID}, OrderID: &orderID, OrderNumber: "ORD-2026-000001", Status: "processing"},
		service.NotificationEvent{Kind: service.EventQuoteAccepted, Recipients: []uuid.UUID{other.ID}, OrderID: &orderID},
	)
	require.Empty(t, failures)

	expired := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, db.Create(&domain.Notification{
		UserID:    user.ID,
		Type:      domain.NotificationTypeSystem,
		Event:     "maintenance",
		Title:     "Old",
		Message:   "Expired notice",
		Priority:  domain.NotificationPriorityLow,
		ExpiresAt: &expired,
	}).Error)

	list, pagination, err := svc.ListForCurrentUser(ctx, domain.NotificationFilters{}, 1, 20)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, int64(2), pagination.Total)

	orderType := domain.NotificationTypeOrder
	list, _, err = svc.ListForCurrentUser(ctx, domain.NotificationFilters{Type: &orderType}, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, string(service.EventOrderPlaced), list[0].Event)

	count, err := svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Count)

	require.NoError(t, svc.MarkAsRead(ctx, list[0].ID))
	count, err = svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Count)

	err = svc.MarkAsRead(ctxFor(other), list[0].ID)
	assert.ErrorIs(t, err, service.ErrNotificationNotFound)

	// the hidden expired notice is marked as well
	marked, err := svc.MarkAllAsRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	unread, _, err := svc.ListForCurrentUser(ctx, domain.NotificationFilters{UnreadOnly: true}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, unread)

	_, err = svc.GetUnreadCount(context.Background())
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}
