package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewPublisher_DisabledReturnsNop(t *testing.T) {
	pub, err := NewPublisher(&config.MessagingConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	_, ok := pub.(NopPublisher)
	assert.True(t, ok)
	assert.NoError(t, pub.Publish(context.Background(), OrderPlaced, map[string]string{"a": "b"}))
	assert.NoError(t, pub.Close())
}

func TestNewAMQPPublisher_RequiresExchange(t *testing.T) {
	_, err := NewAMQPPublisher(&config.MessagingConfig{Enabled: true, URL: "amqp://localhost"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewEnvelope_UniqueIDs(t *testing.T) {
	first := NewEnvelope(QuoteRequestCreated, nil)
	second := NewEnvelope(QuoteRequestCreated, nil)

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.OccurredAt.IsZero())
	assert.Equal(t, time.UTC, first.OccurredAt.Location())
}

func TestEnvelope_JSONShape(t *testing.T) {
	env := NewEnvelope(OrderCancelled, map[string]string{"orderNumber": "ORD-2026-000001"})

	body, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, OrderCancelled, decoded["routingKey"])
	assert.Contains(t, decoded, "occurredAt")
	assert.Equal(t, "ORD-2026-000001", decoded["payload"].(map[string]interface{})["orderNumber"])
}
