package testutil

import (
	"context"
	"testing"

	"github.com/buildmart/marketplace-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ events.Publisher = (*RecordingPublisher)(nil)

func TestRecordingPublisher(t *testing.T) {
	pub := &RecordingPublisher{}
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, events.QuoteRequestCreated, map[string]int{"n": 1}))
	require.NoError(t, pub.Publish(ctx, events.OrderPlaced, map[string]int{"n": 2}))

	assert.Equal(t, []string{events.QuoteRequestCreated, events.OrderPlaced}, pub.RoutingKeys())

	published := pub.Events()
	require.Len(t, published, 2)
	assert.NotEqual(t, published[0].ID, published[1].ID)
}
