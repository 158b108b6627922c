package testutil

import (
	"context"
	"sync"

	"github.com/buildmart/marketplace-api/internal/events"
)

// RecordingPublisher keeps published envelopes in memory
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Envelope
}

func (p *RecordingPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events.NewEnvelope(routingKey, payload))
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// Events returns a copy of everything published so far
func (p *RecordingPublisher) Events() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Envelope, len(p.events))
	copy(out, p.events)
	return out
}

// RoutingKeys returns the routing keys in publish order
func (p *RecordingPublisher) RoutingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, len(p.events))
	for i, e := range p.events {
		keys[i] = e.RoutingKey
	}
	return keys
}
