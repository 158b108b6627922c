package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Routing keys for marketplace domain events
const (
	QuoteRequestCreated    = "quote.request.created"
	QuoteRequestCancelled  = "quote.request.cancelled"
	QuoteResponseSubmitted = "quote.response.submitted"
	QuoteResponseAccepted  = "quote.response.accepted"
	QuoteResponseWithdrawn = "quote.response.withdrawn"
	OrderPlaced            = "order.placed"
	OrderStatusChanged     = "order.status_changed"
	OrderCancelled         = "order.cancelled"
	QuoteRequestsExpired   = "quote.request.expired"
)

var ErrPublisherClosed = errors.New("event publisher is closed")

// Envelope is the JSON body of every published event
type Envelope struct {
	ID         uuid.UUID   `json:"id"`
	RoutingKey string      `json:"routingKey"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// Publisher emits domain events after a workflow transition commits
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

// NewEnvelope wraps payload with an id and timestamp
func NewEnvelope(routingKey string, payload interface{}) Envelope {
	return Envelope{
		ID:         uuid.New(),
		RoutingKey: routingKey,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// NopPublisher discards events. Used when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

// AMQPPublisher publishes persistent JSON messages to a topic exchange
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	timeout  time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewAMQPPublisher dials RabbitMQ with retry and declares the exchange
func NewAMQPPublisher(cfg *config.MessagingConfig, logger *zap.Logger) (*AMQPPublisher, error) {
	if cfg.Exchange == "" {
		return nil, fmt.Errorf("exchange name cannot be empty")
	}

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}

	var conn *amqp.Connection
	var err error
	for i := 0; i < retries; i++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		if i < retries-1 {
			logger.Warn("failed to connect to RabbitMQ, retrying",
				zap.Int("attempt", i+1),
				zap.Duration("retryIn", cfg.ConnectRetryDelayDuration()),
				zap.Error(err))
			time.Sleep(cfg.ConnectRetryDelayDuration())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retries, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	logger.Info("event publisher connected", zap.String("exchange", cfg.Exchange))

	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
		timeout:  cfg.PublishTimeoutDuration(),
		logger:   logger,
	}, nil
}

// Publish sends payload wrapped in an Envelope under routingKey
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	envelope := NewEnvelope(routingKey, payload)

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    envelope.ID.String(),
			Timestamp:    envelope.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s to exchange %s: %w", routingKey, p.exchange, err)
	}

	p.logger.Debug("event published",
		zap.String("routingKey", routingKey),
		zap.String("eventID", envelope.ID.String()))
	return nil
}

// Close closes the channel and connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.conn.Close()
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NewPublisher returns an AMQPPublisher when messaging is enabled, otherwise a NopPublisher
func NewPublisher(cfg *config.MessagingConfig, logger *zap.Logger) (Publisher, error) {
	if !cfg.Enabled {
		logger.Info("messaging disabled, domain events will not be published")
		return NopPublisher{}, nil
	}
	return NewAMQPPublisher(cfg, logger)
}
