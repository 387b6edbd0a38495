package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Alert is the JSON body published for each message.
type Alert struct {
	OwnerID int64     `json:"owner_id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// publishChannel is the part of *amqp.Channel the publisher uses.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher hands alerts to a durable queue for an external delivery
// service to consume.
type Publisher struct {
	mu        sync.Mutex
	conn      *amqp.Connection
	ch        publishChannel
	now       func() time.Time
	queueName string
	logger    *slog.Logger
}

// NewPublisher dials url and declares queueName as a durable queue.
func NewPublisher(url, queueName string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq declare %s: %w", queueName, err)
	}

	logger.Info("Alert publisher connected", "queue", queueName)
	return &Publisher{conn: conn, ch: ch, now: time.Now, queueName: queueName, logger: logger}, nil
}

// Send publishes one alert as a persistent JSON message.
func (p *Publisher) Send(ctx context.Context, ownerID int64, message string) error {
	body, err := json.Marshal(Alert{OwnerID: ownerID, Message: message, SentAt: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
