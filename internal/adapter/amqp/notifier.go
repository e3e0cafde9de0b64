// Package amqp delivers stay notifications to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// DefaultExchange is the topic exchange stay events are published to.
const DefaultExchange = "frontdesk.events"

var _ domain.Notifier = (*Notifier)(nil)

// Notifier publishes persistent JSON messages with the topic as routing key.
// A channel is not safe for concurrent publishing, so Emit serialises on mu.
type Notifier struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex
	ch *amqp.Channel
}

// Dial connects to the broker and declares the durable exchange.
func Dial(url, exchange string) (*Notifier, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	return &Notifier{conn: conn, ch: ch, exchange: exchange}, nil
}

// Emit publishes payload with topic as the routing key.
func (n *Notifier) Emit(ctx context.Context, topic string, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	err := n.ch.PublishWithContext(ctx, n.exchange, topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         topic,
			Body:         payload,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.ch.Close(); err != nil && !n.conn.IsClosed() {
		n.conn.Close()
		return fmt.Errorf("closing channel: %w", err)
	}
	return n.conn.Close()
}
