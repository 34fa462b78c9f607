package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/blog-be/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// appID marks activity events published by this service.
const appID = "blog-be"

// RabbitMQBroker carries activity events over RabbitMQ. Every channel name
// is a queue on the default exchange.
type RabbitMQBroker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     config.RabbitMQConfig

	// mu guards channel use from concurrent publishers and the declared set.
	mu       sync.Mutex
	declared map[string]bool
}

// NewRabbitMQBroker dials cfg.URL and opens the channel events flow over.
func NewRabbitMQBroker(cfg config.RabbitMQConfig) (*RabbitMQBroker, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq: url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("rabbitmq: set prefetch: %w", err)
		}
	}

	return &RabbitMQBroker{
		conn:     conn,
		channel:  ch,
		cfg:      cfg,
		declared: make(map[string]bool),
	}, nil
}

// Publish sends one JSON encoded event. The "type" attribute becomes the
// AMQP message type so consumers can route without decoding the body.
func (r *RabbitMQBroker) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.declare(channel); err != nil {
		return "", err
	}

	headers := make(amqp.Table, len(attrs))
	for key, value := range attrs {
		headers[key] = value
	}
	msg := amqp.Publishing{
		MessageId:    uuid.NewString(),
		AppId:        appID,
		Type:         attrs["type"],
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      headers,
		Body:         data,
	}
	if err := r.channel.PublishWithContext(ctx, "", channel, false, false, msg); err != nil {
		return "", fmt.Errorf("rabbitmq: publish to %s: %w", channel, err)
	}
	return msg.MessageId, nil
}

// Subscribe consumes events from channel until ctx is done. A message the
// handler fails on is requeued once and dropped if it fails again.
func (r *RabbitMQBroker) Subscribe(ctx context.Context, channel string, handler Handler) error {
	r.mu.Lock()
	err := r.declare(channel)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	tag := appID + "-" + uuid.NewString()
	deliveries, err := r.channel.Consume(channel, tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume %s: %w", channel, err)
	}
	defer r.channel.Cancel(tag, false)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq: deliveries for %s closed", channel)
			}
			attrs := headersToAttributes(d.Headers)
			if d.Type != "" {
				if attrs == nil {
					attrs = map[string]string{}
				}
				attrs["type"] = d.Type
			}
			if err := handler(ctx, Message{ID: d.MessageId, Data: d.Body, Attributes: attrs}); err != nil {
				d.Nack(false, !d.Redelivered)
				continue
			}
			d.Ack(false)
		}
	}
}

// Close closes the channel and the connection.
func (r *RabbitMQBroker) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// declare creates the queue for channel on first use. Callers hold mu.
func (r *RabbitMQBroker) declare(channel string) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq: channel is required")
	}
	if r.declared[channel] {
		return nil
	}
	if _, err := r.channel.QueueDeclare(channel, r.cfg.QueueDurable, r.cfg.QueueAutoDelete, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: declare queue %s: %w", channel, err)
	}
	r.declared[channel] = true
	return nil
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch v := value.(type) {
		case string:
			attrs[key] = v
		case []byte:
			attrs[key] = string(v)
		default:
			attrs[key] = fmt.Sprint(v)
		}
	}
	return attrs
}
