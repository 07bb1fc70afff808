package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"catalog/internal/logger"
	"catalog/internal/models"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
)

// ProductEventsQueue receives every product.* event.
const ProductEventsQueue = "product_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *logger.Logger
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL    string
	Logger *logger.Logger
}

// NewClient connects to RabbitMQ, opens a channel and declares the events queue.
func NewClient(cfg Config) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info("rabbitmq connected", logger.Fields{"queue": ProductEventsQueue})

	return &Client{
		conn:    conn,
		channel: ch,
		log:     log,
	}, nil
}

func declareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		ProductEventsQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", ProductEventsQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishProductEvent sends event to the product_events queue as persistent JSON.
func (c *Client) PublishProductEvent(ctx context.Context, event models.ProductEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = c.channel.Publish(
		"",                 // default exchange
		ProductEventsQueue, // routing key
		false,              // mandatory
		false,              // immediate
		msg,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.log.Debug("product event sent", logger.Fields{"event": event.Event, "product_id": event.ProductID, "message_id": msg.MessageId})
	return nil
}

func newPublishing(event models.ProductEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal product event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         event.Event,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

// DecodeProductEvent parses a delivery body.
func DecodeProductEvent(body []byte) (models.ProductEvent, error) {
	var event models.ProductEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to decode product event: %w", err)
	}
	if event.Event == "" {
		return event, fmt.Errorf("failed to decode product event: missing event name")
	}
	return event, nil
}

// ConsumeProductEvents delivers events to handler until ctx is cancelled or the
// channel closes. Failed or undecodable messages are rejected without requeue.
func (c *Client) ConsumeProductEvents(ctx context.Context, handler func(context.Context, models.ProductEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		ProductEventsQueue, // queue
		"",                 // consumer tag
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info("waiting for product events", logger.Fields{"queue": ProductEventsQueue})

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, msg, handler)
		}
	}
}

func (c *Client) handle(ctx context.Context, msg amqp.Delivery, handler func(context.Context, models.ProductEvent) error) {
	event, err := DecodeProductEvent(msg.Body)
	if err == nil {
		err = handler(ctx, event)
	}
	if err != nil {
		c.log.Warn("product event rejected", logger.Fields{"delivery_tag": msg.DeliveryTag, "error": err.Error()})
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.log.Error("nack failed", logger.Fields{"delivery_tag": msg.DeliveryTag, "error": nackErr.Error()})
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.log.Error("ack failed", logger.Fields{"delivery_tag": msg.DeliveryTag, "error": ackErr.Error()})
	}
}

// LogProductEvent is the default consumer handler.
func LogProductEvent(log *logger.Logger) func(context.Context, models.ProductEvent) error {
	return func(_ context.Context, event models.ProductEvent) error {
		log.Info("product event received", logger.Fields{"event": event.Event, "product_id": event.ProductID})
		return nil
	}
}
