package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

const QueuePushNotifications = "push_notifications"

// Enqueuer hands a job to a durable work queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, job any) error
}

type Client struct {
	conn *amqp.Connection
}

func Dial(url string) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("amqp: url is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp: dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

func declare(ch *amqp.Channel, queueName string) error {
	_, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

func (c *Client) Enqueue(ctx context.Context, queueName string, job any) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("amqp: marshal: %w", err)
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp: channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch, queueName); err != nil {
		return fmt.Errorf("amqp: declare %s: %w", queueName, err)
	}

	return ch.PublishWithContext(ctx,
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume delivers messages to handle with manual ack. A handler error nacks
// without requeue so a malformed job is not redelivered forever.
func (c *Client) Consume(ctx context.Context, queueName string, log *slog.Logger, handle func(ctx context.Context, body []byte) error) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp: channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch, queueName); err != nil {
		return fmt.Errorf("amqp: declare %s: %w", queueName, err)
	}
	if err := ch.Qos(32, 0, false); err != nil {
		return fmt.Errorf("amqp: qos: %w", err)
	}

	msgs, err := ch.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("amqp: consume %s: %w", queueName, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("amqp: delivery channel closed")
			}
			if err := handle(ctx, d.Body); err != nil {
				log.Warn("amqp_handle_failed", "queue", queueName, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Discard drops jobs. Used when RABBITMQ_URL is not configured.
type Discard struct{}

func (Discard) Enqueue(context.Context, string, any) error { return nil }
