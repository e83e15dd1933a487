package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends domain events to RabbitMQ. Each publish dials, declares the
// queue and closes again; events are rare (one per registration or password
// change) so a long-lived channel is not worth its reconnect handling.
// A Publisher with an empty URL, or a nil *Publisher, drops events.
type Publisher struct {
	url string
	log *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log}
}

// PublishUserRegistered publishes ev to the user.registered queue.
func (p *Publisher) PublishUserRegistered(ctx context.Context, ev UserRegisteredEvent) error {
	return p.publish(ctx, UserRegisteredQueue, ev)
}

// PublishPasswordChanged publishes ev to the user.password_changed queue.
func (p *Publisher) PublishPasswordChanged(ctx context.Context, ev PasswordChangedEvent) error {
	return p.publish(ctx, PasswordChangedQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, v any) error {
	if p == nil || p.url == "" {
		return nil
	}
	pub, err := encode(v)
	if err != nil {
		p.log.Error("rabbitmq: marshal event failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		p.log.Error("rabbitmq: queue declare failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		p.log.Error("rabbitmq: publish failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}
	return nil
}

func encode(v any) (amqp.Publishing, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}
