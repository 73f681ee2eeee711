package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/GoArmGo/BookWave/internal/config"
	"github.com/GoArmGo/BookWave/internal/messaging/payloads"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client представляет собой клиент RabbitMQ для очереди зеркалирования обложек
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
}

// NewClient создает и инициализирует новый клиент RabbitMQ
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	client := &Client{logger: logger}

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	client.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	client.channel = ch

	// очередь переживает перезапуск брокера
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName, // name
		true,                           // durable
		false,                          // delete when unused
		false,                          // exclusive
		false,                          // no-wait
		nil,                            // arguments
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	client.queue = q

	logger.Info("rabbitmq connected", "queue", q.Name, "messages", q.Messages)
	return client, nil
}

// Close закрывает соединение и канал RabbitMQ
func (c *Client) Close() {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing rabbitmq channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("error closing rabbitmq connection", "error", err)
		}
	}
	c.logger.Info("rabbitmq connection closed")
}

// PublishCoverMirrorRequest реализует ports.CoverMirrorPublisher
func (c *Client) PublishCoverMirrorRequest(ctx context.Context, payload payloads.CoverMirrorPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    payload.RequestID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	c.logger.Info("cover mirror request published", "queue", c.queue.Name, "isbn", payload.ISBN, "request_id", payload.RequestID)
	return nil
}

// StartConsumingCoverMirrorRequests реализует ports.CoverMirrorConsumer.
// Сообщения обрабатываются по одному
func (c *Client) StartConsumingCoverMirrorRequests(ctx context.Context, handler func(context.Context, payloads.CoverMirrorPayload) error) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered", "queue", c.queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Info("rabbitmq delivery channel closed, stopping consumer")
					return
				}
				handleDelivery(ctx, c.logger, msg, handler)
			case <-ctx.Done():
				c.logger.Info("context cancelled, stopping rabbitmq consumer")
				return
			}
		}
	}()

	return nil
}

// handleDelivery подтверждает успешно обработанные сообщения.
// Неразборчивое сообщение отбрасывается, ошибка обработки возвращает
// сообщение в очередь один раз, повторная ошибка отбрасывает его
func handleDelivery(ctx context.Context, logger *slog.Logger, msg amqp.Delivery, handler func(context.Context, payloads.CoverMirrorPayload) error) {
	start := time.Now()

	var payload payloads.CoverMirrorPayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		logger.Error("failed to unmarshal message", "error", err, "body", string(msg.Body))
		if err := msg.Nack(false, false); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := handler(ctx, payload); err != nil {
		requeue := !msg.Redelivered
		logger.Error("failed to process cover mirror request",
			"isbn", payload.ISBN,
			"request_id", payload.RequestID,
			"requeue", requeue,
			"error", err,
		)
		if err := msg.Nack(false, requeue); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("failed to ack message", "error", err)
		return
	}
	logger.Info("cover mirror request processed",
		"isbn", payload.ISBN,
		"request_id", payload.RequestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
