// Package amqp carries refresh requests between the web process and the
// refresh worker over a durable RabbitMQ queue.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"playdash/internal/log"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

// NewClient dials url and declares the exchange and queue.
func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       log.OrDiscard(logger).WithComponent(log.ComponentAMQP),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	// Declare exchange
	err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name on the direct exchange.
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// ensureChannel returns an open channel, reconnecting when the previous
// connection was closed by the broker.
func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	ch, conn := c.channel, c.conn
	c.mu.Unlock()
	if ch != nil && conn != nil && !conn.IsClosed() && !ch.IsClosed() {
		return ch, nil
	}
	c.logger.Warn("AMQP connection lost, reconnecting", "queue", c.queueName)
	if err := c.connect(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel, nil
}

// RequestRefresh publishes a refresh request with reason.
func (c *Client) RequestRefresh(ctx context.Context, reason string) error {
	return c.PublishRefresh(ctx, NewRefreshRequest(reason))
}

// PublishRefresh publishes msg as a persistent message.
func (c *Client) PublishRefresh(ctx context.Context, msg *RefreshRequest) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish refresh request: %w", ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID.String(),
			Timestamp:    msg.RequestedAt,
			Body:         body,
		},
	)
	if err != nil {
		if isConnectionError(err) {
			c.recordFailure()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.logger.InfoContext(ctx, "Published refresh request",
		"id", msg.ID.String(),
		log.FieldReason, msg.Reason,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// ConsumeRefresh delivers refresh requests to handler until ctx is done.
// A lost connection is re-established with exponential backoff. A request
// whose handler fails is requeued once and dropped on the second failure.
func (c *Client) ConsumeRefresh(ctx context.Context, handler func(context.Context, *RefreshRequest) error) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			c.logger.InfoContext(ctx, "Stopping message consumption", log.FieldReason, ctx.Err())
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		c.logger.Warn("Consumer disconnected, retrying",
			"attempt", attempt,
			"backoff", wait.String(),
			log.FieldError, fmt.Sprint(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if _, err := c.ensureChannel(); err != nil {
			c.logger.Warn("Reconnect failed", log.FieldError, err.Error())
			continue
		}
		attempt = 0
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, *RefreshRequest) error) error {
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}
	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming refresh requests", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return amqp091.ErrClosed
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler func(context.Context, *RefreshRequest) error) {
	msg, err := RefreshRequestFromJSON(delivery.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err.Error())
		delivery.Nack(false, false)
		return
	}

	c.logger.InfoContext(ctx, "Processing refresh request",
		"id", msg.ID.String(),
		log.FieldReason, msg.Reason,
		"redelivered", delivery.Redelivered)

	if err := handler(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "Failed to handle message",
			log.FieldError, err.Error(),
			"id", msg.ID.String())
		delivery.Nack(false, !delivery.Redelivered)
		return
	}

	delivery.Ack(false)
	c.logger.InfoContext(ctx, "Successfully processed refresh request", "id", msg.ID.String())
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// isCircuitOpen reports whether publishing is currently refused. An open
// circuit moves to half-open once openTimeout has passed since the last
// failure, letting one attempt through.
func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			c.logger.Warn("Circuit breaker opened", "failures", n)
		}
	}
}

// exponentialBackoff returns 1s doubled per attempt, capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
