// Package events publishes and consumes ledger events over AMQP. The
// exchange is direct and durable; the queue name doubles as the routing key.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"pennywise/internal/core"
	applog "pennywise/internal/log"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
)

const (
	failureThreshold = 3
	openInterval     = 30 * time.Second
	publishTimeout   = 5 * time.Second
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	url          string
	exchangeName string
	queueName    string

	failureCount int64
	state        int32
	openedAt     atomic.Int64

	log *slog.Logger
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		log:          slog.With(applog.FieldComponent, applog.ComponentAMQP),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name on a direct exchange.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishExpenseRecorded emits a capacity-consumption event.
func (c *Client) PublishExpenseRecorded(ctx context.Context, e core.Expense) error {
	return c.publish(ctx, KindExpenseRecorded, e)
}

// PublishExpenseReversed emits a capacity-release event.
func (c *Client) PublishExpenseReversed(ctx context.Context, e core.Expense) error {
	return c.publish(ctx, KindExpenseReversed, e)
}

func (c *Client) publish(ctx context.Context, kind string, e core.Expense) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: circuit open", kind)
	}

	event := LedgerEvent{
		Kind:        kind,
		ExpenseID:   e.ID,
		BudgetID:    e.BudgetID,
		UserID:      e.UserID,
		AmountCents: e.Amount.Cents,
		Timestamp:   time.Now().UTC(),
	}
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish event: %w", err)
	}
	c.recordSuccess()

	c.log.InfoContext(ctx, "Published ledger event",
		"kind", kind,
		applog.FieldExpenseID, e.ID,
		applog.FieldBudgetID, e.BudgetID,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeLedgerEvents delivers queued events to handler until ctx is done.
// A handler error nacks the delivery back onto the queue with backoff; a
// malformed body is dropped.
func (c *Client) ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *LedgerEvent) error) error {
	msgs, err := c.channel.Consume(
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

	c.log.InfoContext(ctx, "Started consuming ledger events", "queue", c.queueName)

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			c.log.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			event, err := LedgerEventFromJSON(delivery.Body)
			if err != nil {
				c.log.ErrorContext(ctx, "Failed to unmarshal event", applog.FieldError, err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(ctx, event); err != nil {
				c.log.ErrorContext(ctx, "Failed to handle event",
					applog.FieldError, err,
					"kind", event.Kind,
					applog.FieldExpenseID, event.ExpenseID)
				delivery.Nack(false, true) // reject and requeue
				if isConnectionError(err) {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(exponentialBackoff(attempt)):
					}
					attempt++
				}
				continue
			}

			attempt = 0
			delivery.Ack(false)
		}
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	// Half-open after the cool-off interval.
	opened := time.Unix(0, c.openedAt.Load())
	if time.Since(opened) > openInterval {
		atomic.StoreInt32(&c.state, StateClosed)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	if atomic.AddInt64(&c.failureCount, 1) >= failureThreshold {
		atomic.StoreInt32(&c.state, StateOpen)
		c.openedAt.Store(time.Now().UnixNano())
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 4 {
		return 30 * time.Second
	}
	return time.Duration(1<<attempt) * time.Second
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection closed",
		"EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
