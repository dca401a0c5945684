package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/ports"
)

// DefaultQueue receives confirmation notices for the mail service.
const DefaultQueue = "accounts.confirmation"

const noticeType = "account.confirmation_requested"

var _ ports.Notifier = (*RabbitPublisher)(nil)

// RabbitPublisher publishes confirmation notices as persistent JSON messages
// to a durable queue. The connection is reopened lazily after a broker drop.
type RabbitPublisher struct {
	url   string
	queue string
	log   zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialRabbitPublisher connects to the broker and declares the queue.
func DialRabbitPublisher(url, queue string, log zerolog.Logger) (*RabbitPublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	p := &RabbitPublisher{url: url, queue: queue, log: log}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureChannel(); err != nil {
		return nil, err
	}
	return p, nil
}

// Notify publishes notice to the queue.
func (p *RabbitPublisher) Notify(ctx context.Context, notice ports.ConfirmationNotice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal notice: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         noticeType,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// Close shuts down the channel and the connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// ensureChannel must be called with p.mu held.
func (p *RabbitPublisher) ensureChannel() error {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return fmt.Errorf("rabbitmq: dial: %w", err)
		}
		p.conn = conn
		p.ch = nil
		p.log.Info().Str("queue", p.queue).Msg("rabbitmq connected")
	}

	if p.ch == nil || p.ch.IsClosed() {
		ch, err := p.conn.Channel()
		if err != nil {
			return fmt.Errorf("rabbitmq: open channel: %w", err)
		}
		if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return fmt.Errorf("rabbitmq: declare queue: %w", err)
		}
		p.ch = ch
	}
	return nil
}
