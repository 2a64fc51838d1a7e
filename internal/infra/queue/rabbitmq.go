package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"homework-bot/internal/domain"
	"homework-bot/internal/infra/metrics"
)

// RabbitStatusPublisher публикует изменения статусов в очередь RabbitMQ.
type RabbitStatusPublisher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ domain.StatusJournal = (*RabbitStatusPublisher)(nil)

// NewRabbitStatusPublisher подключается к брокеру и объявляет очередь.
func NewRabbitStatusPublisher(url, queue string) (*RabbitStatusPublisher, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	p := &RabbitStatusPublisher{url: url, queue: queue}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *RabbitStatusPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

// Record публикует изменение. Закрытое соединение переоткрывается один раз.
func (p *RabbitStatusPublisher) Record(ctx context.Context, change domain.StatusChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		if err := p.connect(); err != nil {
			return err
		}
	}
	start := time.Now()
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    change.ID,
		Timestamp:    change.ObservedAt,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", p.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// Close закрывает канал и соединение.
func (p *RabbitStatusPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}
