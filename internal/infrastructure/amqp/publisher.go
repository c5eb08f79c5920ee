package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	domoutbox "github.com/Zhima-Mochi/homeflavors/internal/domain/outbox"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
	"github.com/Zhima-Mochi/homeflavors/internal/observability/logctx"
)

// Channel is the part of *amqp.Channel the publisher drives.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher writes domain events to a durable topic exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       Channel
	exchange string
	log      observability.Logger
}

func Dial(url, exchange string, logger observability.Logger) (*Publisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	p, err := NewPublisher(ch, exchange, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher declares the exchange on an open channel.
func NewPublisher(ch Channel, exchange string, logger observability.Logger) (*Publisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		log:      logger.With(observability.F("component", "amqp_relay"), observability.F("exchange", exchange)),
	}, nil
}

// Publish sends body as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, key string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	})
}

// Relay returns a bus handler that forwards each event under its own name as routing key.
func (p *Publisher) Relay() domoutbox.Handler {
	return func(ctx context.Context, e domoutbox.Event) error {
		name := e.EventName()
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		logger := logctx.FromOr(ctx, p.log)
		if err := p.Publish(ctx, name, body); err != nil {
			logger.Warn("event_relay_failed", observability.F("routing_key", name), observability.F("error", err))
			return err
		}
		logger.Debug("event_relayed", observability.F("routing_key", name))
		return nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
