package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RoutingKey is the topic routing key for an event type, e.g. campaign.member_joined.
func RoutingKey(t Type) string { return "campaign." + string(t) }

// AMQPPublisher publishes events to a durable RabbitMQ topic exchange.
// A single channel is shared; publishes are serialised. A lost connection
// is redialled by the next Publish.
type AMQPPublisher struct {
	mu       sync.Mutex
	url      string
	dial     func(url string) (*amqp.Connection, error)
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	closed   bool
	logger   *zap.Logger
}

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, dial: amqp.Dial, exchange: exchange, logger: logger}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect dials the broker and declares the exchange. Callers hold mu, except
// DialAMQP before p is shared.
func (p *AMQPPublisher) connect() error {
	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("amqp exchange declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	go p.watch(conn, conn.NotifyClose(make(chan *amqp.Error, 1)))
	return nil
}

// watch forgets conn once the broker closes it.
func (p *AMQPPublisher) watch(conn *amqp.Connection, closed <-chan *amqp.Error) {
	if err, ok := <-closed; ok && err != nil {
		p.logger.Warn("amqp connection lost", zap.String("reason", err.Reason), zap.Int("code", err.Code))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		p.conn, p.ch = nil, nil
	}
}

// ready reconnects when the connection or channel is gone. Callers hold mu.
func (p *AMQPPublisher) ready() error {
	if p.closed {
		return errors.New("amqp publisher closed")
	}
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn, p.ch = nil, nil
	}
	return p.connect()
}

// Publish sends ev as a persistent JSON message routed by RoutingKey.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.At,
		Type:         string(ev.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(); err != nil {
		p.logger.Warn("amqp reconnect failed", zap.String("type", string(ev.Type)), zap.Error(err))
		return err
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(ev.Type), false, false, pub); err != nil {
		p.logger.Warn("amqp publish failed",
			zap.String("type", string(ev.Type)),
			zap.String("campaign_id", ev.CampaignID),
			zap.Error(err))
		return err
	}
	return nil
}

// Close closes the channel and the connection. Later publishes fail.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.conn == nil {
		return nil
	}
	_ = p.ch.Close()
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}
