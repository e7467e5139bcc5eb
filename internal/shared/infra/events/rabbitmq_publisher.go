package events

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publica en un exchange topic; la routing key es el tipo del mensaje.
type RabbitMQPublisher struct {
	conn     io.Closer
	channel  amqpChannel
	exchange string
	mu       sync.Mutex // un canal AMQP no admite publicaciones concurrentes
	log      *zap.Logger
}

// DialRabbitMQ conecta, abre un canal y declara el exchange (idempotente).
func DialRabbitMQ(url, exchange string, log *zap.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	notifyClose := make(chan *amqp.Error)
	conn.NotifyClose(notifyClose)
	go func() {
		for err := range notifyClose {
			log.Warn("RabbitMQ connection closed", zap.String("reason", err.Reason))
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := NewRabbitMQPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

func NewRabbitMQPublisher(channel amqpChannel, exchange string, log *zap.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{channel: channel, exchange: exchange, log: log}
}

func (p *RabbitMQPublisher) Send(ctx context.Context, msg sharedBus.BrokerMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	headers := make(amqp.Table, len(msg.Headers))
	for k, v := range msg.Headers {
		headers[k] = v
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.Publish(p.exchange, msg.Type, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Type:          msg.Type,
		CorrelationId: string(msg.Key),
		Timestamp:     time.Now().UTC(),
		Body:          msg.Body,
		Headers:       headers,
	})
	if err != nil {
		p.log.Error("Error publishing to RabbitMQ", zap.String("type", msg.Type), zap.Error(err))
		return err
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ sharedBus.BrokerClient = (*RabbitMQPublisher)(nil)
