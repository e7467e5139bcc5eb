package events

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

// MessageHandler lo implementa cualquier consumidor de eventos de integración.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msgType string, payload []byte) error
}

type kafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ConsumerAdapter es el "oído" que escucha en Kafka.
type ConsumerAdapter struct {
	reader  kafkaReader
	topic   string
	handler MessageHandler
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewConsumerAdapter(reader kafkaReader, topic string, handler MessageHandler, log *zap.Logger) *ConsumerAdapter {
	return &ConsumerAdapter{
		reader:  reader,
		topic:   topic,
		handler: handler,
		log:     log,
	}
}

// NewKafkaReader crea un lector con grupo de consumidores.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
}

// Start inicia el bucle de consumo en una goroutine.
func (c *ConsumerAdapter) Start(ctx context.Context) {
	c.log.Info("🎧 Iniciando consumidor de Kafka...", zap.String("topic", c.topic))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				// Si el contexto se cancela, el error es normal y salimos limpiamente.
				if ctx.Err() != nil {
					c.log.Info("Consumidor de Kafka detenido.", zap.String("topic", c.topic))
					return
				}
				c.log.Error("Error al leer mensaje de Kafka", zap.Error(err))
				continue
			}

			msgType := headerValue(msg.Headers, sharedBus.HeaderEventType)
			if err := c.handler.HandleMessage(ctx, msgType, msg.Value); err != nil {
				c.log.Warn("Failed to handle Kafka message",
					zap.String("type", msgType),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
		}
	}()
}

// Wait bloquea hasta que el bucle termine (tras cancelar el contexto de Start).
func (c *ConsumerAdapter) Wait() {
	c.wg.Wait()
}

func (c *ConsumerAdapter) Close() error {
	return c.reader.Close()
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
