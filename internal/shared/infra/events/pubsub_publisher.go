package events

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

// PubSubPublisher publica en un topic de Google Cloud Pub/Sub con ordering key = clave de partición.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	log    *zap.Logger
}

// NewPubSubPublisher crea el topic si no existe. El publisher pasa a ser dueño del cliente.
func NewPubSubPublisher(ctx context.Context, client *pubsub.Client, topicID string, log *zap.Logger) (*PubSubPublisher, error) {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check pubsub topic %s: %w", topicID, err)
	}
	if !exists {
		if topic, err = client.CreateTopic(ctx, topicID); err != nil {
			return nil, fmt.Errorf("failed to create pubsub topic %s: %w", topicID, err)
		}
		log.Info("Pub/Sub topic created", zap.String("topic", topicID))
	}
	topic.EnableMessageOrdering = true

	return &PubSubPublisher{client: client, topic: topic, log: log}, nil
}

func (p *PubSubPublisher) Send(ctx context.Context, msg sharedBus.BrokerMessage) error {
	orderingKey := string(msg.Key)
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  msg.Headers,
		OrderingKey: orderingKey,
	})
	if _, err := res.Get(ctx); err != nil {
		// con ordering activo la clave queda pausada tras un fallo
		if orderingKey != "" {
			p.topic.ResumePublish(orderingKey)
		}
		p.log.Error("Error publishing to Pub/Sub", zap.String("type", msg.Type), zap.Error(err))
		return err
	}
	return nil
}

func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

var _ sharedBus.BrokerClient = (*PubSubPublisher)(nil)
