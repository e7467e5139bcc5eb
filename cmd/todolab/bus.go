package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/davicafu/todolab/internal/config"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	infraEvents "github.com/davicafu/todolab/internal/shared/infra/events"
	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

// newEventBus elige el transporte del relay según broker.type.
// En modo memory el consumidor local se suscribe al propio bus.
func newEventBus(ctx context.Context, cfg config.BrokerConfig, schemas *sharedEvents.SchemaRegistry, local infraEvents.MessageHandler, log *zap.Logger) (sharedBus.EventBus, func(), error) {
	switch cfg.Type {
	case "memory":
		log.Info("⚡️ Usando bus de eventos en memoria (canales de Go)")
		bus := infraEvents.NewInMemoryEventBus(log)
		log.Info("🎧 Iniciando listener en memoria para eventos de integración")
		infraEvents.ConsumeChannel(ctx, bus.Subscribe(100), local, log)
		return bus, bus.Close, nil

	case "kafka":
		log.Info("🚀 Usando Kafka como bus de eventos", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
		client := infraEvents.NewKafkaPublisher(infraEvents.NewKafkaWriter(cfg.Brokers, cfg.Topic), log)
		return brokerBus(client, schemas, "kafka", log)

	case "rabbitmq":
		log.Info("🐇 Usando RabbitMQ como bus de eventos", zap.String("exchange", cfg.Exchange))
		client, err := infraEvents.DialRabbitMQ(cfg.URL, cfg.Exchange, log)
		if err != nil {
			return nil, nil, err
		}
		return brokerBus(client, schemas, "rabbitmq", log)

	case "pubsub":
		log.Info("☁️ Usando Google Pub/Sub como bus de eventos", zap.String("project", cfg.ProjectID), zap.String("topic", cfg.Topic))
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("pubsub client: %w", err)
		}
		client, err := infraEvents.NewPubSubPublisher(ctx, psClient, cfg.Topic, log)
		if err != nil {
			psClient.Close()
			return nil, nil, err
		}
		return brokerBus(client, schemas, "pubsub", log)
	}

	log.Info("Sin broker configurado: el relay solo registra los mensajes")
	return infraEvents.NewLoggingBus(log), func() {}, nil
}

func brokerBus(client sharedBus.BrokerClient, schemas *sharedEvents.SchemaRegistry, system string, log *zap.Logger) (sharedBus.EventBus, func(), error) {
	bus := infraEvents.NewBrokerBus(client, schemas, system, log)
	return bus, func() {
		if err := bus.Close(); err != nil {
			log.Warn("Error closing broker client", zap.String("system", system), zap.Error(err))
		}
	}, nil
}
