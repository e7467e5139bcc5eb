package bus

import (
	"context"
	"errors"
)

var (
	// ErrUnknownMessageType: el tipo no está en el registro de esquemas. No es reintentable.
	ErrUnknownMessageType = errors.New("unknown message type")
	// ErrUndecodableMessage: el contenido no encaja con el esquema del tipo.
	ErrUndecodableMessage = errors.New("message content cannot be decoded")
)

// Keyer lo implementan los contratos que definen clave de partición.
type Keyer interface {
	PartitionKey() string
}

// EventBus es lo único que el relay sabe del transporte.
type EventBus interface {
	Publish(ctx context.Context, msgType, content string) error
}

// BrokerMessage es el mensaje ya resuelto que se entrega al cliente del broker.
type BrokerMessage struct {
	Type    string
	Key     []byte
	Body    []byte
	Headers map[string]string
}

// Cabecera/atributo con el tipo del mensaje en todos los brokers.
const HeaderEventType = "event-type"

// BrokerClient es un transporte concreto (Kafka, RabbitMQ, Pub/Sub).
type BrokerClient interface {
	Send(ctx context.Context, msg BrokerMessage) error
	Close() error
}

// IsNonRetryable indica errores que no se arreglan reintentando.
func IsNonRetryable(err error) bool {
	return errors.Is(err, ErrUnknownMessageType) || errors.Is(err, ErrUndecodableMessage)
}
