package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

// ErrSubscriberFull se devuelve si algún suscriptor no admite más mensajes;
// el relay lo trata como fallo transitorio y reintenta.
var ErrSubscriberFull = errors.New("in-memory subscriber buffer is full")

// Message es lo que reciben los suscriptores del bus en memoria.
type Message struct {
	Type    string
	Content string
}

// InMemoryEventBus reparte los mensajes a todos los suscriptores (desarrollo local).
type InMemoryEventBus struct {
	subscribers []chan Message
	mu          sync.RWMutex
	closed      bool
	log         *zap.Logger
}

func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make([]chan Message, 0),
		log:         log,
	}
}

// Publish entrega a cada suscriptor sin bloquear.
func (b *InMemoryEventBus) Publish(ctx context.Context, msgType, content string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.New("in-memory bus is closed")
	}

	msg := Message{Type: msgType, Content: content}
	dropped := 0
	for _, sub := range b.subscribers {
		select {
		case sub <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Warn("⚠️ In-memory subscribers full", zap.String("type", msgType), zap.Int("dropped", dropped))
		return fmt.Errorf("%w: %d subscriber(s)", ErrSubscriberFull, dropped)
	}
	return nil
}

// Subscribe añade un nuevo oyente con el buffer indicado.
func (b *InMemoryEventBus) Subscribe(bufferSize int) <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, bufferSize)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Close cierra todos los canales de suscripción.
func (b *InMemoryEventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
}

// ConsumeChannel procesa en segundo plano los mensajes de una suscripción.
func ConsumeChannel(ctx context.Context, ch <-chan Message, handler MessageHandler, log *zap.Logger) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := handler.HandleMessage(ctx, msg.Type, []byte(msg.Content)); err != nil {
					log.Warn("In-memory consumer failed", zap.String("type", msg.Type), zap.Error(err))
				}
			}
		}
	}()
}

var _ sharedBus.EventBus = (*InMemoryEventBus)(nil)
