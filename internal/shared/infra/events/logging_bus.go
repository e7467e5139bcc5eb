package events

import (
	"context"

	"go.uber.org/zap"

	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

// LoggingBus se usa cuando no hay broker configurado: registra y da el mensaje por publicado.
type LoggingBus struct {
	log *zap.Logger
}

func NewLoggingBus(log *zap.Logger) *LoggingBus {
	return &LoggingBus{log: log}
}

func (b *LoggingBus) Publish(ctx context.Context, msgType, content string) error {
	b.log.Info("📨 Publishing integration event",
		zap.String("type", msgType),
		zap.Int("content_bytes", len(content)),
	)
	return nil
}

var _ sharedBus.EventBus = (*LoggingBus)(nil)
