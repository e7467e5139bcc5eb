package email

import (
	"context"

	"go.uber.org/zap"

	userDomain "github.com/davicafu/todolab/internal/user/domain"
)

// LoggingSender no entrega nada: deja el correo en el log. Es el sender por defecto en local.
type LoggingSender struct {
	from string
	log  *zap.Logger
}

func NewLoggingSender(from string, log *zap.Logger) *LoggingSender {
	return &LoggingSender{from: from, log: log}
}

func (s *LoggingSender) Send(ctx context.Context, msg userDomain.EmailMessage) error {
	s.log.Info("📨 Email",
		zap.String("from", s.from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

var _ userDomain.EmailSender = (*LoggingSender)(nil)
