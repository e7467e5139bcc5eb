package outbound

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/todolab/internal/activity/domain"
	"github.com/davicafu/todolab/internal/activity/infra/outbound/clickhouse"
	"github.com/davicafu/todolab/internal/activity/infra/outbound/noop"
	"github.com/davicafu/todolab/internal/config"
)

// Sink agrupa el destino de los eventos y, si existe, su lado de consultas.
type Sink struct {
	Events    domain.EventSink
	Analytics domain.ActivityAnalytics // nil sin ClickHouse
	Close     func() error
}

// OpenSink usa ClickHouse si hay dirección configurada; si no, descarta los eventos.
func OpenSink(ctx context.Context, cfg config.ClickHouseConfig, log *zap.Logger) (Sink, error) {
	if cfg.Addr == "" {
		log.Info("ClickHouse no configurado, los eventos solo se registran en el log")
		return Sink{Events: noop.EventSink{}, Close: func() error { return nil }}, nil
	}

	ch, err := clickhouse.Open(ctx, clickhouse.Options{
		Addr:     cfg.Addr,
		Database: cfg.Database,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return Sink{}, err
	}
	if err := ch.InitSchema(ctx); err != nil {
		ch.Close()
		return Sink{}, fmt.Errorf("init clickhouse schema: %w", err)
	}
	log.Info("✅ ClickHouse conectado", zap.String("addr", cfg.Addr), zap.String("database", cfg.Database))
	return Sink{Events: ch, Analytics: ch, Close: ch.Close}, nil
}
