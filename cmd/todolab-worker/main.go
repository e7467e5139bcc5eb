package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	activityApp "github.com/davicafu/todolab/internal/activity/application"
	activityHttp "github.com/davicafu/todolab/internal/activity/infra/inbound/http"
	activityOut "github.com/davicafu/todolab/internal/activity/infra/outbound"
	"github.com/davicafu/todolab/internal/config"
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	infraEvents "github.com/davicafu/todolab/internal/shared/infra/events"
	"github.com/davicafu/todolab/internal/shared/infra/metrics"
	"github.com/davicafu/todolab/internal/shared/infra/platform/web"
	"github.com/davicafu/todolab/internal/shared/infra/telemetry"
	"github.com/davicafu/todolab/pkg/logger"
)

// todolab-worker consume los eventos de integración publicados en Kafka.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.MustNew(cfg.App.Env, zap.String("service", cfg.App.Name+"-worker"))
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("❌ todolab-worker terminated with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.Broker.Type != "kafka" {
		return errors.New("todolab-worker requires broker.type=kafka")
	}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: cfg.App.Name + "-worker",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())
	metrics.Init()

	sink, err := activityOut.OpenSink(ctx, cfg.ClickHouse, log)
	if err != nil {
		return err
	}
	defer sink.Close()

	consumer := activityApp.NewIntegrationConsumer(
		sharedEvents.NewDefaultSchemaRegistry(),
		sink.Events,
		sharedDomain.SystemClock{},
		log,
	)

	reader := infraEvents.NewKafkaReader(cfg.Broker.Brokers, cfg.Broker.Topic, cfg.Broker.GroupID)
	adapter := infraEvents.NewConsumerAdapter(reader, cfg.Broker.Topic, consumer, log)
	adapter.Start(ctx)
	defer func() {
		adapter.Wait()
		if err := adapter.Close(); err != nil {
			log.Warn("Error closing Kafka reader", zap.Error(err))
		}
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	web.RegisterOps(router, map[string]web.Pinger{}, log)
	if sink.Analytics != nil {
		activityHttp.RegisterActivityRoutes(router, activityHttp.NewActivityHandler(sink.Analytics, log))
	}

	srv := &http.Server{Addr: ":" + cfg.HTTP.Port, Handler: router}
	go func() {
		log.Info("🚀 Worker HTTP running", zap.String("url", "http://localhost:"+cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Worker HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Apagando worker...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
