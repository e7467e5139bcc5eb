package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	activityApp "github.com/davicafu/todolab/internal/activity/application"
	activityOut "github.com/davicafu/todolab/internal/activity/infra/outbound"
	"github.com/davicafu/todolab/internal/config"
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	"github.com/davicafu/todolab/internal/shared/infra/dispatcher"
	"github.com/davicafu/todolab/internal/shared/infra/metrics"
	sharedCache "github.com/davicafu/todolab/internal/shared/infra/platform/cache"
	sharedDB "github.com/davicafu/todolab/internal/shared/infra/platform/db"
	"github.com/davicafu/todolab/internal/shared/infra/platform/db/postgres"
	"github.com/davicafu/todolab/internal/shared/infra/platform/db/sqlite"
	"github.com/davicafu/todolab/internal/shared/infra/platform/web"
	"github.com/davicafu/todolab/internal/shared/infra/relayer"
	"github.com/davicafu/todolab/internal/shared/infra/telemetry"
	"github.com/davicafu/todolab/internal/shared/infra/uow"
	todoApp "github.com/davicafu/todolab/internal/todo/application"
	todoHttp "github.com/davicafu/todolab/internal/todo/infra/inbound/http"
	todoStore "github.com/davicafu/todolab/internal/todo/infra/outbound/sqlstore"
	userApp "github.com/davicafu/todolab/internal/user/application"
	userHttp "github.com/davicafu/todolab/internal/user/infra/inbound/http"
	"github.com/davicafu/todolab/internal/user/infra/outbound/email"
	"github.com/davicafu/todolab/internal/user/infra/outbound/security"
	userStore "github.com/davicafu/todolab/internal/user/infra/outbound/sqlstore"
	"github.com/davicafu/todolab/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.MustNew(cfg.App.Env, zap.String("service", cfg.App.Name))
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("❌ todolab terminated with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	metrics.Init()
	clock := sharedDomain.SystemClock{}
	validate := validator.New()

	// ---------------- DB ----------------
	dialect, err := sharedDB.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return err
	}
	db, err := sharedDB.Open(ctx, dialect, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	outbox, err := openOutbox(ctx, dialect, db)
	if err != nil {
		return err
	}
	log.Info("✅ Base de datos lista", zap.String("driver", string(dialect)))

	// ---------------- Cache ----------------
	var (
		cache     sharedCache.Cache
		rdb       *redis.Client
		healthChk = map[string]web.Pinger{"db": db}
	)
	if cfg.Redis.Enabled() {
		rdb, err = sharedCache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = sharedCache.NewRedisCache(rdb, cfg.Cache.TTL)
		healthChk["redis"] = redisPinger{rdb}
		log.Info("✅ Redis conectado, cache habilitado")
	} else {
		mem := sharedCache.NewMemoryCache(cfg.Cache.TTL, 3*cfg.Cache.TTL)
		defer mem.Stop()
		cache = mem
		log.Warn("⚠️ Redis no configurado, cache en memoria")
	}

	// ---------------- Outbox + dispatcher ----------------
	mappers := sharedEvents.NewMapperRegistry(
		todoApp.NewIntegrationMapper(clock),
		userApp.NewIntegrationMapper(clock),
	)

	activation := userApp.NewActivationEmailHandler(
		cache,
		email.NewLoggingSender(cfg.Email.From, log),
		cfg.Email.BaseURL,
		cfg.Cache.SessionTTL,
		log,
	)
	disp := dispatcher.New(log)
	dispatcher.Handle(disp, activation.Handle)

	unitOfWork := uow.New(db, outbox, mappers, log, uow.WithClock(clock), uow.WithDispatcher(disp))

	// --------------- Servicios --------------
	userService := userApp.NewUserService(
		unitOfWork,
		userStore.NewUserRepo(db, dialect),
		security.NewBcryptHasher(0),
		cache,
		clock,
		cfg.Cache.SessionTTL,
		validate,
		log,
	)
	todoService := todoApp.NewTodoService(
		unitOfWork,
		todoStore.NewTodoRepo(db, dialect),
		userService,
		cache,
		clock,
		validate,
		log,
	)

	// ---------------- Events ---------------
	schemas := sharedEvents.NewDefaultSchemaRegistry()
	sink, err := activityOut.OpenSink(ctx, cfg.ClickHouse, log)
	if err != nil {
		return err
	}
	defer sink.Close()
	consumer := activityApp.NewIntegrationConsumer(schemas, sink.Events, clock, log)

	bus, closeBus, err := newEventBus(ctx, cfg.Broker, schemas, consumer, log)
	if err != nil {
		return err
	}
	defer closeBus()

	// ------------ Outbox relay ------------
	if cfg.Outbox.Enabled {
		opts := []relayer.Option{relayer.WithClock(clock)}
		if rdb != nil {
			opts = append(opts, relayer.WithLock(relayer.NewRedisLock(rdb, cfg.Outbox.LockKey, cfg.Outbox.LockTTL, log)))
		}
		worker := relayer.NewOutboxWorker(outbox, bus, relayer.Config{
			PollInterval:   cfg.Outbox.PollInterval,
			ErrorBackoff:   cfg.Outbox.ErrorBackoff,
			PublishTimeout: cfg.Outbox.PublishTimeout,
			BatchSize:      cfg.Outbox.BatchSize,
			MaxAttempts:    cfg.Outbox.MaxAttempts,
		}, log, opts...)
		worker.Start(ctx)
		defer worker.Stop()
	} else {
		log.Warn("Outbox relay deshabilitado: los mensajes quedan pendientes en la tabla")
	}

	// ---------------- HTTP ----------------
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	userHttp.RegisterUserRoutes(router, userHttp.NewUserHandler(userService, log), userService)
	todoHttp.RegisterTodoRoutes(router, todoHttp.NewTodoHandler(todoService, log), userService)
	web.RegisterOps(router, healthChk, log)
	if reader, ok := outbox.(sharedDomain.OutboxStatsReader); ok {
		router.GET("/admin/outbox/stats", web.OutboxStats(reader, cfg.Outbox.MaxAttempts, log))
	}

	return serve(ctx, router, cfg, log)
}

func openOutbox(ctx context.Context, dialect sharedDB.Dialect, db *sql.DB) (sharedDomain.OutboxRepository, error) {
	if dialect == sharedDB.Postgres {
		if err := postgres.InitSchema(ctx, db); err != nil {
			return nil, err
		}
		return postgres.NewOutboxRepoPostgres(db), nil
	}
	if err := sqlite.InitSchema(ctx, db); err != nil {
		return nil, err
	}
	return sqlite.NewOutboxRepoSQLite(db), nil
}

// serve bloquea hasta que ctx se cancela y después apaga el servidor.
func serve(ctx context.Context, handler http.Handler, cfg *config.Config, log *zap.Logger) error {
	srv := &http.Server{Addr: ":" + cfg.HTTP.Port, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("🛑 Apagando servidor HTTP...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type redisPinger struct{ client *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
