package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Broker     BrokerConfig     `mapstructure:"broker"`
	Outbox     OutboxConfig     `mapstructure:"outbox"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Email      EmailConfig      `mapstructure:"email"`
}

type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Env  string `mapstructure:"env" validate:"oneof=development production test"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// RedisConfig: sin Addr se usa la caché en memoria y no hay lock distribuido.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type BrokerConfig struct {
	Type      string   `mapstructure:"type" validate:"oneof=none memory kafka rabbitmq pubsub"`
	Brokers   []string `mapstructure:"brokers" validate:"required_if=Type kafka"`
	Topic     string   `mapstructure:"topic" validate:"required_if=Type kafka,required_if=Type pubsub"`
	GroupID   string   `mapstructure:"group_id"`
	URL       string   `mapstructure:"url" validate:"required_if=Type rabbitmq"`
	Exchange  string   `mapstructure:"exchange" validate:"required_if=Type rabbitmq"`
	ProjectID string   `mapstructure:"project_id" validate:"required_if=Type pubsub"`
}

type OutboxConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	ErrorBackoff   time.Duration `mapstructure:"error_backoff" validate:"gt=0"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout" validate:"gt=0"`
	BatchSize      int           `mapstructure:"batch_size" validate:"gte=1,lte=1000"`
	MaxAttempts    int           `mapstructure:"max_attempts" validate:"gte=1"`
	LockKey        string        `mapstructure:"lock_key"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
}

type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl" validate:"gt=0"`
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}

// ClickHouseConfig: sin Addr el worker descarta los eventos tras registrarlos.
type ClickHouseConfig struct {
	Addr     string `mapstructure:"addr"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type EmailConfig struct {
	From    string `mapstructure:"from" validate:"required,email"`
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "todolab")
	v.SetDefault("app.env", "development")
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:todolab.db?_pragma=busy_timeout(5000)")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("broker.type", "memory")
	v.SetDefault("broker.brokers", []string{"localhost:9092"})
	v.SetDefault("broker.topic", "todolab-events")
	v.SetDefault("broker.group_id", "todolab-worker")
	v.SetDefault("broker.url", "")
	v.SetDefault("broker.exchange", "todolab")
	v.SetDefault("broker.project_id", "")
	v.SetDefault("outbox.enabled", true)
	v.SetDefault("outbox.poll_interval", "5s")
	v.SetDefault("outbox.error_backoff", "10s")
	v.SetDefault("outbox.publish_timeout", "30s")
	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.max_attempts", 10)
	v.SetDefault("outbox.lock_key", "todolab:outbox-relay")
	v.SetDefault("outbox.lock_ttl", "1m")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.session_ttl", "24h")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("clickhouse.addr", "")
	v.SetDefault("clickhouse.database", "default")
	v.SetDefault("clickhouse.username", "default")
	v.SetDefault("clickhouse.password", "")
	v.SetDefault("email.from", "no-reply@todolab.local")
	v.SetDefault("email.base_url", "http://localhost:8080")
}

// Load lee valores por defecto, un todolab.yaml opcional en paths y variables TODOLAB_*
// (por ejemplo TODOLAB_OUTBOX_BATCH_SIZE). Las variables de entorno ganan.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("todolab")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("TODOLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
