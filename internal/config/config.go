package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/bigdata-platform/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Tracker    TrackerConfig    `validate:"required"`
	Store      StoreConfig      `validate:"required"`
	Redis      RedisConfig
	Broadcast  BroadcastConfig `validate:"required"`
	Kafka      KafkaConfig
	Sentry     SentryConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

// TrackerConfig holds the pacing and retention of progress records
type TrackerConfig struct {
	JobTickInterval    time.Duration `mapstructure:"job_tick_interval" validate:"gt=0"`
	StreamTickInterval time.Duration `mapstructure:"stream_tick_interval" validate:"gt=0"`
	JobTTL             time.Duration `mapstructure:"job_ttl" validate:"gt=0"`
	StreamTTL          time.Duration `mapstructure:"stream_ttl" validate:"gt=0"`
	StoppedTTL         time.Duration `mapstructure:"stopped_ttl" validate:"gt=0"`
	// FailureReportThreshold is the number of consecutive store failures
	// after which a worker reports to sentry
	FailureReportThreshold int `mapstructure:"failure_report_threshold" validate:"gte=1"`
	// ReportsPerMinute caps sentry reports across all workers while a store is down
	ReportsPerMinute int           `mapstructure:"reports_per_minute" validate:"gte=1"`
	Metrics          MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig bounds the placeholder numbers produced by continuous ticks
type MetricsConfig struct {
	ThroughputMin int64 `mapstructure:"throughput_min" validate:"gte=0"`
	ThroughputMax int64 `mapstructure:"throughput_max" validate:"gtefield=ThroughputMin"`
	LatencyMin    int64 `mapstructure:"latency_min" validate:"gte=0"`
	LatencyMax    int64 `mapstructure:"latency_max" validate:"gtefield=LatencyMin"`
}

type StoreConfig struct {
	Type types.StoreType `mapstructure:"type" validate:"required,oneof=memory redis"`
	// CleanupInterval is how often the in-memory store purges expired records
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RedisConfig struct {
	Address     string        `mapstructure:"address"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	MaxIdle     int           `mapstructure:"max_idle"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ConnectTimeout bounds the startup ping retries
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// BroadcastConfig controls where tick updates are published for live listeners
type BroadcastConfig struct {
	Enabled     bool             `mapstructure:"enabled"`
	PubSub      types.PubSubType `mapstructure:"pubsub" validate:"required,oneof=memory kafka"`
	TopicPrefix string           `mapstructure:"topic_prefix" validate:"required"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	ClientID      string   `mapstructure:"client_id"`
	TLS           bool     `mapstructure:"tls"`
	UseSASL       bool     `mapstructure:"use_sasl"`
	SASLMechanism string   `mapstructure:"sasl_mechanism"`
	SASLUser      string   `mapstructure:"sasl_user"`
	SASLPassword  string   `mapstructure:"sasl_password"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/bigdata-platform")

	v.SetEnvPrefix("BIGDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key so that env overrides work without a config file
func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("deployment.mode", d.Deployment.Mode)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("logging.level", d.Logging.Level)

	v.SetDefault("tracker.job_tick_interval", d.Tracker.JobTickInterval)
	v.SetDefault("tracker.stream_tick_interval", d.Tracker.StreamTickInterval)
	v.SetDefault("tracker.job_ttl", d.Tracker.JobTTL)
	v.SetDefault("tracker.stream_ttl", d.Tracker.StreamTTL)
	v.SetDefault("tracker.stopped_ttl", d.Tracker.StoppedTTL)
	v.SetDefault("tracker.failure_report_threshold", d.Tracker.FailureReportThreshold)
	v.SetDefault("tracker.reports_per_minute", d.Tracker.ReportsPerMinute)
	v.SetDefault("tracker.metrics.throughput_min", d.Tracker.Metrics.ThroughputMin)
	v.SetDefault("tracker.metrics.throughput_max", d.Tracker.Metrics.ThroughputMax)
	v.SetDefault("tracker.metrics.latency_min", d.Tracker.Metrics.LatencyMin)
	v.SetDefault("tracker.metrics.latency_max", d.Tracker.Metrics.LatencyMax)

	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.cleanup_interval", d.Store.CleanupInterval)

	v.SetDefault("redis.address", d.Redis.Address)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)
	v.SetDefault("redis.max_idle", d.Redis.MaxIdle)
	v.SetDefault("redis.idle_timeout", d.Redis.IdleTimeout)
	v.SetDefault("redis.connect_timeout", d.Redis.ConnectTimeout)

	v.SetDefault("broadcast.enabled", d.Broadcast.Enabled)
	v.SetDefault("broadcast.pubsub", d.Broadcast.PubSub)
	v.SetDefault("broadcast.topic_prefix", d.Broadcast.TopicPrefix)

	v.SetDefault("kafka.client_id", d.Kafka.ClientID)
	v.SetDefault("kafka.consumer_group", d.Kafka.ConsumerGroup)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts, tests or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Tracker: TrackerConfig{
			JobTickInterval:        3 * time.Second,
			StreamTickInterval:     time.Second,
			JobTTL:                 time.Hour,
			StreamTTL:              2 * time.Hour,
			StoppedTTL:             time.Hour,
			FailureReportThreshold: 3,
			ReportsPerMinute:       30,
			Metrics: MetricsConfig{
				ThroughputMin: 500,
				ThroughputMax: 2000,
				LatencyMin:    10,
				LatencyMax:    100,
			},
		},
		Store: StoreConfig{
			Type:            types.MemoryStore,
			CleanupInterval: 10 * time.Minute,
		},
		Redis: RedisConfig{
			Address:        "localhost:6379",
			KeyPrefix:      "bigdata",
			MaxIdle:        10,
			IdleTimeout:    4 * time.Minute,
			ConnectTimeout: 30 * time.Second,
		},
		Broadcast: BroadcastConfig{
			Enabled:     true,
			PubSub:      types.MemoryPubSub,
			TopicPrefix: "progress",
		},
		Kafka: KafkaConfig{
			ClientID:      "bigdata-platform",
			ConsumerGroup: "bigdata-platform-live",
		},
	}
}
