package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"masterbook/pkg/logger"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     string
	LogLevel string

	// StorageDriver selects the repository adapter: "file" for the
	// JSON-file store, "postgres" for the relational store.
	StorageDriver string
	DataFilePath  string
	DatabaseURL   string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	MaxRequestSize  int

	SessionTTL time.Duration

	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaOrdersTopic string

	Log *logger.Logger
}

func Load(serviceName string) *Config {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: getEnvStr(EnvLogLevel, DefaultLogLevel),

		StorageDriver: getEnvStr(EnvStorageDriver, DefaultStorageDriver),
		DataFilePath:  getEnvStr(EnvDataFilePath, DefaultDataFilePath),
		DatabaseURL:   getEnvStr(EnvDatabaseURL, ""),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
		RequestTimeout:  getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize:  getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		SessionTTL: getEnvDuration(EnvSessionTTL, DefaultSessionTTL),

		KafkaEnabled:     getEnvBool(EnvKafkaEnabled, false),
		KafkaBrokers:     splitList(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		KafkaOrdersTopic: getEnvStr(EnvKafkaOrdersTopic, DefaultKafkaOrdersTopic),
	}

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StorageDriver {
	case DriverFile:
		if cfg.DataFilePath == "" {
			errs = append(errs, "DataFilePath cannot be empty with the file driver")
		}
	case DriverPostgres:
		if !strings.HasPrefix(cfg.DatabaseURL, "postgres://") && !strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
			errs = append(errs, fmt.Sprintf("DatabaseURL must start with postgres://, got: %s", redactDatabaseURL(cfg.DatabaseURL)))
		}
	default:
		errs = append(errs, fmt.Sprintf("StorageDriver must be %q or %q, got: %s", DriverFile, DriverPostgres, cfg.StorageDriver))
	}

	for name, d := range map[string]time.Duration{
		"ReadTimeout":     cfg.ReadTimeout,
		"WriteTimeout":    cfg.WriteTimeout,
		"IdleTimeout":     cfg.IdleTimeout,
		"ShutdownTimeout": cfg.ShutdownTimeout,
		"RequestTimeout":  cfg.RequestTimeout,
		"SessionTTL":      cfg.SessionTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		errs = append(errs, "KafkaBrokers cannot be empty when Kafka is enabled")
	}

	if len(errs) > 0 {
		msg := "Configuration validation failed:\n"
		for i, e := range errs {
			msg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"storage_driver", cfg.StorageDriver,
		"data_file_path", cfg.DataFilePath,
		"database_url", redactDatabaseURL(cfg.DatabaseURL),
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"session_ttl", cfg.SessionTTL,
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_brokers", strings.Join(cfg.KafkaBrokers, ","),
		"kafka_orders_topic", cfg.KafkaOrdersTopic,
	)
}

func redactDatabaseURL(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***:***" + url[at:]
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > DefaultPaginationLimit {
		return DefaultPaginationLimit
	}
	return limit
}
