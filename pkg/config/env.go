package config

const (
	EnvPort          = "PORT"
	EnvLogLevel      = "LOG_LEVEL"
	EnvStorageDriver = "STORAGE_DRIVER"
	EnvDataFilePath  = "DATA_FILE_PATH"
	EnvDatabaseURL   = "DATABASE_URL"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvMaxRequestSize  = "MAX_REQUEST_SIZE"

	EnvSessionTTL = "SESSION_TTL"

	EnvKafkaEnabled     = "KAFKA_ENABLED"
	EnvKafkaBrokers     = "KAFKA_BROKERS"
	EnvKafkaOrdersTopic = "KAFKA_ORDERS_TOPIC"
)
