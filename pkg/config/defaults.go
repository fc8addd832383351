package config

import "time"

const (
	DefaultPort          = "8080"
	DefaultLogLevel      = "info"
	DefaultStorageDriver = DriverFile
	DefaultDataFilePath  = "data/masterbook.json"

	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultMaxRequestSize  = 1 << 20 // 1 MiB

	DefaultSessionTTL = 7 * 24 * time.Hour

	// DefaultSlotMinutes is the slot width assumed for masters who have
	// never stored a schedule.
	DefaultSlotMinutes = 30

	DefaultKafkaBrokers     = "localhost:9092"
	DefaultKafkaOrdersTopic = "masterbook.orders"

	DefaultPaginationLimit = 100
)
