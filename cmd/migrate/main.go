package main

import (
	"context"
	"os"
	"time"

	"masterbook/internal/migrations"
	"masterbook/pkg/config"
	"masterbook/pkg/db"
)

const jobName = "masterbook-migrate"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(jobName)
	if cfg.StorageDriver != config.DriverPostgres {
		cfg.Log.Fatal("Migrations apply to the postgres driver only", "storage_driver", cfg.StorageDriver)
	}

	pool, err := db.OpenPool(ctx, cfg.DatabaseURL)
	if err != nil {
		cfg.Log.Fatal("Failed to connect to database", "error", err)
	}
	defer pool.Close()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		if err := migrations.Up(ctx, pool); err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
		cfg.Log.Info("Migrations applied successfully")
	case "down":
		if err := migrations.Down(ctx, pool); err != nil {
			cfg.Log.Fatal("Rollback failed", "error", err)
		}
		cfg.Log.Info("Migration rolled back")
	case "version":
		version, err := migrations.Version(ctx, pool)
		if err != nil {
			cfg.Log.Fatal("Failed to read schema version", "error", err)
		}
		cfg.Log.Info("Schema version", "version", version)
	default:
		cfg.Log.Fatal("Unknown command, expected up, down or version", "command", command)
	}
}
