package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fekuna/medequip-catalog-service/config"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/fekuna/medequip-catalog-service/migrations"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	_ = godotenv.Load()
	cfg := config.LoadEnv()

	log := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment: true,
		Encoding:      "console",
		Level:         logLevel,
	})
	defer log.Sync()

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		log.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()

	m, err := postgres.NewMigrator(db.DB, migrations.FS, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}
	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}
	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if err := m.Steps(n); err != nil {
			log.Fatal("Migration step failed", zap.Error(err))
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("Failed to get version", zap.Error(err))
		}
		if version == 0 {
			log.Info("No migrations applied")
			return
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [-log-level=info] <command> [args]

Commands:
  up          Apply all pending migrations
  down        Roll back all migrations
  step <n>    Apply n migrations (negative rolls back)
  version     Print the current schema version`)
}
