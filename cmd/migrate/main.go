package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-proxy-api/migrations"
	"github.com/noah-isme/sma-proxy-api/pkg/config"
	"github.com/noah-isme/sma-proxy-api/pkg/database"
	"github.com/noah-isme/sma-proxy-api/pkg/logger"
)

const usage = "usage: migrate <up|up-by-one|up-to VERSION|down|down-to VERSION|redo|reset|status|version>"

var errUsage = errors.New(usage)

// gooseRun is swapped in tests.
var gooseRun = goose.Run

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if err := run(db.DB, os.Args[1:]); err != nil {
		logr.Fatal("migration failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
	logr.Info("migration finished", zap.String("command", os.Args[1]))
}

func run(db *sql.DB, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return gooseRun(args[0], db, ".", args[1:]...)
}
