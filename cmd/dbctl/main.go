// Command dbctl runs schema migrations and one-off maintenance against the
// configured database.
//
//	dbctl up | down | status | version | redo | reset | up-to N | down-to N
//	dbctl purge-expired
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"gigster_auth/internal/config"
	"gigster_auth/internal/repository"
)

func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: dbctl [-config dir] <up|down|status|version|redo|reset|up-to N|down-to N|purge-expired>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command, args := flag.Arg(0), flag.Args()[1:]

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.LoadConfig(*configDir); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := &config.Cfg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case command == "purge-expired":
		err = purgeExpired(ctx, cfg, logger)
	case cfg.Database.Driver == "postgres":
		err = runGoose(ctx, cfg.Database.URL, command, args)
	case command == "up":
		err = autoMigrate(ctx, cfg, logger)
	default:
		err = fmt.Errorf("only 'up' is supported for driver %q", cfg.Database.Driver)
	}
	if err != nil {
		slog.Error("dbctl failed", slog.String("command", command), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("dbctl finished", slog.String("command", command))
}

// runGoose talks to postgres over plain database/sql; goose needs nothing more.
func runGoose(ctx context.Context, databaseURL, command string, args []string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return repository.RunMigrationCommand(ctx, db, command, args...)
}

func autoMigrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return repository.Migrate(ctx, db, cfg.Database.Driver)
}

// purgeExpired removes stale activations and challenges once, for
// deployments that run it from cron instead of the in-process sweeper.
func purgeExpired(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	n, err := repository.NewGormChallengeStore(db).DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	slog.Info("Purged expired activations and challenges", slog.Int64("count", n))
	return nil
}
