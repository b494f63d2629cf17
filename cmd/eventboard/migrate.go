package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Strob0t/EventBoard/internal/adapter/postgres"
	"github.com/Strob0t/EventBoard/internal/config"
)

// runMigrate dispatches migrate subcommands (up, down, version).
func runMigrate(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printMigrateHelp()
		return nil
	}

	cmd := args[0]
	steps, err := parseSteps(cmd, args[1:])
	if err != nil {
		printMigrateHelp()
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate requires store.driver %q, got %q", config.DriverPostgres, cfg.Store.Driver)
	}

	ctx := context.Background()
	switch cmd {
	case "up":
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if err := postgres.RollbackMigrations(ctx, cfg.Postgres.DSN, steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	}

	v, err := postgres.MigrationVersion(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Schema version: %d\n", v)
	return nil
}

// parseSteps validates the migrate arguments and returns the rollback step
// count for "down" (default 1).
func parseSteps(cmd string, rest []string) (int, error) {
	switch cmd {
	case "up", "version":
		if len(rest) > 0 {
			return 0, fmt.Errorf("migrate %s takes no arguments", cmd)
		}
		return 0, nil
	case "down":
		if len(rest) == 0 {
			return 1, nil
		}
		if len(rest) > 1 {
			return 0, errors.New("migrate down takes at most one argument")
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 1 {
			return 0, fmt.Errorf("invalid step count %q", rest[0])
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unknown migrate command: %s", cmd)
	}
}

func printMigrateHelp() {
	fmt.Fprintf(os.Stderr, `Usage: eventboard migrate <command>

Commands:
  up               Apply all pending migrations
  down [n]         Roll back the last n migrations (default 1)
  version          Print the current schema version
  help             Show this help message
`)
}
