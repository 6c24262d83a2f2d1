// Package main is the entry point for the Plantando API server.
//
// STARTUP:
//  1. config.Load reads the environment
//  2. command-line flags override it
//  3. the logger is built (JSON in production, text otherwise)
//  4. server.New opens the store and wires the routes
//  5. Start blocks until SIGINT/SIGTERM
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/sakif/plantando/internal/config"
	"github.com/sakif/plantando/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "plantando: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	flagSet := pflag.NewFlagSet("plantando", pflag.ContinueOnError)
	flagSet.IntVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP listen port (env PORT)")
	flagSet.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL,
		"postgres:// URL or SQLite path (env DATABASE_URL)")
	flagSet.BoolVar(&cfg.SeedCatalog, "seed", cfg.SeedCatalog,
		"insert the default sustainable actions when the catalog is empty (env SEED_CATALOG)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return srv.Start()
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Plantando API server: users, sustainable actions, tips and activity records.

Usage:
  plantando [flags]

Flags override their environment variables. Settings without a flag:
  JWT_SECRET          token signing secret (required for login)
  JWT_EXPIRES_IN      token lifetime: 3600, 90m or 7d (default 1h)
  APP_ENV             "production" hides error details and logs JSON
  LOG_LEVEL           debug, info, warn or error (default debug)
  CORS_ORIGIN         allowed browser origin (default *)
  KAFKA_BROKERS       comma-separated brokers; empty disables events
  KAFKA_TOPIC_PREFIX  topic prefix (default plantando)

Flags:
%s`, flagSet.FlagUsages())
}
