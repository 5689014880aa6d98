package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/S3OPS/autoflight/internal/cli"
	"github.com/S3OPS/autoflight/internal/config"
	"github.com/S3OPS/autoflight/internal/logging"
	"github.com/S3OPS/autoflight/internal/stitch"
	"github.com/S3OPS/autoflight/internal/storage"
)

func main() {
	os.Exit(run())
}

// run keeps deferred cleanup ahead of the process exit code.
func run() int {
	// Optional .env for local overrides; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}
	log := logging.Setup(cfg)

	var store *storage.Store
	if cfg.Paths.DatabasePath != "" {
		store, err = storage.New(cfg.Paths.DatabasePath)
		if err != nil {
			log.Warn("run history disabled", "path", cfg.Paths.DatabasePath, "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd(cfg, store, stitch.NewEngine(), log)
	return cli.Execute(ctx, rootCmd)
}
