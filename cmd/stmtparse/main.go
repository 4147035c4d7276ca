package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/FACorreiaa/statement-normalizer/cmd/api"
	"github.com/FACorreiaa/statement-normalizer/pkg/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("error loading .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Configuration is read from the environment and from flags bound on the command
	err := api.NewRootCommand(config.NewViper()).ExecuteContext(ctx)
	if err != nil {
		slog.Error("command failed", "error", err)
	}
	return api.ExitCode(err)
}
