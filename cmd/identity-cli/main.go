package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	identityservice "github.com/magabrotheeeer/identity-service/internal/app/identity-service"
	"github.com/magabrotheeeer/identity-service/internal/cli"
	"github.com/magabrotheeeer/identity-service/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr, open)
	stop()
	os.Exit(code)
}

func open(ctx context.Context) (cli.Creator, func() error, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, nil, err
	}
	if err = cli.CheckPersistent(cfg.Storage); err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	core, err := identityservice.NewCore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return core.Facade, core.Close, nil
}
