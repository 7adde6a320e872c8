// Command server runs the certificate service.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridlinecompany/LetsEcrypt/app/issuer"
	"github.com/gridlinecompany/LetsEcrypt/core/config"
	"github.com/gridlinecompany/LetsEcrypt/core/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg issuer.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	app, err := issuer.New(ctx, cfg)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
