package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aiacademy/tutor/config"
	"github.com/aiacademy/tutor/pkg/otel"
	"github.com/aiacademy/tutor/server"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", "config.yaml", "config file")
	addressFlag := flag.String("address", "", "listen address")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFlag, *addressFlag); err != nil {
		slog.Error("server.failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path, address string) error {
	shutdown, err := otel.Setup(ctx, "tutor", version)

	if err != nil {
		return err
	}

	defer shutdown(context.Background())

	cfg, err := config.Parse(path)

	if err != nil {
		return err
	}

	if address != "" {
		cfg.Address = address
	}

	s, err := server.New(cfg)

	if err != nil {
		return err
	}

	return s.ListenAndServe(ctx)
}
