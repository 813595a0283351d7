package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/gatherhq/gather-server/server"
	"github.com/gatherhq/gather-server/server/web"
)

func main() {
	cfgPath := flag.String("config", "config.toml", "path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}

	cfg, err := server.LoadConfig(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	server.SetupLogger(cfg.Log)
	slog.Info("starting gather-server", slog.String("config", cfg.String()))

	srv, err := server.New(cfg)
	if err != nil {
		slog.Error("failed to create server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.Info("listening", slog.String("addr", cfg.Server.Addr))
		return srv.Start(web.Routes(srv))
	})
	eg.Go(func() error {
		<-egCtx.Done()
		srv.Stop(context.Background())
		return nil
	})

	if err = eg.Wait(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
