package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/goliatone/go-cardgen/pkg/orchestrator"
	"github.com/goliatone/go-cardgen/pkg/server"
	"github.com/goliatone/go-cardgen/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "path to cardgen.yaml (defaults to ./cardgen.yaml when present)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Mode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(store.Config{
		Path:   cfg.StorePath,
		Logger: logger.Named("store"),
	})
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	gen := orchestrator.New(
		orchestrator.WithLogger(logger.Named("pipeline")),
	)
	defer gen.Close()

	srv, err := server.New(cfg, server.Deps{
		Store:        st,
		Orchestrator: gen,
		Logger:       logger.Named("http"),
	})
	if err != nil {
		logger.Fatal("build server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func buildLogger(mode string) (*zap.Logger, error) {
	if mode == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
