package main

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"vocmd/internal/assistant"
	"vocmd/internal/config"
	"vocmd/internal/logging"
	"vocmd/internal/vox"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	cfgFile := cli.StringP("config", "c", "", "Config file path")
	logLevel := cli.StringP("log", "l", "", "Log level (debug, info, warn, error)")
	url := cli.StringP("url", "u", "", "Url of hub")
	name := cli.StringP("name", "n", "vocmd", "Shard name on the bus")
	backend := cli.StringP("backend", "b", "", "Embedding backend (openai, genai, ollama, none)")
	cli.Parse()

	logging.Setup(*logLevel, os.Stdout)
	log.Info("Starting vocmd shard")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file loaded", "path", *envFile, "err", err)
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if cli.CommandLine.Changed("log") {
		cfg.LogLevel = *logLevel
	}
	if cli.CommandLine.Changed("url") {
		cfg.Bus.URL = *url
	}
	if cli.CommandLine.Changed("backend") {
		cfg.Embedding.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, _, err := assistant.Build(cfg)
	if err != nil {
		log.Error("Failed to build assistant", "err", err)
		os.Exit(1)
	}

	bus, err := vox.NewBus(ctx, cfg.Bus.URL, time.Duration(cfg.Bus.Reconnect)*time.Second)
	if err != nil {
		log.Error("Failed to connect to bus", "url", cfg.Bus.URL, "err", err)
		os.Exit(1)
	}

	if err := vox.NewShard(*name, bus, a).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Shard stopped", "err", err)
		os.Exit(1)
	}
}
