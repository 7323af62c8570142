package main

import (
	"context"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"vocmd/internal/assistant"
	"vocmd/internal/config"
	"vocmd/internal/ipc"
	"vocmd/internal/logging"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	cfgFile := cli.StringP("config", "c", "", "Config file path")
	logLevel := cli.StringP("log", "l", "", "Log level (debug, info, warn, error)")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address for the embedding backend")
	socket := cli.StringP("socket", "s", "", "Control socket path")
	threshold := cli.Float64P("threshold", "t", 0, "Semantic match threshold in [0, 1]")
	backend := cli.StringP("backend", "b", "", "Embedding backend (openai, genai, ollama, none)")
	cli.Parse()

	logging.Setup(*logLevel, os.Stdout)
	log.Info("Booting up")

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
	if cli.CommandLine.Changed("proxy") {
		cfg.Embedding.Proxy = *proxyAddr
	}
	if cli.CommandLine.Changed("socket") {
		cfg.Socket = *socket
	}
	if cli.CommandLine.Changed("threshold") {
		cfg.Resolver.Threshold = *threshold
	}
	if cli.CommandLine.Changed("backend") {
		cfg.Embedding.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel, os.Stdout)
	log.Debug("Loaded config", "backend", cfg.Embedding.Backend, "threshold", cfg.Resolver.Threshold)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, lazy, err := assistant.Build(cfg)
	if err != nil {
		log.Error("Failed to build assistant", "err", err)
		os.Exit(1)
	}

	// warm the backend so the first utterance does not pay for it
	go func() {
		warmCtx := ctx
		if cfg.Resolver.Timeout > 0 {
			var cancel context.CancelFunc
			warmCtx, cancel = context.WithTimeout(ctx, cfg.Resolver.Timeout)
			defer cancel()
		}
		if _, err := lazy.Load(warmCtx); err != nil {
			log.Warn("Embedding backend not ready, rules only until it is", "err", err)
		}
	}()

	if cfg.Aliases.Watch {
		if err := a.Aliases().Watch(ctx, nil); err != nil {
			log.Warn("Failed to watch aliases", "path", cfg.Aliases.File, "err", err)
		}
	}

	ln, err := ipc.StartServer(cfg.Socket, a.Handler(ctx))
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer ln.Close()

	log.Info("Boot up - successful", "socket", cfg.Socket)

	<-ctx.Done()
	log.Info("Shutting down")
}
