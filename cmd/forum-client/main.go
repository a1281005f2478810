package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/bootstrap"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	deps := bootstrap.BuildDependencies(cfg, lgr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := deps.Channel.Connect(ctx); err != nil {
		lgr.Error().Err(err).Str("url", cfg.Channel.URL).Msg("Failed to connect push channel")
		os.Exit(1)
	}

	if err := deps.Sync.LoadQuestions(ctx); err != nil {
		// The engine stays up on a failed initial load; the failure is
		// already surfaced on the toast queue and the next select retries.
		lgr.Warn().Err(err).Msg("Initial question load failed")
	}

	lgr.Info().Str("channel", cfg.Channel.URL).Str("api", cfg.API.BaseURL).Msg("Forum engine running")
	deps.Sync.Run(ctx)

	lgr.Info().Msg("Shutting down...")
	deps.Presence.Close()
	if err := deps.Channel.Close(); err != nil {
		lgr.Error().Err(err).Msg("Channel close error")
	}
	lgr.Info().Msg("Forum engine stopped.")
}
