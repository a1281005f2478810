// Package bootstrap wires the engine together. The socket and the
// toast queue are constructed once here and handed to the components
// that need them, so tests can substitute fakes for any piece.
package bootstrap

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/gateway"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/services"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/store"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/config"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/channel"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/logger"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/toast"
)

// Dependencies holds all the engine's long-lived objects
type Dependencies struct {
	Store    *store.EntityStore
	Gateway  gateway.RequestGateway
	Channel  channel.EventChannel
	Presence services.PresenceService
	Toasts   *toast.Queue
	Sync     services.SyncService
	Logger   zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:  logger.LogLevel(strings.ToLower(cfg.Logging.Level)),
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// BuildDependencies constructs the engine from configuration
func BuildDependencies(cfg *config.Config, lgr zerolog.Logger) *Dependencies {
	localUser := models.User{
		ID:          cfg.User.ID,
		DisplayName: cfg.User.DisplayName,
		Role:        models.Role(cfg.User.Role),
	}

	entityStore := store.NewEntityStore(lgr.With().Str("component", "store").Logger())
	gw := gateway.NewHTTPGateway(cfg.API.BaseURL, cfg.API.Token, lgr.With().Str("component", "gateway").Logger())
	socket := channel.NewSocket(cfg.Channel.URL, lgr.With().Str("component", "channel").Logger())
	toasts := toast.NewQueue(cfg.ToastTTL(), lgr.With().Str("component", "toast").Logger())
	presence := services.NewPresenceService(socket, localUser.DisplayName, cfg.TypingIdle(),
		lgr.With().Str("component", "presence").Logger())
	sync := services.NewSyncService(entityStore, gw, socket, presence, toasts, localUser,
		lgr.With().Str("component", "sync").Logger())

	return &Dependencies{
		Store:    entityStore,
		Gateway:  gw,
		Channel:  socket,
		Presence: presence,
		Toasts:   toasts,
		Sync:     sync,
		Logger:   lgr,
	}
}
