package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/devserver"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/logger"
)

// forum-server is the in-memory development backend: the REST API and
// the websocket hub the engine talks to, with no persistence behind it.
func main() {
	port := flag.String("port", "8080", "port to listen on")
	flag.Parse()

	_ = godotenv.Load()
	if v := os.Getenv("FORUM_SERVER_PORT"); v != "" {
		*port = v
	}

	lgr := logger.Configure(logger.Config{Level: logger.InfoLevel, Pretty: true})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := devserver.New(lgr)
	srv.Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + *port,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		lgr.Info().Str("addr", httpServer.Addr).Msg("Development forum server listening")
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			lgr.Error().Err(err).Msg("Error starting server")
			os.Exit(1)
		}
	case <-ctx.Done():
		lgr.Info().Msg("Received OS signal, initiating shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		lgr.Error().Err(err).Msg("HTTP server shutdown error")
		os.Exit(1)
	}
	lgr.Info().Msg("Server gracefully stopped.")
}
