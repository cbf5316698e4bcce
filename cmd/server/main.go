package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/swiftride/messaging/internal/adapter/driven/gateway/ws"
	memrepo "github.com/swiftride/messaging/internal/adapter/driven/persistence/memory"
	pebblerepo "github.com/swiftride/messaging/internal/adapter/driven/persistence/pebble"
	handler "github.com/swiftride/messaging/internal/adapter/driving/http"
	"github.com/swiftride/messaging/internal/config"
	"github.com/swiftride/messaging/internal/core/port"
	"github.com/swiftride/messaging/internal/core/service"
)

func main() {
	w := zerolog.ConsoleWriter{Out: os.Stdout}
	l := zerolog.New(w).With().Timestamp().Caller().Logger()
	log.Logger = l

	cfg, err := config.Load()
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	var store port.MessageStore
	var closeStore func() error
	if cfg.DataDir != "" {
		repo, err := pebblerepo.Open(cfg.DataDir)
		if err != nil {
			l.Fatal().Err(err).Str("path", cfg.DataDir).Msg("Failed to open message store")
		}
		store = repo
		closeStore = repo.Close
		l.Info().Str("path", cfg.DataDir).Msg("Using pebble message store")
	} else {
		store = memrepo.NewMessageRepository()
		l.Warn().Msg("No data dir configured, messages will not survive restarts")
	}

	hub := ws.NewHub()
	chatService := service.NewChatService(store, hub)
	h := handler.NewHandler(chatService, hub)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Str("addr", cfg.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.Stop()
	if closeStore != nil {
		if err := closeStore(); err != nil {
			l.Error().Err(err).Msg("Failed to close message store")
		}
	}
	l.Info().Msg("Server exited")
}
