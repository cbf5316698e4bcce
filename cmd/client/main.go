// Terminal messaging client for one ride: joins the room, prints history
// and live messages, sends stdin lines via the HTTP endpoint.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/swiftride/messaging/internal/client"
	"github.com/swiftride/messaging/internal/config"
	"github.com/swiftride/messaging/internal/core/domain"
	"github.com/swiftride/messaging/internal/wire"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	var (
		apiURL    = flag.String("api", cfg.APIBaseURL, "send/history endpoint base URL")
		socketURL = flag.String("socket", cfg.SocketURL, "relay URL (empty disables real-time updates)")
		rideID    = flag.String("ride", "", "ride identifier (required)")
		userID    = flag.String("user", "", "user identifier (required)")
		userType  = flag.String("type", string(domain.SenderRider), "rider or driver")
	)
	flag.Parse()

	if strings.TrimSpace(*rideID) == "" || strings.TrimSpace(*userID) == "" {
		fmt.Fprintln(os.Stderr, "--ride and --user are required")
		os.Exit(2)
	}

	w := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := client.NewSession(client.Options{
		APIBaseURL: *apiURL,
		SocketURL:  *socketURL,
		RideID:     *rideID,
		UserID:     *userID,
		UserType:   domain.SenderType(*userType),
		OnMessage: func(msg wire.Message) {
			fmt.Printf("[%s][%s] %s\n", msg.Sender, msg.Timestamp, msg.Text)
		},
	})
	defer session.Stop()

	if err := session.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to load message history")
	}
	log.Info().Stringer("state", session.State()).Int("messages", len(session.Messages())).Msg("Session started")

	go inputLoop(ctx, session)

	<-ctx.Done()
	log.Info().Msg("Shutting down client")
}

func inputLoop(ctx context.Context, session *client.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if _, err := session.Send(ctx, text); err != nil {
			log.Error().Err(err).Msg("Failed to send message")
		}
	}
}
