package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/swiftride/messaging/internal/core/domain"
	"github.com/swiftride/messaging/internal/core/port"
	"github.com/swiftride/messaging/internal/telemetry"
)

// ChatService owns the send and history paths. Persisting and broadcasting
// are two independent actions: a gateway failure never fails a send that
// the store already accepted, clients recover via a history re-fetch.
type ChatService struct {
	store   port.MessageStore
	gateway port.RealTimeGateway
}

// NewChatService wires the store and the relay gateway. A nil gateway
// disables real-time fan-out; sends still persist.
func NewChatService(store port.MessageStore, gateway port.RealTimeGateway) *ChatService {
	return &ChatService{
		store:   store,
		gateway: gateway,
	}
}

func (s *ChatService) Send(ctx context.Context, rideID, senderID string, senderType domain.SenderType, text string) (domain.Message, error) {
	msg, err := s.store.Append(ctx, rideID, senderID, senderType, text)
	if err != nil {
		return domain.Message{}, err
	}
	telemetry.MessagesAppended.Inc()

	if s.gateway != nil {
		if err := s.gateway.BroadcastMessage(ctx, msg); err != nil {
			log.Warn().Err(err).Str("ride_id", msg.RideID).Str("message_id", msg.ID).Msg("Broadcast failed, message persisted")
		}
	}
	return msg, nil
}

func (s *ChatService) History(ctx context.Context, rideID string) ([]domain.Message, error) {
	if strings.TrimSpace(rideID) == "" {
		return nil, domain.Invalid("rideId parameter is required")
	}
	return s.store.ListByRide(ctx, rideID)
}
