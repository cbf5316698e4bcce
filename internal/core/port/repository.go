package port

import (
	"context"

	"github.com/swiftride/messaging/internal/core/domain"
)

// MessageStore is the durable record of chat messages keyed by ride.
type MessageStore interface {
	// Append validates, persists and returns the stored message with its
	// assigned ID and CreatedAt. Appends to the same ride are totally
	// ordered; appends to different rides do not interfere.
	Append(ctx context.Context, rideID, senderID string, senderType domain.SenderType, text string) (domain.Message, error)

	// ListByRide returns all messages for the ride in ascending CreatedAt
	// order. An unknown ride yields an empty slice, not an error.
	ListByRide(ctx context.Context, rideID string) ([]domain.Message, error)
}
