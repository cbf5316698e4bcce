package memory

import (
	"context"
	"sync"
	"time"

	"github.com/swiftride/messaging/internal/core/domain"
)

// MessageRepository is an in-memory message store for tests and runs
// without a data directory configured.
type MessageRepository struct {
	mu     sync.Mutex
	byRide map[string][]domain.Message
	lastTS map[string]time.Time
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		byRide: make(map[string][]domain.Message),
		lastTS: make(map[string]time.Time),
	}
}

func (r *MessageRepository) Append(ctx context.Context, rideID, senderID string, senderType domain.SenderType, text string) (domain.Message, error) {
	msg, err := domain.NewDraft(rideID, senderID, senderType, text)
	if err != nil {
		return domain.Message{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// keep CreatedAt strictly increasing per ride so history order stays
	// unambiguous even when appends land on the same wall-clock instant
	now := time.Now().UTC()
	if last := r.lastTS[rideID]; !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	r.lastTS[rideID] = now

	msg.ID = domain.NewMessageID()
	msg.CreatedAt = now
	r.byRide[rideID] = append(r.byRide[rideID], msg)
	return msg, nil
}

func (r *MessageRepository) ListByRide(ctx context.Context, rideID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.byRide[rideID]
	out := make([]domain.Message, len(stored))
	copy(out, stored)
	return out, nil
}
