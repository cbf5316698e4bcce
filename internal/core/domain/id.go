package domain

import (
	"github.com/google/uuid"
)

// NewMessageID returns a globally unique message identifier. It is the
// de-duplication key between the optimistic local copy, the send response
// and the relay broadcast.
func NewMessageID() string {
	return uuid.NewString()
}
