// Package wire defines the JSON frames exchanged over the live connection,
// shared by the relay server and the client session.
package wire

import (
	"github.com/swiftride/messaging/internal/core/domain"
)

const (
	EventJoinRide   = "join-ride"
	EventNewMessage = "new-message"
)

// TimeLayout renders creation instants as hour:minute, 24-hour,
// locale-independent.
const TimeLayout = "15:04"

type Envelope struct {
	Event   string   `json:"event"`
	RideID  string   `json:"rideId,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// Message is the formatted representation broadcast to room members.
type Message struct {
	ID        string `json:"id"`
	RideID    string `json:"rideId"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func FromDomain(msg domain.Message) Message {
	return Message{
		ID:        msg.ID,
		RideID:    msg.RideID,
		Sender:    string(msg.SenderType),
		Text:      msg.Text,
		Timestamp: msg.CreatedAt.Format(TimeLayout),
	}
}
