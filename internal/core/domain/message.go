package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLen caps message text length, in runes, after trimming.
const MaxTextLen = 2000

// conservative ID validation: letters, digits, dot, underscore, dash,
// bounded to protect store key shapes
var idRegexp = regexp.MustCompile(`^[A-Za-z0-9._-]{1,256}$`)

type SenderType string

const (
	SenderRider  SenderType = "rider"
	SenderDriver SenderType = "driver"
)

func (t SenderType) Valid() bool {
	return t == SenderRider || t == SenderDriver
}

type Message struct {
	ID         string
	RideID     string
	SenderID   string
	SenderType SenderType
	Text       string
	CreatedAt  time.Time
}

// NewDraft validates inbound fields and returns a message without ID or
// CreatedAt; the store assigns both on append. Text is trimmed before
// validation, so whitespace-only input is rejected as empty.
func NewDraft(rideID, senderID string, senderType SenderType, text string) (Message, error) {
	if strings.TrimSpace(rideID) == "" {
		return Message{}, Invalid("rideId is required")
	}
	if !idRegexp.MatchString(rideID) {
		return Message{}, Invalid("invalid rideId %q", rideID)
	}
	if strings.TrimSpace(senderID) == "" {
		return Message{}, Invalid("senderId is required")
	}
	if !idRegexp.MatchString(senderID) {
		return Message{}, Invalid("invalid senderId %q", senderID)
	}
	if !senderType.Valid() {
		return Message{}, Invalid("invalid senderType %q, must be %q or %q", senderType, SenderRider, SenderDriver)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, Invalid("message text is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		return Message{}, Invalid("message text exceeds %d characters", MaxTextLen)
	}
	return Message{
		RideID:     rideID,
		SenderID:   senderID,
		SenderType: senderType,
		Text:       text,
	}, nil
}
