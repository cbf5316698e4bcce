package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/swiftride/messaging/internal/core/domain"
	"github.com/swiftride/messaging/internal/wire"
)

type sendRequest struct {
	RideID     string `json:"rideId"`
	SenderID   string `json:"senderId"`
	SenderType string `json:"senderType"`
	Text       string `json:"text"`
}

// messageDTO is the REST representation of a stored message.
type messageDTO struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func newMessageDTO(msg domain.Message) messageDTO {
	return messageDTO{
		ID:        msg.ID,
		Sender:    string(msg.SenderType),
		Text:      msg.Text,
		Timestamp: msg.CreatedAt.Format(wire.TimeLayout),
	}
}

// SendMessage validates and persists an inbound message and responds with
// the canonical stored record. Broadcasting to the room happens on the
// service's gateway path, independently of this response.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.ChatService.Send(r.Context(), req.RideID, req.SenderID, domain.SenderType(req.SenderType), req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": newMessageDTO(msg),
	})
}

// GetMessages returns all messages for a ride, oldest first.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	rideID := r.URL.Query().Get("rideId")

	msgs, err := h.ChatService.History(r.Context(), rideID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]messageDTO, 0, len(msgs))
	for _, msg := range msgs {
		dtos = append(dtos, newMessageDTO(msg))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": dtos,
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	if domain.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Error().Err(err).Msg("Message operation failed")
	writeError(w, http.StatusInternalServerError, "message store unavailable")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
