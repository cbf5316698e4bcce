package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftride/messaging/internal/adapter/driven/gateway/ws"
	"github.com/swiftride/messaging/internal/adapter/driven/persistence/memory"
	"github.com/swiftride/messaging/internal/core/domain"
	"github.com/swiftride/messaging/internal/core/service"
)

func newTestHandler() (*Handler, *memory.MessageRepository) {
	store := memory.NewMessageRepository()
	hub := ws.NewHub()
	return NewHandler(service.NewChatService(store, hub), hub), store
}

func postSend(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/messages/send", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.NewRouter().ServeHTTP(rr, req)
	return rr
}

func TestSendMessageSuccess(t *testing.T) {
	h, _ := newTestHandler()

	rr := postSend(t, h, `{"rideId":"RIDE_123456","senderId":"u1","senderType":"rider","text":"  Where are you?  "}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool `json:"success"`
		Message struct {
			ID        string `json:"id"`
			Sender    string `json:"sender"`
			Text      string `json:"text"`
			Timestamp string `json:"timestamp"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Message.ID)
	assert.Equal(t, "rider", resp.Message.Sender)
	assert.Equal(t, "Where are you?", resp.Message.Text, "text must be trimmed")
	assert.Regexp(t, `^\d{2}:\d{2}$`, resp.Message.Timestamp)
}

func TestSendMessageInvalidSenderType(t *testing.T) {
	h, store := newTestHandler()

	rr := postSend(t, h, `{"rideId":"R1","senderId":"u1","senderType":"passenger","text":"hi"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "senderType")

	msgs, err := store.ListByRide(context.Background(), "R1")
	require.NoError(t, err)
	assert.Empty(t, msgs, "rejected message must not be persisted")
}

func TestSendMessageMissingFields(t *testing.T) {
	h, _ := newTestHandler()

	for _, body := range []string{
		`{"senderId":"u1","senderType":"rider","text":"hi"}`,
		`{"rideId":"R1","senderType":"rider","text":"hi"}`,
		`{"rideId":"R1","senderId":"u1","senderType":"rider"}`,
		`{"rideId":"R1","senderId":"u1","senderType":"rider","text":"  "}`,
	} {
		rr := postSend(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body: %s", body)
	}
}

func TestSendMessageOverlongText(t *testing.T) {
	h, _ := newTestHandler()

	long := strings.Repeat("x", domain.MaxTextLen+1)
	rr := postSend(t, h, `{"rideId":"R1","senderId":"u1","senderType":"rider","text":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendMessageMalformedJSON(t *testing.T) {
	h, _ := newTestHandler()

	rr := postSend(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetMessagesOrderedOldestFirst(t *testing.T) {
	h, store := newTestHandler()
	ctx := context.Background()

	_, err := store.Append(ctx, "R1", "u1", domain.SenderRider, "first")
	require.NoError(t, err)
	_, err = store.Append(ctx, "R1", "d1", domain.SenderDriver, "second")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/messages/get?rideId=R1", nil)
	rr := httptest.NewRecorder()
	h.NewRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success  bool         `json:"success"`
		Messages []messageDTO `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "first", resp.Messages[0].Text)
	assert.Equal(t, "rider", resp.Messages[0].Sender)
	assert.Equal(t, "second", resp.Messages[1].Text)
	assert.Equal(t, "driver", resp.Messages[1].Sender)
}

func TestGetMessagesEmptyRide(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/get?rideId=nothing", nil)
	rr := httptest.NewRecorder()
	h.NewRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"messages":[]`, "empty ride is an empty list, not an error")
}

func TestGetMessagesRequiresRideID(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/get", nil)
	rr := httptest.NewRecorder()
	h.NewRouter().ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
}
