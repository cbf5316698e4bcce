package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/swiftride/messaging/internal/adapter/driven/gateway/ws"
	"github.com/swiftride/messaging/internal/core/service"
	"github.com/swiftride/messaging/internal/telemetry"
)

type Handler struct {
	ChatService *service.ChatService
	Hub         *ws.Hub
}

func NewHandler(chatService *service.ChatService, hub *ws.Hub) *Handler {
	return &Handler{
		ChatService: chatService,
		Hub:         hub,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/api/messages/send", h.SendMessage)
	r.Get("/api/messages/get", h.GetMessages)
	r.Get("/ws", h.ServeWS)
	r.Handle("/metrics", telemetry.Handler())

	return r
}
