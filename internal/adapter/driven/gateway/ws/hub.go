package ws

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/swiftride/messaging/internal/core/domain"
	"github.com/swiftride/messaging/internal/telemetry"
	"github.com/swiftride/messaging/internal/wire"
)

// Hub groups live connections into per-ride rooms and fans messages out to
// room members. Rooms are ephemeral: created on first join, discarded when
// the last member leaves, all gone after a restart. Implements
// port.RealTimeGateway.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[Client]struct{}
	member map[Client]string
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[Client]struct{}),
		member: make(map[Client]string),
	}
}

// Join places the client into the room for rideID, creating it if absent.
// A connection belongs to one room at a time: joining supersedes any
// previous membership.
func (h *Hub) Join(rideID string, c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c)

	room, ok := h.rooms[rideID]
	if !ok {
		room = make(map[Client]struct{})
		h.rooms[rideID] = room
	}
	room[c] = struct{}{}
	h.member[c] = rideID
	log.Info().Str("client_id", c.ID()).Str("ride_id", rideID).Int("count", len(room)).Msg("Client joined room")
}

// Leave removes the client from its room, discarding the room if it
// becomes empty. Safe to call for a client that already left.
func (h *Hub) Leave(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
}

func (h *Hub) leaveLocked(c Client) {
	rideID, ok := h.member[c]
	if !ok {
		return
	}
	delete(h.member, c)

	room := h.rooms[rideID]
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, rideID)
	}
	log.Info().Str("client_id", c.ID()).Str("ride_id", rideID).Int("count", len(room)).Msg("Client left room")
}

// BroadcastMessage formats a stored message and delivers it to every
// connection in its ride's room, the sender included.
func (h *Hub) BroadcastMessage(ctx context.Context, msg domain.Message) error {
	h.Relay(wire.FromDomain(msg))
	return nil
}

// Relay delivers an already-formatted frame to the room for its ride. A
// failed delivery is treated as an implicit disconnect: the client is
// dropped and closed, remaining members are unaffected.
func (h *Hub) Relay(frame wire.Message) {
	h.mu.Lock()
	targets := make([]Client, 0, len(h.rooms[frame.RideID]))
	for c := range h.rooms[frame.RideID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.Send(frame); err != nil {
			log.Warn().Err(err).Str("client_id", c.ID()).Str("ride_id", frame.RideID).Msg("Dropping client after failed delivery")
			h.Leave(c)
			c.Close()
			continue
		}
		telemetry.BroadcastsDelivered.Inc()
	}
}

// RoomSize reports the current member count for a ride's room.
func (h *Hub) RoomSize(rideID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[rideID])
}

// Stop disconnects all clients and empties the room table.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.member {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Str("client_id", c.ID()).Msg("Error closing client connection")
		}
	}
	h.rooms = make(map[string]map[Client]struct{})
	h.member = make(map[Client]string)
}
