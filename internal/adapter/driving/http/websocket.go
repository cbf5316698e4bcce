package http

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/swiftride/messaging/internal/adapter/driven/gateway/ws"
	"github.com/swiftride/messaging/internal/telemetry"
	"github.com/swiftride/messaging/internal/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: only for dev
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient adapts one websocket connection to the hub's client contract.
// Outbound frames go through a buffered channel so one slow connection
// cannot stall broadcast delivery to the rest of the room.
type WSClient struct {
	id        string
	conn      *websocket.Conn
	send      chan wire.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(id string, conn *websocket.Conn) *WSClient {
	return &WSClient{
		id:   id,
		conn: conn,
		send: make(chan wire.Envelope, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *WSClient) ID() string {
	return c.id
}

// Send enqueues a frame for delivery. It fails when the connection is
// closed or its buffer is full; the hub treats either as an implicit
// disconnect.
func (c *WSClient) Send(frame wire.Message) error {
	env := wire.Envelope{Event: wire.EventNewMessage, Message: &frame}
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}
	select {
	case c.send <- env:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (c *WSClient) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
	return nil
}

func (c *WSClient) writePump(l zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case env := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				l.Warn().Err(err).Msg("Write error")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				l.Warn().Err(err).Msg("Ping failed")
				return
			}
		}
	}
}

func (c *WSClient) readPump(hub *ws.Hub, l zerolog.Logger) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env wire.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			return
		}

		switch env.Event {
		case wire.EventJoinRide:
			if env.RideID == "" {
				l.Warn().Msg("join-ride without rideId ignored")
				continue
			}
			hub.Join(env.RideID, c)

		case wire.EventNewMessage:
			// privileged sender path: relay an already-persisted message
			// to its room without touching the store
			if env.Message == nil || env.Message.RideID == "" {
				l.Warn().Msg("new-message without payload ignored")
				continue
			}
			hub.Relay(*env.Message)

		default:
			l.Warn().Str("event", env.Event).Msg("Unknown event")
		}
	}
}

// ServeWS upgrades the request and runs the connection's lifecycle. The
// handshake supplies rideId, userId and userType as query parameters; the
// connection is placed into its ride's room immediately.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rideID := q.Get("rideId")
	userID := q.Get("userId")
	userType := q.Get("userType")

	if rideID == "" || userID == "" {
		http.Error(w, "rideId and userId are required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := newWSClient(userID, conn)

	l := log.With().Str("client_id", userID).Str("user_type", userType).Str("ride_id", rideID).Logger()
	l.Info().Msg("Client connected")
	telemetry.LiveConnections.Inc()

	h.Hub.Join(rideID, client)
	go client.writePump(l)

	defer func() {
		h.Hub.Leave(client)
		client.Close()
		telemetry.LiveConnections.Dec()
		l.Info().Msg("Client disconnected")
	}()

	client.readPump(h.Hub, l)
}
