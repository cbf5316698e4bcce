// Package client implements the per-screen messaging session bridging a UI
// to the send/history endpoints and the live relay.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/swiftride/messaging/internal/core/domain"
	"github.com/swiftride/messaging/internal/wire"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

type Options struct {
	// APIBaseURL is the send/history endpoint base, e.g. http://host:8080.
	APIBaseURL string
	// SocketURL is the relay base, e.g. ws://host:8080. Empty disables
	// real-time delivery; that is a supported mode, not an error.
	SocketURL string

	RideID   string
	UserID   string
	UserType domain.SenderType

	// OnMessage, when set, is invoked for every newly merged message, in
	// the order messages enter the visible log. It must not block: it runs
	// on the merging goroutine.
	OnMessage func(wire.Message)

	HTTPClient *http.Client
}

// Session keeps the visible message log for one ride. Messages arriving
// from the send response and the relay echo are merged idempotently by id,
// whichever lands first.
type Session struct {
	opts  Options
	httpc *http.Client

	// notifyMu serializes merges end to end so OnMessage fires in log
	// order; mu alone guards state reads and stays free during callbacks.
	notifyMu sync.Mutex

	mu       sync.Mutex
	state    State
	loading  bool
	lastErr  error
	messages []wire.Message
	seen     map[string]struct{}
	conn     *websocket.Conn

	stopOnce sync.Once
}

func NewSession(opts Options) *Session {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Session{
		opts:  opts,
		httpc: httpc,
		seen:  make(map[string]struct{}),
	}
}

// Start connects to the relay when a socket URL is configured, then loads
// history. A relay failure degrades the session to history-only mode and
// is recorded, never returned: sending keeps working over HTTP.
func (s *Session) Start(ctx context.Context) error {
	if s.opts.SocketURL == "" {
		log.Warn().Msg("Socket URL not configured, real-time messaging disabled")
		return s.fetchHistory(ctx)
	}

	s.setState(Connecting)

	u, err := s.socketURL()
	if err != nil {
		s.degrade(err)
		return s.fetchHistory(ctx)
	}

	d := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := d.DialContext(ctx, u, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		s.degrade(err)
		return s.fetchHistory(ctx)
	}

	join := wire.Envelope{Event: wire.EventJoinRide, RideID: s.opts.RideID}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		s.degrade(err)
		return s.fetchHistory(ctx)
	}

	s.mu.Lock()
	s.conn = conn
	s.state = Connected
	s.mu.Unlock()
	log.Info().Str("ride_id", s.opts.RideID).Msg("Connected to messaging relay")

	go s.readLoop(conn)

	return s.fetchHistory(ctx)
}

func (s *Session) socketURL() (string, error) {
	u, err := url.Parse(s.opts.SocketURL)
	if err != nil {
		return "", err
	}
	u.Path = "/ws"
	q := url.Values{}
	q.Set("rideId", s.opts.RideID)
	q.Set("userId", s.opts.UserID)
	q.Set("userType", string(s.opts.UserType))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Session) degrade(err error) {
	cerr := &domain.RelayConnectionError{Err: err}
	log.Warn().Err(cerr).Msg("Relay unavailable, continuing in history-only mode")
	s.mu.Lock()
	s.state = Disconnected
	s.lastErr = cerr
	s.mu.Unlock()
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		var env wire.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			log.Info().Err(err).Msg("Relay connection closed")
			s.setState(Disconnected)
			return
		}
		if env.Event == wire.EventNewMessage && env.Message != nil {
			s.merge(*env.Message)
		}
	}
}

// Send persists the message over the request/response channel. Available
// regardless of live-connection health; a server-side failure is retried
// once before surfacing.
func (s *Session) Send(ctx context.Context, text string) (wire.Message, error) {
	msg, err := s.postSend(ctx, text)
	if err != nil {
		var se *sendStatusError
		if errors.As(err, &se) && se.status >= http.StatusInternalServerError {
			log.Warn().Err(err).Msg("Send failed, retrying once")
			msg, err = s.postSend(ctx, text)
		}
	}
	if err != nil {
		s.recordErr(err)
		return wire.Message{}, err
	}

	s.merge(msg)
	s.clearErr()
	return msg, nil
}

type sendStatusError struct {
	status int
	msg    string
}

func (e *sendStatusError) Error() string { return e.msg }

func (s *Session) postSend(ctx context.Context, text string) (wire.Message, error) {
	payload, err := json.Marshal(map[string]string{
		"rideId":     s.opts.RideID,
		"senderId":   s.opts.UserID,
		"senderType": string(s.opts.UserType),
		"text":       text,
	})
	if err != nil {
		return wire.Message{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.APIBaseURL+"/api/messages/send", bytes.NewReader(payload))
	if err != nil {
		return wire.Message{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return wire.Message{}, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Success bool         `json:"success"`
		Message wire.Message `json:"message"`
		Error   string       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return wire.Message{}, fmt.Errorf("decode send response: %w", err)
	}
	if !body.Success {
		reason := body.Error
		if reason == "" {
			reason = "failed to send message"
		}
		return wire.Message{}, &sendStatusError{status: resp.StatusCode, msg: reason}
	}

	// the broadcast frame carries rideId, the REST response does not
	body.Message.RideID = s.opts.RideID
	return body.Message, nil
}

func (s *Session) fetchHistory(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	u := s.opts.APIBaseURL + "/api/messages/get?rideId=" + url.QueryEscape(s.opts.RideID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		err = fmt.Errorf("load messages: %w", err)
		s.recordErr(err)
		return err
	}
	defer resp.Body.Close()

	var body struct {
		Success  bool           `json:"success"`
		Messages []wire.Message `json:"messages"`
		Error    string         `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		err = fmt.Errorf("decode history response: %w", err)
		s.recordErr(err)
		return err
	}
	if !body.Success {
		reason := body.Error
		if reason == "" {
			reason = "failed to load messages"
		}
		err = fmt.Errorf("load messages: %s", reason)
		s.recordErr(err)
		return err
	}

	for _, msg := range body.Messages {
		if msg.RideID == "" {
			msg.RideID = s.opts.RideID
		}
		s.merge(msg)
	}
	s.clearErr()
	return nil
}

// merge appends a message to the visible log unless its id was already
// observed. Arrival order between the send response and the relay echo
// does not matter.
func (s *Session) merge(msg wire.Message) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if _, ok := s.seen[msg.ID]; ok {
		s.mu.Unlock()
		return
	}
	s.seen[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	if s.opts.OnMessage != nil {
		s.opts.OnMessage(msg)
	}
}

// Stop releases the live connection. Idempotent; safe on every exit path.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.state = Disconnected
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	})
}

// Messages returns the visible log in locally observed order. Live updates
// are eventually ordered; re-fetching history yields the authoritative
// order.
func (s *Session) Messages() []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the most recent failure, cleared by the next successful
// send or history fetch.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) recordErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Session) clearErr() {
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}
