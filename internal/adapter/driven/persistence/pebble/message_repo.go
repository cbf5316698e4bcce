// Package pebble persists messages in a pebble key-value store. Message
// keys are r:<rideID>:m:<ts>:<seq> with zero-padded timestamp and sequence
// segments, so a prefix scan over one ride yields chronological order.
package pebble

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	pebbledb "github.com/cockroachdb/pebble"
	"github.com/swiftride/messaging/internal/core/domain"
)

const (
	msgKeyFmt    = "r:%s:m:%020d:%06d"
	msgPrefixFmt = "r:%s:m:"
)

type storedMessage struct {
	ID         string    `json:"id"`
	RideID     string    `json:"rideId"`
	SenderID   string    `json:"senderId"`
	SenderType string    `json:"senderType"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// rideState serializes appends for one ride. The sequence breaks ties
// between appends that land on the same nanosecond; lastNanos clamps the
// timestamp so a backwards clock step cannot reorder keys.
type rideState struct {
	mu        sync.Mutex
	seq       uint64
	seqLoaded bool
	lastNanos int64
}

type MessageRepository struct {
	db *pebbledb.DB

	mu    sync.Mutex
	rides map[string]*rideState
}

// Open opens or creates the pebble database at path.
func Open(path string) (*MessageRepository, error) {
	db, err := pebbledb.Open(path, &pebbledb.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &MessageRepository{
		db:    db,
		rides: make(map[string]*rideState),
	}, nil
}

func (r *MessageRepository) Close() error {
	return r.db.Close()
}

func (r *MessageRepository) rideState(rideID string) *rideState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rides[rideID]
	if !ok {
		st = &rideState{}
		r.rides[rideID] = st
	}
	return st
}

// seeds the ride state from existing keys after a restart
func (r *MessageRepository) loadRideState(rideID string, st *rideState) error {
	prefix := []byte(fmt.Sprintf(msgPrefixFmt, rideID))
	iter, err := r.db.NewIter(&pebbledb.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		parts := strings.SplitN(string(iter.Key()[len(prefix):]), ":", 2)
		if len(parts) != 2 {
			continue
		}
		ts, terr := strconv.ParseInt(parts[0], 10, 64)
		seq, serr := strconv.ParseUint(parts[1], 10, 64)
		if terr != nil || serr != nil {
			continue
		}
		if seq > st.seq {
			st.seq = seq
		}
		if ts > st.lastNanos {
			st.lastNanos = ts
		}
	}
	return iter.Error()
}

func (r *MessageRepository) Append(ctx context.Context, rideID, senderID string, senderType domain.SenderType, text string) (domain.Message, error) {
	msg, err := domain.NewDraft(rideID, senderID, senderType, text)
	if err != nil {
		return domain.Message{}, err
	}

	st := r.rideState(rideID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.seqLoaded {
		if err := r.loadRideState(rideID, st); err != nil {
			return domain.Message{}, &domain.StoreError{Op: "append", Err: err}
		}
		st.seqLoaded = true
	}
	st.seq++

	ts := time.Now().UTC().UnixNano()
	if ts < st.lastNanos {
		ts = st.lastNanos
	}
	st.lastNanos = ts

	msg.ID = domain.NewMessageID()
	msg.CreatedAt = time.Unix(0, ts).UTC()

	data, err := json.Marshal(storedMessage{
		ID:         msg.ID,
		RideID:     msg.RideID,
		SenderID:   msg.SenderID,
		SenderType: string(msg.SenderType),
		Text:       msg.Text,
		CreatedAt:  msg.CreatedAt,
	})
	if err != nil {
		return domain.Message{}, &domain.StoreError{Op: "append", Err: err}
	}

	key := []byte(fmt.Sprintf(msgKeyFmt, rideID, ts, st.seq))
	if err := r.db.Set(key, data, pebbledb.Sync); err != nil {
		return domain.Message{}, &domain.StoreError{Op: "append", Err: err}
	}
	return msg, nil
}

func (r *MessageRepository) ListByRide(ctx context.Context, rideID string) ([]domain.Message, error) {
	prefix := []byte(fmt.Sprintf(msgPrefixFmt, rideID))
	iter, err := r.db.NewIter(&pebbledb.IterOptions{})
	if err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	defer iter.Close()

	var out []domain.Message
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var sm storedMessage
		if err := json.Unmarshal(iter.Value(), &sm); err != nil {
			return nil, &domain.StoreError{Op: "list", Err: err}
		}
		out = append(out, domain.Message{
			ID:         sm.ID,
			RideID:     sm.RideID,
			SenderID:   sm.SenderID,
			SenderType: domain.SenderType(sm.SenderType),
			Text:       sm.Text,
			CreatedAt:  sm.CreatedAt,
		})
	}
	if err := iter.Error(); err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	return out, nil
}
