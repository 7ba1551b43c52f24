package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pinkknives/skolapp-realtime/internal/logging"
	"github.com/pinkknives/skolapp-realtime/internal/model"
)

// Presence event names emitted on a session's room channel
const (
	EventPresenceJoin  = "presence.join"
	EventPresenceLeave = "presence.leave"
	EventPresenceState = "presence.state"
)

// EventError is sent to a single client when one of its actions is rejected
const EventError = "error"

// Frame is the server-to-client envelope
type Frame struct {
	Channel   string          `json:"channel,omitempty"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Connection represents one attached client
type Connection struct {
	ClientID   string
	Role       model.Role
	SessionID  string
	Capability model.Capability
	Send       chan []byte
}

// presenceEntry is the fan-out payload for presence events
type presenceEntry struct {
	ClientID string     `json:"clientId"`
	Role     model.Role `json:"role"`
	Name     string     `json:"name"`
	JoinedAt time.Time  `json:"joinedAt"`
}

// Hub is the in-process channel transport: per-channel subscriber sets with
// in-order fan-out, plus presence membership on room channels. Ordering is
// guaranteed per channel per publisher only; no order is guaranteed across a
// session's three channels. Slow consumers get messages dropped rather than
// blocking the fan-out.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]map[*Connection]struct{}
	presence map[string]map[*Connection]*model.PresenceRecord
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		subs:     make(map[string]map[*Connection]struct{}),
		presence: make(map[string]map[*Connection]*model.PresenceRecord),
	}
}

// Subscribe registers conn for deliveries on channel.
func (h *Hub) Subscribe(conn *Connection, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Connection]struct{})
	}
	h.subs[channel][conn] = struct{}{}
}

// Unsubscribe removes conn from channel.
func (h *Hub) Unsubscribe(conn *Connection, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeSub(conn, channel)
}

// Publish fans a message out to the channel's current subscribers in receipt
// order. Best effort: there is no delivery guarantee for absent or slow
// subscribers. A frame that cannot be encoded is reported as ErrTransport
// and nothing is delivered.
func (h *Hub) Publish(channel, event string, payload json.RawMessage, clientID string) error {
	frame := &Frame{
		Channel:   channel,
		Event:     event,
		Payload:   payload,
		ClientID:  clientID,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("%w: encode frame for %s: %v", model.ErrTransport, channel, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.subs[channel] {
		h.send(conn, data)
	}
	return nil
}

// PresenceEnter records conn as present on channel and notifies subscribers.
// Re-entering replaces the previous record.
func (h *Hub) PresenceEnter(conn *Connection, channel string, rec *model.PresenceRecord) {
	h.mu.Lock()
	if h.presence[channel] == nil {
		h.presence[channel] = make(map[*Connection]*model.PresenceRecord)
	}
	h.presence[channel][conn] = rec
	h.mu.Unlock()

	h.notifyPresence(channel, EventPresenceJoin, conn, rec)
}

// PresenceLeave removes conn's presence on channel and notifies subscribers.
func (h *Hub) PresenceLeave(conn *Connection, channel string) {
	h.mu.Lock()
	rec, ok := h.presence[channel][conn]
	if ok {
		delete(h.presence[channel], conn)
	}
	h.mu.Unlock()

	if ok {
		h.notifyPresence(channel, EventPresenceLeave, conn, rec)
	}
}

// PresenceList returns the members currently present on channel.
func (h *Hub) PresenceList(channel string) []presenceEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]presenceEntry, 0, len(h.presence[channel]))
	for conn, rec := range h.presence[channel] {
		members = append(members, presenceEntry{
			ClientID: conn.ClientID,
			Role:     rec.Role,
			Name:     rec.Name,
			JoinedAt: rec.JoinedAt,
		})
	}
	return members
}

// Detach removes conn from every channel and presence set. Called on
// transport-level disconnect; the leave fan-out mirrors an explicit leave so
// presence converges either way.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	var left []struct {
		channel string
		rec     *model.PresenceRecord
	}
	for channel := range h.subs {
		h.removeSub(conn, channel)
	}
	for channel, members := range h.presence {
		if rec, ok := members[conn]; ok {
			delete(members, conn)
			left = append(left, struct {
				channel string
				rec     *model.PresenceRecord
			}{channel, rec})
		}
	}
	h.mu.Unlock()

	for _, l := range left {
		h.notifyPresence(l.channel, EventPresenceLeave, conn, l.rec)
	}
	close(conn.Send)
}

// SendError delivers an error frame to a single client. Rejections are
// recoverable; the connection and its subscriptions stay up.
func (h *Hub) SendError(conn *Connection, message string) {
	payload, _ := json.Marshal(map[string]string{"error": message})
	data, _ := json.Marshal(&Frame{
		Event:     EventError,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
	h.mu.RLock()
	h.send(conn, data)
	h.mu.RUnlock()
}

func (h *Hub) notifyPresence(channel, event string, conn *Connection, rec *model.PresenceRecord) {
	payload, err := json.Marshal(presenceEntry{
		ClientID: conn.ClientID,
		Role:     rec.Role,
		Name:     rec.Name,
		JoinedAt: rec.JoinedAt,
	})
	if err != nil {
		return
	}
	if err := h.Publish(channel, event, payload, conn.ClientID); err != nil {
		logging.Logger.WithError(err).Warn("presence fan-out dropped")
	}
}

func (h *Hub) removeSub(conn *Connection, channel string) {
	if subs, ok := h.subs[channel]; ok {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.subs, channel)
		}
	}
}

func (h *Hub) send(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		// Drop message if buffer full
	}
}
