package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/pinkknives/skolapp-realtime/internal/logging"
	"github.com/pinkknives/skolapp-realtime/internal/model"
	"github.com/pinkknives/skolapp-realtime/internal/ratelimit"
	"github.com/pinkknives/skolapp-realtime/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // answers may carry JSON-encoded structured payloads

	publishBurst  = 30
	publishWindow = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Client actions on the websocket
const (
	actionSubscribe     = "subscribe"
	actionUnsubscribe   = "unsubscribe"
	actionPublish       = "publish"
	actionPresenceEnter = "presence.enter"
	actionPresenceLeave = "presence.leave"
)

// envelope is the client-to-server frame
type envelope struct {
	Action  string          `json:"action"`
	Channel string          `json:"channel"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"` // presence.enter only
}

type presenceData struct {
	Name string `json:"name"`
}

// Handler attaches websocket clients to a session's channel group
type Handler struct {
	hub        *Hub
	tokenSvc   *service.TokenService
	sessionSvc *service.SessionService
	answerSvc  *service.AnswerService
	limiter    *ratelimit.Limiter
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, tokenSvc *service.TokenService, sessionSvc *service.SessionService, answerSvc *service.AnswerService) *Handler {
	return &Handler{
		hub:        hub,
		tokenSvc:   tokenSvc,
		sessionSvc: sessionSvc,
		answerSvc:  answerSvc,
		limiter:    ratelimit.New(publishBurst, publishWindow),
	}
}

// SessionWS handles GET /v1/ws/sessions/{id}. The capability token rides in
// the token query param; its capability map decides what the connection may
// do afterwards, per channel and operation.
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	room := model.ChannelName(sessionID, model.ChannelRoom)
	if !claims.Capability.Allows(room, model.OpPresenceEnter) {
		http.Error(w, "token not valid for this session", http.StatusForbidden)
		return
	}

	// Students count against the plan's participant ceiling; the teacher's
	// own connection does not.
	if claims.Role == model.RoleStudent {
		if err := h.sessionSvc.JoinParticipant(r.Context(), sessionID); err != nil {
			status := http.StatusInternalServerError
			switch err {
			case service.ErrSessionFull:
				status = http.StatusForbidden
			case service.ErrSessionNotFound, service.ErrSessionEnded:
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.WithError(err).Error("websocket upgrade failed")
		return
	}

	conn := &Connection{
		ClientID:   claims.ClientID,
		Role:       claims.Role,
		SessionID:  sessionID,
		Capability: claims.Capability,
		Send:       make(chan []byte, 256),
	}

	logging.Logger.WithFields(map[string]interface{}{
		"clientId":  conn.ClientID,
		"role":      conn.Role,
		"sessionId": sessionID,
	}).Info("client attached")

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Detach(conn)
		if conn.Role == model.RoleStudent {
			// Fire-and-forget: the registry keys lapse on their own if this
			// never lands.
			if err := h.sessionSvc.LeaveParticipant(context.Background(), conn.SessionID); err != nil {
				logging.Logger.WithError(err).Debug("participant decrement failed")
			}
		}
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Logger.WithError(err).Debug("websocket read error")
			}
			break
		}
		h.dispatch(conn, data)
	}
}

// dispatch handles one client envelope. A failure inside a handler must not
// terminate the subscription, so everything is converted to an error frame
// and panics are contained here.
func (h *Handler) dispatch(conn *Connection, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Logger.WithField("panic", rec).Error("recovered in message handler")
			h.hub.SendError(conn, "internal error")
		}
	}()

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.hub.SendError(conn, "malformed envelope")
		return
	}

	sessionID, kind, err := model.SplitChannel(env.Channel)
	if err != nil || sessionID != conn.SessionID {
		h.hub.SendError(conn, "unknown channel")
		return
	}

	switch env.Action {
	case actionSubscribe:
		op := model.OpSubscribe
		if kind == model.ChannelRoom {
			op = model.OpPresenceSub
		}
		if !conn.Capability.Allows(env.Channel, op) {
			h.hub.SendError(conn, "subscribe not permitted on "+env.Channel)
			return
		}
		h.hub.Subscribe(conn, env.Channel)
		h.sendJoinState(conn, kind, env.Channel)

	case actionUnsubscribe:
		h.hub.Unsubscribe(conn, env.Channel)

	case actionPublish:
		if !conn.Capability.Allows(env.Channel, model.OpPublish) {
			h.hub.SendError(conn, "publish not permitted on "+env.Channel)
			return
		}
		if ok, retryAfter := h.limiter.Allow(conn.ClientID); !ok {
			h.hub.SendError(conn, fmt.Sprintf("%v: retry in %dms", model.ErrRateLimited, retryAfter.Milliseconds()))
			return
		}
		h.publish(conn, kind, env)

	case actionPresenceEnter:
		if kind != model.ChannelRoom || !conn.Capability.Allows(env.Channel, model.OpPresenceEnter) {
			h.hub.SendError(conn, "presence not permitted on "+env.Channel)
			return
		}
		var pd presenceData
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &pd); err != nil {
				h.hub.SendError(conn, "malformed presence data")
				return
			}
		}
		h.hub.PresenceEnter(conn, env.Channel, &model.PresenceRecord{
			Role:     conn.Role,
			Name:     pd.Name,
			JoinedAt: time.Now(),
		})

	case actionPresenceLeave:
		h.hub.PresenceLeave(conn, env.Channel)

	default:
		h.hub.SendError(conn, "unknown action")
	}
}

// publish validates the payload against the channel's message schema, feeds
// the side consumers (state machine, aggregator) and fans the message out.
// Messages naming an unknown question are still transported; they only skip
// aggregation and state transitions.
func (h *Handler) publish(conn *Connection, kind string, env envelope) {
	ctx := context.Background()

	switch kind {
	case model.ChannelControl:
		msg, err := model.ParseControlMessage(env.Event, env.Payload)
		if err != nil {
			h.hub.SendError(conn, err.Error())
			return
		}
		if _, err := h.sessionSvc.ObserveControl(ctx, conn.SessionID, msg); err != nil {
			h.hub.SendError(conn, err.Error())
			return
		}
		if err := h.hub.Publish(env.Channel, env.Event, env.Payload, conn.ClientID); err != nil {
			h.hub.SendError(conn, err.Error())
		}

	case model.ChannelAnswers:
		msg, err := model.ParseAnswerMessage(env.Event, env.Payload)
		if err != nil {
			h.hub.SendError(conn, err.Error())
			return
		}
		ev := model.AnswerEvent{
			AnswerMessage: msg,
			ClientID:      conn.ClientID,
			ReceivedAt:    time.Now(),
		}
		if _, err := h.answerSvc.Record(ctx, conn.SessionID, ev); err != nil {
			h.hub.SendError(conn, err.Error())
			return
		}
		if err := h.hub.Publish(env.Channel, env.Event, env.Payload, conn.ClientID); err != nil {
			h.hub.SendError(conn, err.Error())
		}

	default:
		h.hub.SendError(conn, "publish not supported on "+env.Channel)
	}
}

// sendJoinState gives a late joiner what it needs to reconstruct state: the
// latest control message on control subscribe, current membership on room
// subscribe. Best effort, not full history replay.
func (h *Handler) sendJoinState(conn *Connection, kind, channel string) {
	switch kind {
	case model.ChannelControl:
		msg, ok, err := h.sessionSvc.Snapshot(context.Background(), conn.SessionID)
		if err != nil || !ok {
			return
		}
		// The snapshot is re-emitted in its original wire shape so clients
		// run it through the same validation as a live control publish.
		payload, err := msg.WirePayload()
		if err != nil {
			return
		}
		frame, err := json.Marshal(&Frame{
			Channel:   channel,
			Event:     msg.Kind,
			Payload:   payload,
			Timestamp: time.Now().UnixMilli(),
		})
		if err != nil {
			return
		}
		select {
		case conn.Send <- frame:
		default:
		}

	case model.ChannelRoom:
		members := h.hub.PresenceList(channel)
		payload, err := json.Marshal(members)
		if err != nil {
			return
		}
		frame, err := json.Marshal(&Frame{
			Channel:   channel,
			Event:     EventPresenceState,
			Payload:   payload,
			Timestamp: time.Now().UnixMilli(),
		})
		if err != nil {
			return
		}
		select {
		case conn.Send <- frame:
		default:
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
