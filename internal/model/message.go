package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Control event names published on a session's control channel
const (
	ControlStart = "start"
	ControlNext  = "next"
	ControlEnd   = "end"
)

// EventAnswer is the event name for answers-channel publishes
const EventAnswer = "answer"

// ControlMessage is a tagged variant: exactly one of start, next or end.
type ControlMessage struct {
	Kind       string `json:"kind"`
	At         int64  `json:"at,omitempty"`         // start only, optional epoch ms
	QuestionID string `json:"questionId,omitempty"` // next only
}

type startPayload struct {
	At int64 `json:"at,omitempty"`
}

type nextPayload struct {
	QuestionID string `json:"questionId"`
}

// ParseControlMessage validates an inbound control-channel payload against
// the closed set of control shapes. Anything else is rejected with
// ErrValidation so it can be dropped at the boundary, never crashing a
// handler or reaching state-machine consumers.
func ParseControlMessage(event string, payload []byte) (ControlMessage, error) {
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	switch event {
	case ControlStart:
		var p startPayload
		if err := strictUnmarshal(payload, &p); err != nil {
			return ControlMessage{}, fmt.Errorf("%w: malformed start payload", ErrValidation)
		}
		return ControlMessage{Kind: ControlStart, At: p.At}, nil

	case ControlNext:
		var p nextPayload
		if err := strictUnmarshal(payload, &p); err != nil {
			return ControlMessage{}, fmt.Errorf("%w: malformed next payload", ErrValidation)
		}
		if p.QuestionID == "" {
			return ControlMessage{}, fmt.Errorf("%w: next requires questionId", ErrValidation)
		}
		return ControlMessage{Kind: ControlNext, QuestionID: p.QuestionID}, nil

	case ControlEnd:
		return ControlMessage{Kind: ControlEnd}, nil

	default:
		return ControlMessage{}, fmt.Errorf("%w: unknown control event %q", ErrValidation, event)
	}
}

// WirePayload renders the message back into the payload shape its event is
// published with, so a re-emitted message survives the same strict parsing
// as a live publish.
func (m ControlMessage) WirePayload() (json.RawMessage, error) {
	switch m.Kind {
	case ControlStart:
		return json.Marshal(startPayload{At: m.At})
	case ControlNext:
		return json.Marshal(nextPayload{QuestionID: m.QuestionID})
	case ControlEnd:
		return json.RawMessage("{}"), nil
	default:
		return nil, fmt.Errorf("%w: unknown control event %q", ErrValidation, m.Kind)
	}
}

// AnswerMessage is the wire payload of an answers-channel publish. Answer is
// a free-form string; structured answers arrive JSON-encoded inside it.
type AnswerMessage struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	Timestamp  int64  `json:"timestamp"` // publish-time epoch ms
}

// ParseAnswerMessage validates an inbound answers-channel event and payload.
// The answers channel carries a single event name; anything else is rejected
// the same way an unknown control event is.
func ParseAnswerMessage(event string, payload []byte) (AnswerMessage, error) {
	if event != EventAnswer {
		return AnswerMessage{}, fmt.Errorf("%w: unknown answers event %q", ErrValidation, event)
	}
	var m AnswerMessage
	if err := strictUnmarshal(payload, &m); err != nil {
		return AnswerMessage{}, fmt.Errorf("%w: malformed answer payload", ErrValidation)
	}
	if m.QuestionID == "" {
		return AnswerMessage{}, fmt.Errorf("%w: answer requires questionId", ErrValidation)
	}
	return m, nil
}

// AnswerEvent is a received answer plus the metadata attached on receipt.
// ReceivedAt is for latency display only, not authoritative ordering.
type AnswerEvent struct {
	AnswerMessage
	ClientID   string    `json:"clientId"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// PresenceRecord is the ephemeral payload a client enters the room channel
// with. Name is a display name, not an identity.
type PresenceRecord struct {
	Role     Role      `json:"role"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
