package model

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role of a connected participant
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// ParseRole maps a role hint to a Role, defaulting to the least-privileged
// role when the hint is absent or unknown.
func ParseRole(hint string) Role {
	if strings.EqualFold(hint, string(RoleTeacher)) {
		return RoleTeacher
	}
	return RoleStudent
}

// Channel operations a capability can grant
const (
	OpPublish       = "publish"
	OpSubscribe     = "subscribe"
	OpPresenceSub   = "presence.subscribe"
	OpPresenceEnter = "presence.enter"
	OpPresenceLeave = "presence.leave"
)

// Channel name scheme. The exact format is load-bearing: clients address a
// session's channels as quiz:{sessionId}:control|answers|room.
const (
	ChannelControl = "control"
	ChannelAnswers = "answers"
	ChannelRoom    = "room"
)

// ChannelName returns the full channel name for a session and kind.
func ChannelName(sessionID, kind string) string {
	return fmt.Sprintf("quiz:%s:%s", sessionID, kind)
}

// SplitChannel parses a full channel name back into session id and kind.
func SplitChannel(channel string) (sessionID, kind string, err error) {
	parts := strings.Split(channel, ":")
	if len(parts) != 3 || parts[0] != "quiz" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: bad channel name %q", ErrValidation, channel)
	}
	switch parts[2] {
	case ChannelControl, ChannelAnswers, ChannelRoom:
		return parts[1], parts[2], nil
	}
	return "", "", fmt.Errorf("%w: bad channel name %q", ErrValidation, channel)
}

// Capability maps a channel-name pattern to the operations allowed on it.
// Patterns use the session id position as a literal id or "*".
type Capability map[string][]string

// CapabilityForRole builds the deterministic per-role capability. sessionID
// may be "*" to scope the token to any session's channels.
func CapabilityForRole(role Role, sessionID string) Capability {
	if sessionID == "" {
		sessionID = "*"
	}
	control := ChannelName(sessionID, ChannelControl)
	answers := ChannelName(sessionID, ChannelAnswers)
	room := ChannelName(sessionID, ChannelRoom)

	if role == RoleTeacher {
		return Capability{
			control: {OpPublish, OpSubscribe},
			answers: {OpSubscribe},
			room:    {OpPresenceSub, OpPresenceEnter, OpPresenceLeave},
		}
	}
	return Capability{
		control: {OpSubscribe},
		answers: {OpPublish},
		room:    {OpPresenceSub, OpPresenceEnter, OpPresenceLeave},
	}
}

// Allows reports whether the capability grants op on the given channel.
func (c Capability) Allows(channel, op string) bool {
	for pattern, ops := range c {
		if !channelMatches(pattern, channel) {
			continue
		}
		for _, granted := range ops {
			if granted == op {
				return true
			}
		}
	}
	return false
}

func channelMatches(pattern, channel string) bool {
	if pattern == channel {
		return true
	}
	pp := strings.Split(pattern, ":")
	cp := strings.Split(channel, ":")
	if len(pp) != len(cp) {
		return false
	}
	for i := range pp {
		if pp[i] != "*" && pp[i] != cp[i] {
			return false
		}
	}
	return true
}

// CapabilityClaims are the JWT claims of a capability token.
type CapabilityClaims struct {
	ClientID   string     `json:"clientId"`
	Role       Role       `json:"role"`
	Capability Capability `json:"capability"`
	jwt.RegisteredClaims
}

// CapabilityToken is the token object returned by the token endpoint.
type CapabilityToken struct {
	ClientID   string     `json:"clientId"`
	TTL        int        `json:"ttl"` // seconds
	Capability Capability `json:"capability"`
	Token      string     `json:"token"` // signed JWT
	IssuedAt   int64      `json:"issuedAt"`
}
