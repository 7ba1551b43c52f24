// Package quiz holds the pure in-memory logic of a live run: the session
// state machine every client derives from the control stream, and the answer
// aggregator backing the teacher's live view. No I/O, safe for concurrent use.
package quiz

import (
	"sync"

	"github.com/pinkknives/skolapp-realtime/internal/model"
)

// Phase of a live session as reconstructed from observed control messages
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "active:pending" // started, no question selected yet
	PhaseActive  Phase = "active"
	PhaseEnded   Phase = "ended"
)

// Machine reconstructs session phase purely from the control-message stream.
// Every connected client runs its own copy; there is no authoritative server
// state beyond what the channel redelivers.
type Machine struct {
	mu        sync.Mutex
	phase     Phase
	current   string // question id when phase == PhaseActive
	questions map[string]struct{}
}

// NewMachine creates a machine for a session with the given question ids.
func NewMachine(questionIDs []string) *Machine {
	known := make(map[string]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		known[id] = struct{}{}
	}
	return &Machine{
		phase:     PhaseIdle,
		questions: known,
	}
}

// Apply feeds one control message into the machine and reports whether the
// observable state changed. Receipt order is the tie-break: the most recently
// applied next always wins. A next before any start is treated as an implicit
// start. A next naming an unknown question leaves the state unchanged. Once
// ended the machine absorbs everything.
func (m *Machine) Apply(msg model.ControlMessage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseEnded {
		return false
	}

	switch msg.Kind {
	case model.ControlStart:
		if m.phase == PhaseIdle {
			m.phase = PhasePending
			return true
		}
		return false

	case model.ControlNext:
		if _, ok := m.questions[msg.QuestionID]; !ok {
			return false
		}
		changed := m.phase != PhaseActive || m.current != msg.QuestionID
		m.phase = PhaseActive
		m.current = msg.QuestionID
		return changed

	case model.ControlEnd:
		m.phase = PhaseEnded
		m.current = ""
		return true
	}
	return false
}

// State returns the current phase and, when a question is live, its id.
func (m *Machine) State() (Phase, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase, m.current
}

// Snapshot returns the latest control message a late joiner needs to
// reconstruct the machine, or ok=false while the session is still idle.
func (m *Machine) Snapshot() (msg model.ControlMessage, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.phase {
	case PhaseIdle:
		return model.ControlMessage{}, false
	case PhasePending:
		return model.ControlMessage{Kind: model.ControlStart}, true
	case PhaseActive:
		return model.ControlMessage{Kind: model.ControlNext, QuestionID: m.current}, true
	default:
		return model.ControlMessage{Kind: model.ControlEnd}, true
	}
}
