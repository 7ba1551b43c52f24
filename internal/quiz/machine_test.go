package quiz

import (
	"testing"

	"github.com/pinkknives/skolapp-realtime/internal/model"
)

func TestMachine_Transitions(t *testing.T) {
	questions := []string{"q1", "q2"}

	tests := []struct {
		name         string
		stream       []model.ControlMessage
		wantPhase    Phase
		wantQuestion string
	}{
		{
			name:      "initial state is idle",
			stream:    nil,
			wantPhase: PhaseIdle,
		},
		{
			name:      "start without next is pending",
			stream:    []model.ControlMessage{{Kind: model.ControlStart}},
			wantPhase: PhasePending,
		},
		{
			name: "start then next activates question",
			stream: []model.ControlMessage{
				{Kind: model.ControlStart},
				{Kind: model.ControlNext, QuestionID: "q1"},
			},
			wantPhase:    PhaseActive,
			wantQuestion: "q1",
		},
		{
			name: "next before start is an implicit start",
			stream: []model.ControlMessage{
				{Kind: model.ControlNext, QuestionID: "q2"},
			},
			wantPhase:    PhaseActive,
			wantQuestion: "q2",
		},
		{
			name: "teachers may navigate backwards",
			stream: []model.ControlMessage{
				{Kind: model.ControlStart},
				{Kind: model.ControlNext, QuestionID: "q2"},
				{Kind: model.ControlNext, QuestionID: "q1"},
			},
			wantPhase:    PhaseActive,
			wantQuestion: "q1",
		},
		{
			name: "unknown question id leaves state unchanged",
			stream: []model.ControlMessage{
				{Kind: model.ControlStart},
				{Kind: model.ControlNext, QuestionID: "q1"},
				{Kind: model.ControlNext, QuestionID: "q99"},
			},
			wantPhase:    PhaseActive,
			wantQuestion: "q1",
		},
		{
			name: "end from idle",
			stream: []model.ControlMessage{
				{Kind: model.ControlEnd},
			},
			wantPhase: PhaseEnded,
		},
		{
			name: "end absorbs later control messages",
			stream: []model.ControlMessage{
				{Kind: model.ControlStart},
				{Kind: model.ControlEnd},
				{Kind: model.ControlNext, QuestionID: "q1"},
				{Kind: model.ControlStart},
			},
			wantPhase: PhaseEnded,
		},
		{
			name: "replaying end is idempotent",
			stream: []model.ControlMessage{
				{Kind: model.ControlEnd},
				{Kind: model.ControlEnd},
			},
			wantPhase: PhaseEnded,
		},
		{
			name: "repeated start does not reset an active question",
			stream: []model.ControlMessage{
				{Kind: model.ControlStart},
				{Kind: model.ControlNext, QuestionID: "q1"},
				{Kind: model.ControlStart},
			},
			wantPhase:    PhaseActive,
			wantQuestion: "q1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(questions)
			for _, msg := range tt.stream {
				m.Apply(msg)
			}

			phase, questionID := m.State()
			if phase != tt.wantPhase {
				t.Errorf("phase = %q, want %q", phase, tt.wantPhase)
			}
			if questionID != tt.wantQuestion {
				t.Errorf("questionID = %q, want %q", questionID, tt.wantQuestion)
			}
		})
	}
}

func TestMachine_LastReceivedNextWins(t *testing.T) {
	m := NewMachine([]string{"q1", "q2"})
	m.Apply(model.ControlMessage{Kind: model.ControlStart})

	// Two next messages arriving in either order: receipt order decides.
	m.Apply(model.ControlMessage{Kind: model.ControlNext, QuestionID: "q1"})
	m.Apply(model.ControlMessage{Kind: model.ControlNext, QuestionID: "q2"})

	if _, questionID := m.State(); questionID != "q2" {
		t.Errorf("questionID = %q, want q2", questionID)
	}
}

func TestMachine_Snapshot(t *testing.T) {
	m := NewMachine([]string{"q1"})

	if _, ok := m.Snapshot(); ok {
		t.Error("idle machine should have no snapshot")
	}

	m.Apply(model.ControlMessage{Kind: model.ControlStart})
	msg, ok := m.Snapshot()
	if !ok || msg.Kind != model.ControlStart {
		t.Errorf("snapshot = %+v ok=%v, want start", msg, ok)
	}

	m.Apply(model.ControlMessage{Kind: model.ControlNext, QuestionID: "q1"})
	msg, ok = m.Snapshot()
	if !ok || msg.Kind != model.ControlNext || msg.QuestionID != "q1" {
		t.Errorf("snapshot = %+v ok=%v, want next q1", msg, ok)
	}

	m.Apply(model.ControlMessage{Kind: model.ControlEnd})
	msg, ok = m.Snapshot()
	if !ok || msg.Kind != model.ControlEnd {
		t.Errorf("snapshot = %+v ok=%v, want end", msg, ok)
	}
}

// The full run shape: start, answer q1 twice, move on, end.
func TestMachine_FullSessionScenario(t *testing.T) {
	m := NewMachine([]string{"q1", "q2"})
	agg := NewAggregator([]string{"q1", "q2"})

	m.Apply(model.ControlMessage{Kind: model.ControlStart})
	m.Apply(model.ControlMessage{Kind: model.ControlNext, QuestionID: "q1"})
	agg.Record(answerEvent("q1", "A"))
	agg.Record(answerEvent("q1", "B"))
	m.Apply(model.ControlMessage{Kind: model.ControlNext, QuestionID: "q2"})
	m.Apply(model.ControlMessage{Kind: model.ControlEnd})

	if phase, _ := m.State(); phase != PhaseEnded {
		t.Errorf("phase = %q, want ended", phase)
	}
	if n := agg.Count("q1"); n != 2 {
		t.Errorf("count(q1) = %d, want 2", n)
	}
	if n := agg.Count("q2"); n != 0 {
		t.Errorf("count(q2) = %d, want 0", n)
	}
	if n := agg.Len(); n != 2 {
		t.Errorf("total events = %d, want 2", n)
	}
}
