package model

import (
	"errors"
	"testing"
)

func TestParseControlMessage(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		payload string
		want    ControlMessage
		wantErr bool
	}{
		{
			name:  "start without payload",
			event: "start",
			want:  ControlMessage{Kind: ControlStart},
		},
		{
			name:    "start with timestamp",
			event:   "start",
			payload: `{"at":1700000000000}`,
			want:    ControlMessage{Kind: ControlStart, At: 1700000000000},
		},
		{
			name:    "next with question id",
			event:   "next",
			payload: `{"questionId":"q1"}`,
			want:    ControlMessage{Kind: ControlNext, QuestionID: "q1"},
		},
		{
			name:    "next without question id",
			event:   "next",
			payload: `{}`,
			wantErr: true,
		},
		{
			name:  "end",
			event: "end",
			want:  ControlMessage{Kind: ControlEnd},
		},
		{
			name:    "unknown event",
			event:   "pause",
			payload: `{}`,
			wantErr: true,
		},
		{
			name:    "unexpected fields rejected",
			event:   "next",
			payload: `{"questionId":"q1","boost":true}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			event:   "start",
			payload: `{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseControlMessage(tt.event, []byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestControlMessageWirePayload(t *testing.T) {
	tests := []struct {
		name string
		msg  ControlMessage
	}{
		{"start", ControlMessage{Kind: ControlStart}},
		{"start with timestamp", ControlMessage{Kind: ControlStart, At: 1700000000000}},
		{"next", ControlMessage{Kind: ControlNext, QuestionID: "q1"}},
		{"end", ControlMessage{Kind: ControlEnd}},
	}

	// A re-emitted message must survive the same strict parsing as a live
	// publish.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := tt.msg.WirePayload()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := ParseControlMessage(tt.msg.Kind, payload)
			if err != nil {
				t.Fatalf("rendered payload rejected: %v", err)
			}
			if got != tt.msg {
				t.Errorf("round trip got %+v, want %+v", got, tt.msg)
			}
		})
	}

	if _, err := (ControlMessage{Kind: "pause"}).WirePayload(); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown kind error = %v, want ErrValidation", err)
	}
}

func TestParseAnswerMessage(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		payload string
		want    AnswerMessage
		wantErr bool
	}{
		{
			name:    "plain text answer",
			event:   EventAnswer,
			payload: `{"questionId":"q1","answer":"42","timestamp":1700000000000}`,
			want:    AnswerMessage{QuestionID: "q1", Answer: "42", Timestamp: 1700000000000},
		},
		{
			name:    "structured answer encoded as string",
			event:   EventAnswer,
			payload: `{"questionId":"q2","answer":"{\"choice\":2}","timestamp":1}`,
			want:    AnswerMessage{QuestionID: "q2", Answer: `{"choice":2}`, Timestamp: 1},
		},
		{
			name:    "unknown event name",
			event:   "vote",
			payload: `{"questionId":"q1","answer":"a","timestamp":1}`,
			wantErr: true,
		},
		{
			name:    "missing question id",
			event:   EventAnswer,
			payload: `{"answer":"a","timestamp":1}`,
			wantErr: true,
		},
		{
			name:    "unexpected fields rejected",
			event:   EventAnswer,
			payload: `{"questionId":"q1","answer":"a","timestamp":1,"score":10}`,
			wantErr: true,
		},
		{
			name:    "not json",
			event:   EventAnswer,
			payload: `answer=42`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswerMessage(tt.event, []byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
