package quiz

import (
	"fmt"
	"testing"
	"time"

	"github.com/pinkknives/skolapp-realtime/internal/model"
)

func answerEvent(questionID, answer string) model.AnswerEvent {
	return model.AnswerEvent{
		AnswerMessage: model.AnswerMessage{
			QuestionID: questionID,
			Answer:     answer,
			Timestamp:  time.Now().UnixMilli(),
		},
		ClientID:   "client-1",
		ReceivedAt: time.Now(),
	}
}

func TestAggregator_CountsPerQuestion(t *testing.T) {
	agg := NewAggregator([]string{"q1", "q2", "q3"})

	// Interleave answers across questions; per-question counts must not
	// depend on arrival order.
	for i := 0; i < 5; i++ {
		agg.Record(answerEvent("q1", fmt.Sprintf("a%d", i)))
		if i%2 == 0 {
			agg.Record(answerEvent("q2", "x"))
		}
	}

	if n := agg.Count("q1"); n != 5 {
		t.Errorf("count(q1) = %d, want 5", n)
	}
	if n := agg.Count("q2"); n != 3 {
		t.Errorf("count(q2) = %d, want 3", n)
	}
	if n := agg.Count("q3"); n != 0 {
		t.Errorf("count(q3) = %d, want 0", n)
	}
}

func TestAggregator_DuplicateAnswersRetained(t *testing.T) {
	agg := NewAggregator([]string{"q1"})

	// Same student answering twice: both submissions are kept, neither is
	// authoritative over the other.
	agg.Record(answerEvent("q1", "first"))
	agg.Record(answerEvent("q1", "second"))

	answers := agg.Answers("q1")
	if len(answers) != 2 {
		t.Fatalf("len(answers) = %d, want 2", len(answers))
	}
	if answers[0].Answer != "first" || answers[1].Answer != "second" {
		t.Errorf("arrival order not preserved: %q, %q", answers[0].Answer, answers[1].Answer)
	}
}

func TestAggregator_UnknownQuestionExcluded(t *testing.T) {
	agg := NewAggregator([]string{"q1"})

	if agg.Record(answerEvent("q99", "ghost")) {
		t.Error("unknown question id should not be recorded")
	}
	if n := agg.Len(); n != 0 {
		t.Errorf("total events = %d, want 0", n)
	}
}

func TestAggregator_Clear(t *testing.T) {
	agg := NewAggregator([]string{"q1"})
	agg.Record(answerEvent("q1", "a"))
	agg.Record(answerEvent("q1", "b"))

	agg.Clear()

	if n := agg.Len(); n != 0 {
		t.Errorf("total events after clear = %d, want 0", n)
	}
	if n := agg.Count("q1"); n != 0 {
		t.Errorf("count(q1) after clear = %d, want 0", n)
	}

	// The aggregator stays usable for the next run.
	agg.Record(answerEvent("q1", "c"))
	if n := agg.Count("q1"); n != 1 {
		t.Errorf("count(q1) after reuse = %d, want 1", n)
	}
}

func TestAggregator_Counts(t *testing.T) {
	agg := NewAggregator([]string{"q1", "q2"})
	agg.Record(answerEvent("q1", "a"))
	agg.Record(answerEvent("q2", "b"))
	agg.Record(answerEvent("q2", "c"))

	counts := agg.Counts()
	if counts["q1"] != 1 || counts["q2"] != 2 {
		t.Errorf("counts = %v, want map[q1:1 q2:2]", counts)
	}

	// The returned map is a copy.
	counts["q1"] = 100
	if agg.Count("q1") != 1 {
		t.Error("mutating the returned map must not affect the aggregator")
	}
}
