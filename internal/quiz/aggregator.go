package quiz

import (
	"sync"

	"github.com/pinkknives/skolapp-realtime/internal/model"
)

// Aggregator collects validated answer events for one live run: an ordered,
// never-deduplicated sequence plus an O(1) per-question count. A student may
// answer the same question several times; all submissions are retained.
// Memory only; durable results are written elsewhere when the session ends.
type Aggregator struct {
	mu     sync.Mutex
	events []model.AnswerEvent
	counts map[string]int
	known  map[string]struct{}
}

// NewAggregator creates an aggregator scoped to a session's question ids.
func NewAggregator(questionIDs []string) *Aggregator {
	known := make(map[string]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		known[id] = struct{}{}
	}
	return &Aggregator{
		counts: make(map[string]int),
		known:  known,
	}
}

// Record appends an answer event. Events referencing a question outside the
// session's list are excluded so they cannot corrupt per-question counts;
// the transport still delivered them, they just never reach aggregation.
func (a *Aggregator) Record(ev model.AnswerEvent) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.known[ev.QuestionID]; !ok {
		return false
	}
	a.events = append(a.events, ev)
	a.counts[ev.QuestionID]++
	return true
}

// Answers returns all events for a question in arrival order.
func (a *Aggregator) Answers(questionID string) []model.AnswerEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []model.AnswerEvent
	for _, ev := range a.events {
		if ev.QuestionID == questionID {
			out = append(out, ev)
		}
	}
	return out
}

// Count returns the number of recorded answers for a question.
func (a *Aggregator) Count(questionID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[questionID]
}

// Counts returns a copy of the per-question counters.
func (a *Aggregator) Counts() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]int, len(a.counts))
	for id, n := range a.counts {
		out[id] = n
	}
	return out
}

// Len returns the total number of recorded events.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.events)
}

// Clear resets the sequence and the counters. Used when starting a new run,
// not when moving between questions; one run's history stays visible until
// cleared explicitly.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = nil
	a.counts = make(map[string]int)
}
