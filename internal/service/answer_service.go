package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pinkknives/skolapp-realtime/internal/cache"
	"github.com/pinkknives/skolapp-realtime/internal/model"
	"github.com/pinkknives/skolapp-realtime/internal/quiz"
)

var ErrSessionNotFound = errors.New("session not found")

// AnswerService maintains one answer aggregator per live session. Aggregation
// is process-local memory for the teacher's live view; the durable results
// snapshot is only written when the session ends.
type AnswerService struct {
	sessionCache cache.SessionCache

	mu   sync.Mutex
	aggs map[string]*quiz.Aggregator
}

// NewAnswerService creates a new answer service
func NewAnswerService(sessionCache cache.SessionCache) *AnswerService {
	return &AnswerService{
		sessionCache: sessionCache,
		aggs:         make(map[string]*quiz.Aggregator),
	}
}

// StartRun installs a fresh aggregator for a newly started session.
func (s *AnswerService) StartRun(sessionID string, questionIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggs[sessionID] = quiz.NewAggregator(questionIDs)
}

// Record feeds a validated answer event into the session's aggregator.
// Returns false when the event references a question outside the session's
// list; such events were still transported, they just never reach counts.
func (s *AnswerService) Record(ctx context.Context, sessionID string, ev model.AnswerEvent) (bool, error) {
	agg, err := s.ensure(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return agg.Record(ev), nil
}

// Answers returns all answers for one question in arrival order.
func (s *AnswerService) Answers(ctx context.Context, sessionID, questionID string) ([]model.AnswerEvent, error) {
	agg, err := s.ensure(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return agg.Answers(questionID), nil
}

// Count returns the answer count for one question.
func (s *AnswerService) Count(ctx context.Context, sessionID, questionID string) (int, error) {
	agg, err := s.ensure(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return agg.Count(questionID), nil
}

// Counts returns the per-question counters for a session.
func (s *AnswerService) Counts(ctx context.Context, sessionID string) (map[string]int, error) {
	agg, err := s.ensure(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return agg.Counts(), nil
}

// Clear resets a session's aggregation for a new run.
func (s *AnswerService) Clear(ctx context.Context, sessionID string) error {
	agg, err := s.ensure(ctx, sessionID)
	if err != nil {
		return err
	}
	agg.Clear()
	return nil
}

// FinishRun removes the session's aggregator and returns its final counts.
func (s *AnswerService) FinishRun(sessionID string) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	agg, ok := s.aggs[sessionID]
	if !ok {
		return map[string]int{}
	}
	delete(s.aggs, sessionID)
	return agg.Counts()
}

// ensure returns the session's aggregator, rebuilding it from the cached
// session meta after a process restart.
func (s *AnswerService) ensure(ctx context.Context, sessionID string) (*quiz.Aggregator, error) {
	s.mu.Lock()
	if agg, ok := s.aggs[sessionID]; ok {
		s.mu.Unlock()
		return agg, nil
	}
	s.mu.Unlock()

	meta, err := s.sessionCache.GetMeta(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session meta: %w", err)
	}
	if meta == nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if agg, ok := s.aggs[sessionID]; ok {
		return agg, nil
	}
	agg := quiz.NewAggregator(meta.QuestionIDs)
	s.aggs[sessionID] = agg
	return agg, nil
}
