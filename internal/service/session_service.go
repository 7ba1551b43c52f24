package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pinkknives/skolapp-realtime/internal/cache"
	"github.com/pinkknives/skolapp-realtime/internal/model"
	"github.com/pinkknives/skolapp-realtime/internal/quiz"
	"github.com/pinkknives/skolapp-realtime/internal/repository"
)

var (
	ErrNotSessionOwner = errors.New("unauthorized: not session owner")
	ErrSessionQuota    = errors.New("concurrent session limit reached for plan")
	ErrSessionFull     = errors.New("participant limit reached for plan")
	ErrSessionEnded    = errors.New("session has ended")
)

// SessionService owns the live-session lifecycle: plan-quota enforcement on
// start, the Redis registry with plan-derived lapse timeouts, the server-side
// control-state machine used for late-joiner snapshots, and the results
// snapshot written on end.
type SessionService struct {
	quizRepo     repository.QuizRepo
	sessionRepo  repository.SessionRepo
	sessionCache cache.SessionCache
	answers      *AnswerService

	mu       sync.Mutex
	machines map[string]*quiz.Machine
}

// NewSessionService creates a new session service
func NewSessionService(
	quizRepo repository.QuizRepo,
	sessionRepo repository.SessionRepo,
	sessionCache cache.SessionCache,
	answers *AnswerService,
) *SessionService {
	return &SessionService{
		quizRepo:     quizRepo,
		sessionRepo:  sessionRepo,
		sessionCache: sessionCache,
		answers:      answers,
		machines:     make(map[string]*quiz.Machine),
	}
}

// Start begins a live run of a quiz, enforcing the plan's concurrent-session
// ceiling. The session's cache entries carry the plan's timeout so an
// abandoned run lapses on its own.
func (s *SessionService) Start(ctx context.Context, quizID, teacherID string, plan model.Plan) (*model.Session, error) {
	qz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if qz == nil || qz.TeacherID != teacherID {
		return nil, ErrQuizNotFound
	}

	limits := model.LimitsForPlan(plan)
	if limits.MaxConcurrentSessions != nil {
		active, err := s.sessionCache.ActiveCount(ctx, teacherID)
		if err != nil {
			return nil, fmt.Errorf("failed to count active sessions: %w", err)
		}
		if active >= *limits.MaxConcurrentSessions {
			return nil, ErrSessionQuota
		}
	}

	session := &model.Session{
		ID:        uuid.New().String(),
		QuizID:    quizID,
		TeacherID: teacherID,
		Plan:      plan,
		Questions: qz.Questions,
		Status:    model.SessionActive,
		StartedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	meta := &model.SessionMeta{
		ID:          session.ID,
		QuizID:      quizID,
		TeacherID:   teacherID,
		Plan:        plan,
		Status:      model.SessionActive,
		QuestionIDs: qz.QuestionIDs(),
		StartedAt:   session.StartedAt,
	}
	if err := s.sessionCache.SetMeta(ctx, meta, sessionTTL(limits)); err != nil {
		return nil, fmt.Errorf("failed to cache session: %w", err)
	}
	if err := s.sessionCache.AddActive(ctx, teacherID, session.ID); err != nil {
		return nil, fmt.Errorf("failed to track active session: %w", err)
	}

	s.answers.StartRun(session.ID, meta.QuestionIDs)

	s.mu.Lock()
	s.machines[session.ID] = quiz.NewMachine(meta.QuestionIDs)
	s.mu.Unlock()

	return session, nil
}

// Get retrieves a session record owned by the teacher.
func (s *SessionService) Get(ctx context.Context, id, teacherID string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.TeacherID != teacherID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns the teacher's session records, live and ended.
func (s *SessionService) List(ctx context.Context, teacherID string) ([]*model.Session, error) {
	sessions, err := s.sessionRepo.GetByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Meta returns the cached hot-path view of a live session, nil if it lapsed.
func (s *SessionService) Meta(ctx context.Context, id string) (*model.SessionMeta, error) {
	return s.sessionCache.GetMeta(ctx, id)
}

// End closes a live run: final answer counts are snapshotted to the session
// record and the registry entries are released.
func (s *SessionService) End(ctx context.Context, id, teacherID string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.TeacherID != teacherID {
		return nil, ErrNotSessionOwner
	}
	if session.Status == model.SessionEnded {
		return session, nil
	}

	results := s.answers.FinishRun(id)
	endedAt := time.Now()
	if err := s.sessionRepo.End(ctx, id, endedAt, results); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}

	if err := s.sessionCache.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to release session cache: %w", err)
	}
	if err := s.sessionCache.RemoveActive(ctx, teacherID, id); err != nil {
		return nil, fmt.Errorf("failed to untrack session: %w", err)
	}

	s.mu.Lock()
	if m, ok := s.machines[id]; ok {
		m.Apply(model.ControlMessage{Kind: model.ControlEnd})
	}
	s.mu.Unlock()

	session.Status = model.SessionEnded
	session.EndedAt = &endedAt
	session.Results = results
	return session, nil
}

// ObserveControl feeds a validated control message into the session's
// server-side machine. The machine only backs late-joiner snapshots and the
// session detail endpoint; every client still derives its own state.
func (s *SessionService) ObserveControl(ctx context.Context, sessionID string, msg model.ControlMessage) (bool, error) {
	m, err := s.machine(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return m.Apply(msg), nil
}

// State returns the session's current phase and live question id.
func (s *SessionService) State(ctx context.Context, sessionID string) (quiz.Phase, string, error) {
	m, err := s.machine(ctx, sessionID)
	if err != nil {
		return "", "", err
	}
	phase, questionID := m.State()
	return phase, questionID, nil
}

// Snapshot returns the latest control message for late joiners, ok=false
// while the session is idle.
func (s *SessionService) Snapshot(ctx context.Context, sessionID string) (model.ControlMessage, bool, error) {
	m, err := s.machine(ctx, sessionID)
	if err != nil {
		return model.ControlMessage{}, false, err
	}
	msg, ok := m.Snapshot()
	return msg, ok, nil
}

// JoinParticipant admits a student to a session, enforcing the plan's
// participant ceiling. The count key shares the session's lapse timeout.
func (s *SessionService) JoinParticipant(ctx context.Context, sessionID string) error {
	meta, err := s.sessionCache.GetMeta(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session meta: %w", err)
	}
	if meta == nil {
		return ErrSessionNotFound
	}
	if meta.Status == model.SessionEnded {
		return ErrSessionEnded
	}

	limits := model.LimitsForPlan(meta.Plan)
	n, err := s.sessionCache.IncrParticipants(ctx, sessionID, sessionTTL(limits))
	if err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}
	if limits.MaxParticipantsPerSession != nil && n > *limits.MaxParticipantsPerSession {
		if derr := s.sessionCache.DecrParticipants(ctx, sessionID); derr != nil {
			return fmt.Errorf("failed to release participant slot: %w", derr)
		}
		return ErrSessionFull
	}
	return nil
}

// LeaveParticipant releases a student's slot. Best effort: the registry keys
// lapse on their own if the decrement never lands.
func (s *SessionService) LeaveParticipant(ctx context.Context, sessionID string) error {
	return s.sessionCache.DecrParticipants(ctx, sessionID)
}

// machine returns the session's state machine, rebuilding it from cached
// meta after a process restart. A rebuilt machine starts at idle and catches
// up from the control stream it observes next.
func (s *SessionService) machine(ctx context.Context, sessionID string) (*quiz.Machine, error) {
	s.mu.Lock()
	if m, ok := s.machines[sessionID]; ok {
		s.mu.Unlock()
		return m, nil
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
	if m, ok := s.machines[sessionID]; ok {
		return m, nil
	}
	m := quiz.NewMachine(meta.QuestionIDs)
	s.machines[sessionID] = m
	return m, nil
}

// sessionTTL converts a plan's timeout to a cache TTL, zero for unlimited.
func sessionTTL(limits model.RealtimeLimits) time.Duration {
	if limits.SessionTimeoutMinutes == nil {
		return 0
	}
	return time.Duration(*limits.SessionTimeoutMinutes) * time.Minute
}
