package model

import "time"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// Session identifies one live quiz run. The Mongo record is the audit trail;
// the live run itself exists only as long as its channels have subscribers
// plus the plan's timeout (tracked in Redis).
type Session struct {
	ID        string         `json:"id" bson:"_id"`
	QuizID    string         `json:"quizId" bson:"quizId"`
	TeacherID string         `json:"teacherId" bson:"teacherId"`
	Plan      Plan           `json:"plan" bson:"plan"`
	Questions []Question     `json:"questions" bson:"questions"`
	Status    SessionStatus  `json:"status" bson:"status"`
	StartedAt time.Time      `json:"startedAt" bson:"startedAt"`
	EndedAt   *time.Time     `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
	Results   map[string]int `json:"results,omitempty" bson:"results,omitempty"` // per-question answer counts, written on end
}

// SessionMeta is the Redis-cached slice of a session needed on the hot path:
// channel authorization, participant limits and question validation.
type SessionMeta struct {
	ID          string        `json:"id"`
	QuizID      string        `json:"quizId"`
	TeacherID   string        `json:"teacherId"`
	Plan        Plan          `json:"plan"`
	Status      SessionStatus `json:"status"`
	QuestionIDs []string      `json:"questionIds"`
	StartedAt   time.Time     `json:"startedAt"`
}
