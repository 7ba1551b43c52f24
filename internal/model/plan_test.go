package model

import "testing"

func TestLimitsForPlan(t *testing.T) {
	t.Run("free", func(t *testing.T) {
		limits := LimitsForPlan(PlanFree)
		if limits.MaxConcurrentSessions == nil || *limits.MaxConcurrentSessions != 1 {
			t.Errorf("MaxConcurrentSessions = %v, want 1", limits.MaxConcurrentSessions)
		}
		if limits.MaxParticipantsPerSession == nil || *limits.MaxParticipantsPerSession != 20 {
			t.Errorf("MaxParticipantsPerSession = %v, want 20", limits.MaxParticipantsPerSession)
		}
		if limits.SessionTimeoutMinutes == nil || *limits.SessionTimeoutMinutes != 30 {
			t.Errorf("SessionTimeoutMinutes = %v, want 30", limits.SessionTimeoutMinutes)
		}
	})

	t.Run("school is unlimited", func(t *testing.T) {
		limits := LimitsForPlan(PlanSchool)
		if limits.MaxConcurrentSessions != nil {
			t.Errorf("MaxConcurrentSessions = %v, want nil", *limits.MaxConcurrentSessions)
		}
		if limits.MaxParticipantsPerSession != nil {
			t.Errorf("MaxParticipantsPerSession = %v, want nil", *limits.MaxParticipantsPerSession)
		}
		if limits.SessionTimeoutMinutes != nil {
			t.Errorf("SessionTimeoutMinutes = %v, want nil", *limits.SessionTimeoutMinutes)
		}
	})

	t.Run("unknown plan falls back to free", func(t *testing.T) {
		limits := LimitsForPlan(Plan("enterprise"))
		if limits.MaxConcurrentSessions == nil || *limits.MaxConcurrentSessions != 1 {
			t.Errorf("MaxConcurrentSessions = %v, want free tier's 1", limits.MaxConcurrentSessions)
		}
	})
}
