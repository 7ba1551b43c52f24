package model

// Plan is the billing tier of the account running a session
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
	PlanSchool  Plan = "school"
)

// RealtimeLimits are the per-plan ceilings for live sessions.
// A nil field means unlimited.
type RealtimeLimits struct {
	MaxConcurrentSessions     *int `json:"maxConcurrentSessions"`
	MaxParticipantsPerSession *int `json:"maxParticipantsPerSession"`
	SessionTimeoutMinutes     *int `json:"sessionTimeoutMinutes"`
}

// LimitsForPlan maps a plan tier to its realtime ceilings. Pure lookup, no
// I/O. Unknown plans get the free tier's limits.
func LimitsForPlan(p Plan) RealtimeLimits {
	switch p {
	case PlanPremium:
		return RealtimeLimits{
			MaxConcurrentSessions:     intPtr(5),
			MaxParticipantsPerSession: intPtr(100),
			SessionTimeoutMinutes:     intPtr(240),
		}
	case PlanSchool:
		return RealtimeLimits{} // unlimited
	default:
		return RealtimeLimits{
			MaxConcurrentSessions:     intPtr(1),
			MaxParticipantsPerSession: intPtr(20),
			SessionTimeoutMinutes:     intPtr(30),
		}
	}
}

func intPtr(n int) *int {
	return &n
}
