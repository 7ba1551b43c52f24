package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pinkknives/skolapp-realtime/internal/model"
	"github.com/pinkknives/skolapp-realtime/internal/service"
)

type contextKey string

const (
	TeacherIDKey contextKey = "teacherId"
	PlanKey      contextKey = "plan"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireTeacher validates the teacher JWT from the Authorization header
func (m *AuthMiddleware) RequireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateTeacherToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, TeacherIDKey, claims.TeacherID)
		ctx = context.WithValue(ctx, PlanKey, claims.Plan)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetTeacherID extracts the teacher ID from context
func GetTeacherID(ctx context.Context) string {
	if v := ctx.Value(TeacherIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetPlan extracts the billing plan from context
func GetPlan(ctx context.Context) model.Plan {
	if v := ctx.Value(PlanKey); v != nil {
		return v.(model.Plan)
	}
	return model.PlanFree
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
