package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pinkknives/skolapp-realtime/internal/config"
	"github.com/pinkknives/skolapp-realtime/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles teacher authentication. Identity is normally owned by
// the external auth provider; this is the single-account fallback used for
// local deployments and tests.
type AuthService struct {
	username  string
	password  string
	plan      model.Plan
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		username:  cfg.TeacherUsername,
		password:  cfg.TeacherPassword,
		plan:      model.Plan(cfg.TeacherPlan),
		jwtSecret: []byte(cfg.JWTSecret),
	}
}

// Login validates credentials and returns a teacher token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.username || password != s.password {
		return nil, ErrInvalidCredentials
	}

	teacherID := "teacher_" + uuid.New().String()[:8]

	claims := &model.TeacherClaims{
		TeacherID: teacherID,
		Plan:      s.plan,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:     tokenString,
		TeacherID: teacherID,
		Plan:      s.plan,
	}, nil
}

// ValidateTeacherToken validates a teacher JWT and returns claims
func (s *AuthService) ValidateTeacherToken(tokenString string) (*model.TeacherClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.TeacherClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.TeacherClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
