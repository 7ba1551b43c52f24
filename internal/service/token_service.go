package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pinkknives/skolapp-realtime/internal/config"
	"github.com/pinkknives/skolapp-realtime/internal/model"
)

// TokenService mints and validates capability tokens for session channels.
// Issuance is pure: role determines the capability mapping, nothing is
// persisted.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		signingKey: []byte(cfg.APIKey),
		ttl:        cfg.TokenTTL,
		now:        time.Now,
	}
}

// IssueToken mints a capability token for role, scoped to sessionID's
// channels (or every session when sessionID is empty). A missing signing
// credential fails with ErrConfiguration; there is no fallback to an
// unscoped or unsigned token.
func (s *TokenService) IssueToken(role model.Role, clientID, sessionID string) (*model.CapabilityToken, error) {
	if len(s.signingKey) == 0 {
		return nil, fmt.Errorf("%w: API_KEY is not set, cannot sign capability tokens", model.ErrConfiguration)
	}

	if clientID == "" {
		clientID = uuid.New().String()
	}

	issuedAt := s.now()
	capability := model.CapabilityForRole(role, sessionID)

	claims := &model.CapabilityClaims{
		ClientID:   clientID,
		Role:       role,
		Capability: capability,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign capability token: %w", err)
	}

	return &model.CapabilityToken{
		ClientID:   clientID,
		TTL:        int(s.ttl / time.Second),
		Capability: capability,
		Token:      signed,
		IssuedAt:   issuedAt.UnixMilli(),
	}, nil
}

// ValidateToken validates a capability JWT and returns its claims
func (s *TokenService) ValidateToken(tokenString string) (*model.CapabilityClaims, error) {
	if len(s.signingKey) == 0 {
		return nil, fmt.Errorf("%w: API_KEY is not set", model.ErrConfiguration)
	}

	token, err := jwt.ParseWithClaims(tokenString, &model.CapabilityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.CapabilityClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
