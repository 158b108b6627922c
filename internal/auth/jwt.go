package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidRole  = errors.New("token carries no usable role")
)

// Claims are the bearer token claims issued by the identity service
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTValidator validates HS256 bearer tokens
type JWTValidator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(cfg *config.AuthConfig) *JWTValidator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.ClockSkewDuration()),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTValidator{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(opts...),
	}
}

// ValidateToken validates a JWT token and returns user context
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: signing secret not configured", ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a valid id", ErrInvalidToken)
	}

	role := domain.UserRole(claims.Role)
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	return &UserContext{
		UserID:      userID,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Role:        role,
	}, nil
}

// IssueToken signs a token for the given user. The identity service owns
// issuance in production; this is used by tooling and tests.
func IssueToken(cfg *config.AuthConfig, user *UserContext, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  user.DisplayName,
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}
