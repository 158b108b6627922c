package auth_test

import (
	"testing"
	"time"

	"github.com/buildmart/marketplace-api/internal/auth"
	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret: "test-signing-secret",
		Issuer:    "buildmart-identity",
		Audience:  "buildmart-marketplace",
	}
}

func TestJWTValidator_ValidToken(t *testing.T) {
	cfg := testAuthConfig()
	user := &auth.UserContext{UserID: uuid.New(), DisplayName: "Acme Supplies", Email: "sales@acme.test", Role: domain.RoleSupplier}

	token, err := auth.IssueToken(cfg, user, time.Hour)
	require.NoError(t, err)

	got, err := auth.NewJWTValidator(cfg).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, got.UserID)
	assert.Equal(t, "Acme Supplies", got.DisplayName)
	assert.Equal(t, domain.RoleSupplier, got.Role)
	assert.True(t, got.IsSupplier())
}

func TestJWTValidator_ExpiredToken(t *testing.T) {
	cfg := testAuthConfig()
	user := &auth.UserContext{UserID: uuid.New(), Role: domain.RoleCustomer}

	token, err := auth.IssueToken(cfg, user, -time.Hour)
	require.NoError(t, err)

	_, err = auth.NewJWTValidator(cfg).ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTValidator_WrongSecret(t *testing.T) {
	cfg := testAuthConfig()
	user := &auth.UserContext{UserID: uuid.New(), Role: domain.RoleCustomer}

	other := *cfg
	other.JWTSecret = "another-secret"
	token, err := auth.IssueToken(&other, user, time.Hour)
	require.NoError(t, err)

	_, err = auth.NewJWTValidator(cfg).ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTValidator_WrongAudience(t *testing.T) {
	cfg := testAuthConfig()
	user := &auth.UserContext{UserID: uuid.New(), Role: domain.RoleCustomer}

	other := *cfg
	other.Audience = "some-other-api"
	token, err := auth.IssueToken(&other, user, time.Hour)
	require.NoError(t, err)

	_, err = auth.NewJWTValidator(cfg).ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTValidator_RejectsOtherAlgorithms(t *testing.T) {
	cfg := testAuthConfig()
	claims := auth.Claims{
		Role: string(domain.RoleCustomer),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	_, err = auth.NewJWTValidator(cfg).ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTValidator_UnknownRole(t *testing.T) {
	cfg := testAuthConfig()
	user := &auth.UserContext{UserID: uuid.New(), Role: domain.UserRole("auditor")}

	token, err := auth.IssueToken(cfg, user, time.Hour)
	require.NoError(t, err)

	_, err = auth.NewJWTValidator(cfg).ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidRole)
}
