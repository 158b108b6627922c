package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/buildmart/marketplace-api/internal/auth"
	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createTestMiddleware() (*auth.Middleware, *config.Config) {
	cfg := &config.Config{Auth: *testAuthConfig()}
	return auth.NewMiddleware(cfg, zap.NewNop()), cfg
}

func TestMiddleware_Authenticate_ValidBearer(t *testing.T) {
	middleware, cfg := createTestMiddleware()
	user := &auth.UserContext{UserID: uuid.New(), Role: domain.RoleCustomer}
	token, err := auth.IssueToken(&cfg.Auth, user, time.Hour)
	require.NoError(t, err)

	var captured *auth.UserContext
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/request", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, user.UserID, captured.UserID)
}

func TestMiddleware_Authenticate_MissingHeader(t *testing.T) {
	middleware, _ := createTestMiddleware()

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/request", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body domain.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, domain.ErrorTypeUnauthorized, body.Code)
}

func TestMiddleware_Authenticate_MalformedHeader(t *testing.T) {
	middleware, _ := createTestMiddleware()
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/request", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_RequireRole(t *testing.T) {
	middleware, _ := createTestMiddleware()
	handler := middleware.RequireRole(domain.RoleSupplier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		user     *auth.UserContext
		expected int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"customer", &auth.UserContext{UserID: uuid.New(), Role: domain.RoleCustomer}, http.StatusForbidden},
		{"supplier", &auth.UserContext{UserID: uuid.New(), Role: domain.RoleSupplier}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/quotes/response", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUserContext(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}
