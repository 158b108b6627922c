package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/buildmart/marketplace-api/internal/config"
	"github.com/buildmart/marketplace-api/internal/domain"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	jwtValidator *JWTValidator
	logger       *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtValidator: NewJWTValidator(&cfg.Auth),
		logger:       logger,
	}
}

// Authenticate requires a valid bearer token and stores the caller on the request context
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "invalid authorization header format")
			return
		}

		userCtx, err := m.jwtValidator.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, err.Error())
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("user_id", userCtx.UserID.String()),
			zap.String("role", string(userCtx.Role)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// RequireRole middleware ensures user has one of the roles
func (m *Middleware) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "authentication required")
				return
			}

			if !userCtx.HasAnyRole(roles...) {
				m.logger.Info("role check failed",
					zap.String("path", r.URL.Path),
					zap.String("user_id", userCtx.UserID.String()),
					zap.String("role", string(userCtx.Role)),
				)
				writeError(w, http.StatusForbidden, domain.ErrorTypeForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIResponse{
		Success: false,
		Code:    code,
		Message: message,
	})
}
