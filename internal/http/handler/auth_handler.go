package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/buildmart/marketplace-api/internal/auth"
	"github.com/buildmart/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountLookup is the slice of the user repository the auth handler needs
type AccountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type AuthHandler struct {
	users  AccountLookup
	logger *zap.Logger
}

func NewAuthHandler(users AccountLookup, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		logger: logger,
	}
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the caller as seen by the marketplace: token claims merged with the stored account
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.APIResponse{data=domain.AuthUserDTO}
// @Failure 401 {object} domain.APIResponse
// @Security BearerAuth
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	dto := domain.AuthUserDTO{
		ID:          userCtx.UserID,
		Email:       userCtx.Email,
		DisplayName: userCtx.DisplayName,
		Role:        userCtx.Role,
	}

	user, err := h.users.GetByID(r.Context(), userCtx.UserID)
	switch {
	case err == nil:
		dto.Email = user.Email
		dto.DisplayName = user.DisplayName
		dto.CompanyName = user.CompanyName
		dto.IsActive = user.IsActive
		dto.Registered = true
	case errors.Is(err, gorm.ErrRecordNotFound):
		// token is valid but the account has not been provisioned here yet
	default:
		requestLogger(r, h.logger).Error("failed to load account", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load account")
		return
	}

	respondData(w, http.StatusOK, "", dto)
}
