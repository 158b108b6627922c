package handler

import (
	"net/http"

	"github.com/buildmart/marketplace-api/internal/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewHealthHandler(db *gorm.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Live godoc
// @Summary Liveness probe
// @Tags Health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Database godoc
// @Summary Database health with pool statistics
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(h.db)
	if err != nil {
		h.logger.Error("database health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

// Ready godoc
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	status := http.StatusOK

	if err := database.HealthCheck(h.db); err != nil {
		h.logger.Error("database readiness check failed", zap.Error(err))
		checks["database"] = map[string]string{"status": "unhealthy", "error": err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = map[string]string{"status": "healthy"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	respondJSON(w, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}
