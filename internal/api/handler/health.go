package handler

import (
	"net/http"

	"github.com/mirrorlabs/claude-gateway/internal/api/response"
)

// HealthCheck returns a simple liveness response.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "claude-gateway",
	})
}
