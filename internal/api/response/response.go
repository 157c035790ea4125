package response

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mirrorlabs/claude-gateway/internal/domain"
)

// JSON sends a plain JSON response.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends an OpenAI-style error envelope.
func Error(w http.ResponseWriter, status int, message, errType string) {
	JSON(w, status, domain.ErrorResponse{
		Error: domain.ErrorDetail{
			Message: message,
			Type:    errType,
			Code:    strconv.Itoa(status),
		},
	})
}

// OK sends a 200 OK response with data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// BadRequest sends a 400 with an invalid_request_error envelope.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message, "invalid_request_error")
}

// Unauthorized sends a 401 with an authentication_error envelope.
func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	Error(w, http.StatusUnauthorized, message, "authentication_error")
}

// NotFound sends a 404 with a not_found_error envelope.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message, "not_found_error")
}

// InternalError sends a 500 with an api_error envelope.
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message, "api_error")
}
