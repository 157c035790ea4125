package handler

import (
	"net/http"

	"github.com/mirrorlabs/claude-gateway/internal/api/response"
)

// knownModels is the static catalogue the gateway advertises. The worker
// accepts any model identifier it recognizes; this list only feeds client
// pickers.
var knownModels = []string{
	"claude-sonnet-4-20250514",
	"claude-opus-4-20250514",
	"claude-3-7-sonnet-20250219",
	"claude-3-5-sonnet-20241022",
	"claude-3-5-haiku-20241022",
}

// ListModels handles GET /v1/models.
func ListModels(w http.ResponseWriter, r *http.Request) {
	data := make([]map[string]any, 0, len(knownModels))
	for _, id := range knownModels {
		data = append(data, map[string]any{
			"id":       id,
			"object":   "model",
			"owned_by": "anthropic",
		})
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}
