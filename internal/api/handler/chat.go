package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mirrorlabs/claude-gateway/internal/api/response"
	"github.com/mirrorlabs/claude-gateway/internal/claude"
	"github.com/mirrorlabs/claude-gateway/internal/domain"
	"github.com/mirrorlabs/claude-gateway/internal/service"
)

var validate = validator.New()

// Completer is the slice of the completion service the chat handler uses.
type Completer interface {
	Complete(ctx context.Context, req *domain.ChatCompletionRequest, requestID string) (*domain.ChatCompletionResponse, error)
	StreamCompletion(ctx context.Context, req *domain.ChatCompletionRequest, requestID string, sink service.StreamSink)
}

// ChatHandler serves the OpenAI-compatible chat completion endpoint.
type ChatHandler struct {
	completer Completer
}

// NewChatHandler creates a chat handler.
func NewChatHandler(completer Completer) *ChatHandler {
	return &ChatHandler{completer: completer}
}

// Completions handles POST /v1/chat/completions in both streaming and
// non-streaming modes.
func (h *ChatHandler) Completions(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body: "+err.Error())
		return
	}

	if err := validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			e := validationErrors[0]
			response.BadRequest(w, fmt.Sprintf("field %q failed validation on %q", e.Field(), e.Tag()))
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	requestID := newRequestID()

	if req.Stream {
		h.streamCompletion(w, r, &req, requestID)
		return
	}

	resp, err := h.completer.Complete(r.Context(), &req, requestID)
	if err != nil {
		writeCompletionError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) streamCompletion(w http.ResponseWriter, r *http.Request, req *domain.ChatCompletionRequest, requestID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := func(chunk any) error {
		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	h.completer.StreamCompletion(r.Context(), req, requestID, sink)

	// always terminate the SSE stream, including after an error chunk
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeCompletionError(w http.ResponseWriter, err error) {
	var workerErr *claude.WorkerError
	switch {
	case errors.Is(err, claude.ErrEmptyResponse):
		response.InternalError(w, "No response from Claude Code")
	case errors.Is(err, claude.ErrWorkerTimeout):
		response.Error(w, http.StatusGatewayTimeout, err.Error(), "api_error")
	case errors.As(err, &workerErr):
		response.Error(w, http.StatusBadGateway, err.Error(), "api_error")
	default:
		log.Error().Err(err).Msg("chat completion error")
		response.InternalError(w, err.Error())
	}
}

func newRequestID() string {
	u := uuid.New()
	return fmt.Sprintf("chatcmpl-%x", u[0:8])
}
