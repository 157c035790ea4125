package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mirrorlabs/claude-gateway/internal/claude"
	"github.com/mirrorlabs/claude-gateway/internal/domain"
	"github.com/mirrorlabs/claude-gateway/internal/repository/memory"
)

// CompletionRunner abstracts the worker launcher so the pipeline can be
// tested without spawning processes.
type CompletionRunner interface {
	RunCompletion(ctx context.Context, req claude.CompletionRequest) (claude.Stream, error)
}

// StreamSink receives one wire chunk at a time. Returning an error aborts the
// stream (the client is gone); the sink is called strictly in emission order
// and never after the pipeline returns.
type StreamSink func(chunk any) error

// ToolOptions controls the worker's tool access for tool-enabled requests.
type ToolOptions struct {
	MaxTurns        int
	AllowedTools    []string
	DisallowedTools []string
}

// allTools is the disallow list applied when a request does not opt into
// tools, matching the OpenAI-like default of a plain text answer.
var allTools = []string{"Bash", "Read", "Write", "Edit", "Glob", "Grep", "WebFetch", "WebSearch", "Task"}

// CompletionService orchestrates one chat completion: merges request
// messages into the session store, builds the worker prompt, drives the
// worker, and appends the assistant reply back into the session. It is the
// only component that mutates session history from request handling.
type CompletionService struct {
	runner CompletionRunner
	store  *memory.SessionStore
	tools  ToolOptions
}

// NewCompletionService wires the pipeline.
func NewCompletionService(runner CompletionRunner, store *memory.SessionStore, tools ToolOptions) *CompletionService {
	if tools.MaxTurns <= 0 {
		tools.MaxTurns = 10
	}
	return &CompletionService{runner: runner, store: store, tools: tools}
}

// Complete runs a non-streaming completion. The worker gets at most one
// attempt; timeouts and worker failures surface to the caller unretried.
func (s *CompletionService) Complete(ctx context.Context, req *domain.ChatCompletionRequest, requestID string) (*domain.ChatCompletionResponse, error) {
	prompt, systemPrompt := s.buildPrompt(req)

	stream, err := s.runner.RunCompletion(ctx, s.workerRequest(req, prompt, systemPrompt))
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var events []claude.Event
	var workerMsg string
	for ev := range stream.Events() {
		if ev.Kind == claude.EventError && workerMsg == "" {
			workerMsg = ev.ErrMsg
		}
		events = append(events, ev)
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	if workerMsg != "" {
		return nil, fmt.Errorf("claude: worker reported error: %s", workerMsg)
	}

	content := claude.AssistantText(events)
	if content == "" {
		return nil, claude.ErrEmptyResponse
	}

	s.recordAssistantReply(req.SessionID, content)

	promptTokens := claude.EstimateTokens(prompt)
	completionTokens := claude.EstimateTokens(content)

	resp := domain.NewChatCompletionResponse(requestID, req.Model)
	resp.Choices = []domain.Choice{{
		Message:      domain.Message{Role: domain.RoleAssistant, Content: content},
		FinishReason: "stop",
	}}
	resp.Usage = &domain.Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
	return resp, nil
}

// StreamCompletion runs a streaming completion, pushing chunks into sink in
// translator order. Any failure while consuming the worker becomes a single
// error-shaped chunk; the caller always terminates the wire stream afterward.
func (s *CompletionService) StreamCompletion(ctx context.Context, req *domain.ChatCompletionRequest, requestID string, sink StreamSink) {
	prompt, systemPrompt := s.buildPrompt(req)
	translator := NewTranslator(requestID, req.Model)

	stream, err := s.runner.RunCompletion(ctx, s.workerRequest(req, prompt, systemPrompt))
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to start worker")
		sink(streamError(err))
		return
	}
	defer stream.Close()

	var reply strings.Builder
	var workerMsg string
	for ev := range stream.Events() {
		if ev.Kind == claude.EventError && workerMsg == "" {
			workerMsg = ev.ErrMsg
		}
		for _, chunk := range translator.Feed(ev) {
			for _, choice := range chunk.Choices {
				if choice.Delta.Content != nil && choice.Delta.Role == "" {
					reply.WriteString(*choice.Delta.Content)
				}
			}
			if err := sink(chunk); err != nil {
				return
			}
		}
	}

	if err := stream.Err(); err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("streaming error")
		sink(streamError(err))
		return
	}
	if workerMsg != "" {
		err := fmt.Errorf("claude: worker reported error: %s", workerMsg)
		log.Error().Err(err).Str("request_id", requestID).Msg("streaming error")
		sink(streamError(err))
		return
	}

	for _, chunk := range translator.Finish() {
		if err := sink(chunk); err != nil {
			return
		}
	}

	if reply.Len() > 0 {
		s.recordAssistantReply(req.SessionID, reply.String())
	}
}

// buildPrompt merges session history when a session id is present and
// flattens the conversation into a filtered worker prompt.
func (s *CompletionService) buildPrompt(req *domain.ChatCompletionRequest) (prompt, systemPrompt string) {
	messages := req.Messages
	if req.SessionID != "" {
		s.store.GetOrCreate(req.SessionID)
		s.store.AppendMessages(req.SessionID, req.Messages)
		if history, ok := s.store.History(req.SessionID); ok {
			messages = history
		}
		log.Info().
			Str("session_id", req.SessionID).
			Int("new_messages", len(req.Messages)).
			Int("total_messages", len(messages)).
			Msg("processing session request")
	}

	prompt, systemPrompt = claude.MessagesToPrompt(messages)
	prompt = claude.FilterContent(prompt)
	if systemPrompt != "" {
		systemPrompt = claude.FilterContent(systemPrompt)
	}
	return prompt, systemPrompt
}

func (s *CompletionService) workerRequest(req *domain.ChatCompletionRequest, prompt, systemPrompt string) claude.CompletionRequest {
	wr := claude.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Model:        req.Model,
	}
	if req.EnableTools {
		wr.MaxTurns = s.tools.MaxTurns
		wr.AllowedTools = s.tools.AllowedTools
		wr.DisallowedTools = s.tools.DisallowedTools
	} else {
		wr.MaxTurns = 1
		wr.DisallowedTools = allTools
	}
	return wr
}

// recordAssistantReply appends the synthesized assistant message back into
// the session, the second half of the pipeline's read-modify-append sequence.
func (s *CompletionService) recordAssistantReply(sessionID, content string) {
	if sessionID == "" {
		return
	}
	s.store.AppendMessages(sessionID, []domain.Message{{
		Role:    domain.RoleAssistant,
		Content: content,
	}})
	log.Info().Str("session_id", sessionID).Msg("added assistant response to session")
}

// streamError shapes a pipeline failure as the single error chunk that
// terminates an SSE stream.
func streamError(err error) *domain.ErrorResponse {
	detail := domain.ErrorDetail{
		Message: err.Error(),
		Type:    "streaming_error",
	}

	var workerErr *claude.WorkerError
	switch {
	case errors.Is(err, claude.ErrWorkerTimeout):
		detail.Code = "worker_timeout"
	case errors.As(err, &workerErr):
		detail.Code = "worker_failure"
	}
	return &domain.ErrorResponse{Error: detail}
}
