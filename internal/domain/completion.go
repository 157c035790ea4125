package domain

import "time"

// ChatCompletionRequest mirrors the OpenAI chat-completion request body plus
// the gateway extensions: session_id for server-side conversation history and
// enable_tools to let the worker use its coding tools for the request.
//
// The sampling parameters (temperature, top_p, ...) are accepted for client
// compatibility but the worker does not support them; they are ignored.
type ChatCompletionRequest struct {
	Model    string    `json:"model" validate:"required"`
	Messages []Message `json:"messages" validate:"required,min=1,dive"`
	Stream   bool      `json:"stream"`

	SessionID   string `json:"session_id,omitempty"`
	EnableTools bool   `json:"enable_tools,omitempty"`

	Temperature      *float64           `json:"temperature,omitempty"`
	TopP             *float64           `json:"top_p,omitempty"`
	N                *int               `json:"n,omitempty"`
	Stop             any                `json:"stop,omitempty"`
	MaxTokens        *int               `json:"max_tokens,omitempty"`
	PresencePenalty  *float64           `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64           `json:"frequency_penalty,omitempty"`
	LogitBias        map[string]float64 `json:"logit_bias,omitempty"`
	User             string             `json:"user,omitempty"`
}

// Choice is one completion alternative in a non-streaming response.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Usage carries estimated token counts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the non-streaming response body.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// NewChatCompletionResponse builds an empty non-streaming response envelope.
func NewChatCompletionResponse(id, model string) *ChatCompletionResponse {
	return &ChatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
	}
}

// Delta is the incremental payload of a streaming choice. Role is set on the
// first chunk only; Content on content chunks. The terminal chunk carries
// neither, just a finish reason on its choice.
type Delta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// StreamChoice is one choice of a streaming chunk.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// ChatCompletionStreamResponse is a single SSE data frame of a streaming
// completion.
type ChatCompletionStreamResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
}

// NewStreamResponse builds a chunk envelope with a single choice.
func NewStreamResponse(id, model string, choice StreamChoice) *ChatCompletionStreamResponse {
	return &ChatCompletionStreamResponse{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []StreamChoice{choice},
	}
}

// ErrorDetail is the inner object of an OpenAI-style error envelope.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse is the OpenAI-style error envelope returned by every endpoint
// and embedded in error-shaped stream chunks.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
