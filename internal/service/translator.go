package service

import (
	"github.com/mirrorlabs/claude-gateway/internal/claude"
	"github.com/mirrorlabs/claude-gateway/internal/domain"
)

// fallbackContent is emitted when a run reaches the role stage but never
// produces a text fragment, so a streaming response never ends with zero
// content chunks.
const fallbackContent = "I apologize, but I was unable to generate a response. Please try again."

type translatorState int

const (
	stateNotStarted translatorState = iota
	stateRoleSent
	stateContentSent
	stateDone
)

// Translator converts normalized worker events into OpenAI streaming chunks.
// It guarantees exactly one role chunk, content chunks in arrival order, and
// exactly one terminal chunk per response, in that order.
type Translator struct {
	id    string
	model string
	state translatorState
}

// NewTranslator creates a translator for one response.
func NewTranslator(id, model string) *Translator {
	return &Translator{id: id, model: model}
}

// Feed consumes one worker event and returns the chunks it produces, if any.
// Non-assistant events and non-text fragments produce nothing.
func (t *Translator) Feed(ev claude.Event) []*domain.ChatCompletionStreamResponse {
	if t.state == stateDone || !ev.HasAssistantContent() {
		return nil
	}

	var chunks []*domain.ChatCompletionStreamResponse
	if t.state == stateNotStarted {
		chunks = append(chunks, t.roleChunk())
		t.state = stateRoleSent
	}

	for _, block := range ev.Content {
		if block.Type != "text" || block.Text == "" {
			continue
		}
		chunks = append(chunks, t.contentChunk(block.Text))
		t.state = stateContentSent
	}
	return chunks
}

// Finish runs the exhaustion logic: a role chunk if none was sent, the
// fallback content chunk if the run produced no text, and the terminal chunk.
// Calling Finish more than once returns nothing after the first call.
func (t *Translator) Finish() []*domain.ChatCompletionStreamResponse {
	if t.state == stateDone {
		return nil
	}

	var chunks []*domain.ChatCompletionStreamResponse
	if t.state == stateNotStarted {
		chunks = append(chunks, t.roleChunk())
		t.state = stateRoleSent
	}
	if t.state == stateRoleSent {
		chunks = append(chunks, t.contentChunk(fallbackContent))
	}
	chunks = append(chunks, t.terminalChunk())
	t.state = stateDone
	return chunks
}

func (t *Translator) roleChunk() *domain.ChatCompletionStreamResponse {
	empty := ""
	return domain.NewStreamResponse(t.id, t.model, domain.StreamChoice{
		Delta: domain.Delta{Role: "assistant", Content: &empty},
	})
}

func (t *Translator) contentChunk(text string) *domain.ChatCompletionStreamResponse {
	return domain.NewStreamResponse(t.id, t.model, domain.StreamChoice{
		Delta: domain.Delta{Content: &text},
	})
}

func (t *Translator) terminalChunk() *domain.ChatCompletionStreamResponse {
	reason := "stop"
	return domain.NewStreamResponse(t.id, t.model, domain.StreamChoice{
		Delta:        domain.Delta{},
		FinishReason: &reason,
	})
}
