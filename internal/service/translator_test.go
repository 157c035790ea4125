package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorlabs/claude-gateway/internal/claude"
	"github.com/mirrorlabs/claude-gateway/internal/domain"
)

func assistantEvent(blocks ...claude.ContentBlock) claude.Event {
	return claude.Event{Kind: claude.EventAssistant, Content: blocks}
}

func textBlock(text string) claude.ContentBlock {
	return claude.ContentBlock{Type: "text", Text: text}
}

// run feeds events and finishes, returning every chunk in emission order.
func run(tr *Translator, events ...claude.Event) []*domain.ChatCompletionStreamResponse {
	var chunks []*domain.ChatCompletionStreamResponse
	for _, ev := range events {
		chunks = append(chunks, tr.Feed(ev)...)
	}
	return append(chunks, tr.Finish()...)
}

func TestTranslator_Ordering(t *testing.T) {
	tr := NewTranslator("chatcmpl-test", "claude-3-5-sonnet-20241022")

	chunks := run(tr,
		claude.Event{Kind: claude.EventSystem},
		assistantEvent(textBlock("one"), textBlock("two")),
		assistantEvent(textBlock("three")),
		claude.Event{Kind: claude.EventResult},
	)

	require.Len(t, chunks, 5)

	// exactly one role chunk, first
	role := chunks[0].Choices[0]
	assert.Equal(t, "assistant", role.Delta.Role)
	require.NotNil(t, role.Delta.Content)
	assert.Empty(t, *role.Delta.Content)
	assert.Nil(t, role.FinishReason)

	// content chunks preserve arrival order
	for i, want := range []string{"one", "two", "three"} {
		choice := chunks[i+1].Choices[0]
		assert.Empty(t, choice.Delta.Role)
		require.NotNil(t, choice.Delta.Content)
		assert.Equal(t, want, *choice.Delta.Content)
		assert.Nil(t, choice.FinishReason)
	}

	// exactly one terminal chunk, last
	terminal := chunks[4].Choices[0]
	assert.Nil(t, terminal.Delta.Content)
	require.NotNil(t, terminal.FinishReason)
	assert.Equal(t, "stop", *terminal.FinishReason)
}

func TestTranslator_EmptySequenceEmitsFallback(t *testing.T) {
	tr := NewTranslator("chatcmpl-test", "m")

	chunks := run(tr)

	require.Len(t, chunks, 3)
	assert.Equal(t, "assistant", chunks[0].Choices[0].Delta.Role)
	require.NotNil(t, chunks[1].Choices[0].Delta.Content)
	assert.Equal(t, fallbackContent, *chunks[1].Choices[0].Delta.Content)
	require.NotNil(t, chunks[2].Choices[0].FinishReason)
	assert.Equal(t, "stop", *chunks[2].Choices[0].FinishReason)
}

func TestTranslator_ToolOnlyContentFallsBack(t *testing.T) {
	tr := NewTranslator("chatcmpl-test", "m")

	chunks := run(tr,
		assistantEvent(claude.ContentBlock{Type: "tool_use", Text: "Bash(ls)"}),
		assistantEvent(claude.ContentBlock{Type: "thinking", Text: "pondering"}),
	)

	// role (triggered by assistant content), fallback, terminal
	require.Len(t, chunks, 3)
	assert.Equal(t, "assistant", chunks[0].Choices[0].Delta.Role)
	assert.Equal(t, fallbackContent, *chunks[1].Choices[0].Delta.Content)
}

func TestTranslator_FiltersEmptyFragments(t *testing.T) {
	tr := NewTranslator("chatcmpl-test", "m")

	chunks := run(tr, assistantEvent(
		textBlock(""),
		textBlock("real content"),
		claude.ContentBlock{Type: "tool_use", Text: "noise"},
	))

	// role, one content, terminal -- never an empty content chunk
	require.Len(t, chunks, 3)
	assert.Equal(t, "real content", *chunks[1].Choices[0].Delta.Content)
}

func TestTranslator_FinishIsIdempotent(t *testing.T) {
	tr := NewTranslator("chatcmpl-test", "m")

	first := tr.Finish()
	require.NotEmpty(t, first)
	assert.Empty(t, tr.Finish(), "second Finish must emit nothing")
	assert.Empty(t, tr.Feed(assistantEvent(textBlock("late"))), "events after Finish must emit nothing")
}

func TestTranslator_ChunkEnvelope(t *testing.T) {
	tr := NewTranslator("chatcmpl-abc", "claude-3-5-haiku-20241022")

	chunks := run(tr, assistantEvent(textBlock("hi")))
	for _, chunk := range chunks {
		assert.Equal(t, "chatcmpl-abc", chunk.ID)
		assert.Equal(t, "chat.completion.chunk", chunk.Object)
		assert.Equal(t, "claude-3-5-haiku-20241022", chunk.Model)
		assert.NotZero(t, chunk.Created)
		require.Len(t, chunk.Choices, 1)
		assert.Equal(t, 0, chunk.Choices[0].Index)
	}
}
