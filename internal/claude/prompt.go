package claude

import (
	"regexp"
	"strings"

	"github.com/mirrorlabs/claude-gateway/internal/domain"
)

var imagePattern = regexp.MustCompile(`\[Image:.*?\]|data:image/[^;]*;base64,[^\s]*`)

// MessagesToPrompt flattens an OpenAI conversation into the worker's prompt
// format. The last system message becomes the system prompt; user and
// assistant turns are rendered as Human/Assistant blocks. A conversation that
// does not end on a user turn gets a continuation prompt appended so the
// worker always has something to answer.
func MessagesToPrompt(messages []domain.Message) (prompt, systemPrompt string) {
	var parts []string
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			systemPrompt = msg.Content
		case domain.RoleUser:
			parts = append(parts, "Human: "+msg.Content)
		case domain.RoleAssistant:
			parts = append(parts, "Assistant: "+msg.Content)
		}
	}

	prompt = strings.Join(parts, "\n\n")
	if len(messages) > 0 && messages[len(messages)-1].Role != domain.RoleUser {
		prompt += "\n\nHuman: Please continue."
	}
	return prompt, systemPrompt
}

// FilterContent replaces image references and inline base64 image data with a
// text placeholder, since the worker cannot consume them.
func FilterContent(content string) string {
	return imagePattern.ReplaceAllString(content, "[Image: Content not supported by Claude Code]")
}

// EstimateTokens approximates a token count with the ~4 characters per token
// rule of thumb.
func EstimateTokens(text string) int {
	return len(text) / 4
}
