package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message represents a single turn in a conversation. Content is always plain
// text: multimodal content-part arrays are flattened to one string when the
// message is decoded, so no later stage has to care about part lists.
type Message struct {
	Role    MessageRole `json:"role" validate:"required,oneof=system user assistant"`
	Content string      `json:"content"`
	Name    string      `json:"name,omitempty"`
}

// contentPart is one element of an OpenAI content-part array.
type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

// UnmarshalJSON accepts both the plain-string content form and the
// content-part array form. Part arrays are concatenated into a single text
// string; non-text parts become placeholders.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    MessageRole     `json:"role"`
		Content json.RawMessage `json:"content"`
		Name    string          `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Role = raw.Role
	m.Name = raw.Name

	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		m.Content = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(raw.Content, &s); err == nil {
		m.Content = s
		return nil
	}

	var parts []contentPart
	if err := json.Unmarshal(raw.Content, &parts); err != nil {
		return fmt.Errorf("message content must be a string or content-part array: %w", err)
	}

	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case "text":
			texts = append(texts, p.Text)
		case "image_url":
			texts = append(texts, "[Image: Content not supported by Claude Code]")
		}
	}
	m.Content = strings.Join(texts, "\n")
	return nil
}
