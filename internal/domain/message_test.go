package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorlabs/claude-gateway/internal/domain"
)

func TestMessage_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantRole    domain.MessageRole
		wantContent string
		wantErr     bool
	}{
		{
			name:        "plain string content",
			input:       `{"role":"user","content":"hello"}`,
			wantRole:    domain.RoleUser,
			wantContent: "hello",
		},
		{
			name:        "null content",
			input:       `{"role":"assistant","content":null}`,
			wantRole:    domain.RoleAssistant,
			wantContent: "",
		},
		{
			name:        "missing content",
			input:       `{"role":"assistant"}`,
			wantRole:    domain.RoleAssistant,
			wantContent: "",
		},
		{
			name:        "text parts are joined",
			input:       `{"role":"user","content":[{"type":"text","text":"first"},{"type":"text","text":"second"}]}`,
			wantRole:    domain.RoleUser,
			wantContent: "first\nsecond",
		},
		{
			name:        "image part becomes placeholder",
			input:       `{"role":"user","content":[{"type":"text","text":"look at this"},{"type":"image_url","image_url":{"url":"https://example.com/cat.png"}}]}`,
			wantRole:    domain.RoleUser,
			wantContent: "look at this\n[Image: Content not supported by Claude Code]",
		},
		{
			name:        "unknown part types are dropped",
			input:       `{"role":"user","content":[{"type":"input_audio"},{"type":"text","text":"kept"}]}`,
			wantRole:    domain.RoleUser,
			wantContent: "kept",
		},
		{
			name:    "numeric content rejected",
			input:   `{"role":"user","content":42}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg domain.Message
			err := json.Unmarshal([]byte(tt.input), &msg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, msg.Role)
			assert.Equal(t, tt.wantContent, msg.Content)
		})
	}
}

func TestMessage_PreservesName(t *testing.T) {
	var msg domain.Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"hi","name":"bob"}`), &msg))
	assert.Equal(t, "bob", msg.Name)
}
