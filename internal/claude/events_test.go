package claude

import (
	"testing"
)

func TestParseEvent_LegacyAssistantShape(t *testing.T) {
	line := `{"type":"assistant","message":{"content":[{"type":"text","text":"hello"},{"type":"tool_use","text":""}]}}`

	ev, err := parseEvent([]byte(line))
	if err != nil {
		t.Fatalf("parseEvent failed: %v", err)
	}
	if ev.Kind != EventAssistant {
		t.Fatalf("expected assistant event, got %s", ev.Kind)
	}
	if len(ev.Content) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(ev.Content))
	}
	if ev.Content[0].Type != "text" || ev.Content[0].Text != "hello" {
		t.Errorf("unexpected first block: %+v", ev.Content[0])
	}
	if ev.Content[1].Type != "tool_use" {
		t.Errorf("unexpected second block: %+v", ev.Content[1])
	}
}

func TestParseEvent_CurrentSDKShape(t *testing.T) {
	line := `{"content":[{"type":"text","text":"part one"},{"type":"thinking","text":"hmm"},"bare string"]}`

	ev, err := parseEvent([]byte(line))
	if err != nil {
		t.Fatalf("parseEvent failed: %v", err)
	}
	if ev.Kind != EventAssistant {
		t.Fatalf("expected assistant event, got %s", ev.Kind)
	}
	if len(ev.Content) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(ev.Content))
	}
	if ev.Content[2].Type != "text" || ev.Content[2].Text != "bare string" {
		t.Errorf("bare string block not normalized: %+v", ev.Content[2])
	}
}

func TestParseEvent_SystemAndResult(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind EventKind
	}{
		{
			"old system init",
			`{"type":"system","subtype":"init","session_id":"abc","model":"claude-3-5-sonnet-20241022"}`,
			EventSystem,
		},
		{
			"new system init",
			`{"subtype":"init","data":{"session_id":"abc","model":"claude-3-5-sonnet-20241022"}}`,
			EventSystem,
		},
		{
			"old result",
			`{"type":"result","total_cost_usd":0.01,"duration_ms":1200,"num_turns":1,"session_id":"abc"}`,
			EventResult,
		},
		{
			"new result",
			`{"subtype":"success","total_cost_usd":0.02,"duration_ms":900,"num_turns":2}`,
			EventResult,
		},
		{
			"error record",
			`{"type":"result","subtype":"error_during_execution","is_error":true,"error_message":"boom"}`,
			EventError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parseEvent([]byte(tt.line))
			if err != nil {
				t.Fatalf("parseEvent failed: %v", err)
			}
			if ev.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, ev.Kind)
			}
		})
	}
}

func TestLineParser_SplitRecord(t *testing.T) {
	var p lineParser

	if _, ok := p.Feed([]byte(`{"type":"resu`)); ok {
		t.Fatal("partial record must not produce an event")
	}
	ev, ok := p.Feed([]byte(`lt","num_turns":1}`))
	if !ok {
		t.Fatal("completed record must produce an event")
	}
	if ev.Kind != EventResult {
		t.Errorf("expected result event, got %s", ev.Kind)
	}
}

func TestLineParser_CompleteLinesClearBuffer(t *testing.T) {
	var p lineParser

	// noise that never completes a record
	if _, ok := p.Feed([]byte(`not json at all`)); ok {
		t.Fatal("noise must not produce an event")
	}

	// a standalone complete record still parses despite the stale buffer
	ev, ok := p.Feed([]byte(`{"type":"result","num_turns":3}`))
	if !ok {
		t.Fatal("complete record must parse")
	}
	if ev.Meta.NumTurns != 3 {
		t.Errorf("expected num_turns 3, got %d", ev.Meta.NumTurns)
	}

	// buffer was cleared by the successful parse
	ev, ok = p.Feed([]byte(`{"type":"result","num_turns":4}`))
	if !ok || ev.Meta.NumTurns != 4 {
		t.Errorf("expected clean parse after buffer reset, got %+v ok=%v", ev, ok)
	}
}

func TestAssistantText(t *testing.T) {
	events := []Event{
		{Kind: EventSystem},
		{Kind: EventAssistant, Content: []ContentBlock{
			{Type: "text", Text: "first"},
			{Type: "tool_use", Text: "ignored"},
		}},
		{Kind: EventAssistant, Content: []ContentBlock{
			{Type: "thinking", Text: "ignored"},
			{Type: "text", Text: "second"},
			{Type: "text", Text: ""},
		}},
		{Kind: EventResult},
	}

	if got := AssistantText(events); got != "first\nsecond" {
		t.Errorf("unexpected aggregate: %q", got)
	}

	if got := AssistantText(nil); got != "" {
		t.Errorf("empty sequence must aggregate to empty string, got %q", got)
	}
}

func TestExtractMetadata(t *testing.T) {
	events := []Event{
		{Kind: EventSystem, Meta: Metadata{SessionID: "sys-id", Model: "claude-3-5-haiku-20241022"}},
		{Kind: EventResult, Meta: Metadata{SessionID: "res-id", TotalCostUSD: 0.05, DurationMS: 1500, NumTurns: 2}},
	}

	meta := ExtractMetadata(events)
	if meta.SessionID != "res-id" {
		t.Errorf("result session id must win, got %q", meta.SessionID)
	}
	if meta.Model != "claude-3-5-haiku-20241022" {
		t.Errorf("model comes from the init record, got %q", meta.Model)
	}
	if meta.TotalCostUSD != 0.05 || meta.NumTurns != 2 {
		t.Errorf("unexpected run counters: %+v", meta)
	}
}
