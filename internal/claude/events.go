package claude

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EventKind tags a normalized worker event.
type EventKind string

const (
	// EventAssistant carries content blocks of an assistant turn.
	EventAssistant EventKind = "assistant"
	// EventResult is the worker's end-of-run summary record.
	EventResult EventKind = "result"
	// EventSystem is the worker's init/system record.
	EventSystem EventKind = "system"
	// EventError is an error surfaced inside the worker's own stream.
	EventError EventKind = "error"
	// EventUnknown is any record the gateway does not consume. It is kept in
	// the stream so consumers can count or log it, but carries no content.
	EventUnknown EventKind = "unknown"
)

// ContentBlock is one fragment of an assistant turn. Only text blocks reach
// the client; tool_use and thinking blocks are filtered downstream.
type ContentBlock struct {
	Type string
	Text string
}

// Metadata collects run information from result and system/init records.
type Metadata struct {
	SessionID    string
	Model        string
	TotalCostUSD float64
	DurationMS   int64
	NumTurns     int
}

// Event is one normalized record from the worker's output stream. The worker
// has shipped two record shapes over time (a bare content list and a nested
// type/message form); both are folded into this one representation at parse
// time so nothing downstream branches on shape.
type Event struct {
	Kind    EventKind
	Content []ContentBlock
	Meta    Metadata
	ErrMsg  string
}

// HasAssistantContent reports whether the event carries any assistant blocks.
func (e Event) HasAssistantContent() bool {
	return e.Kind == EventAssistant && len(e.Content) > 0
}

// rawRecord is the union of every field the two worker output shapes use.
type rawRecord struct {
	Type    string          `json:"type"`
	Subtype string          `json:"subtype"`
	Content json.RawMessage `json:"content"`
	Message *struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
	Data *struct {
		SessionID string `json:"session_id"`
		Model     string `json:"model"`
	} `json:"data"`
	SessionID    string  `json:"session_id"`
	Model        string  `json:"model"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	DurationMS   int64   `json:"duration_ms"`
	NumTurns     int     `json:"num_turns"`
	IsError      bool    `json:"is_error"`
	ErrorMessage string  `json:"error_message"`
}

// parseEvent parses one complete JSON record and normalizes it. A parse error
// means the bytes do not yet form a full record, not that the stream is bad.
func parseEvent(data []byte) (Event, error) {
	var rec rawRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Event{}, err
	}

	switch {
	case rec.IsError || rec.Subtype == "error_during_execution":
		msg := rec.ErrorMessage
		if msg == "" {
			msg = "worker reported an error"
		}
		return Event{Kind: EventError, ErrMsg: msg}, nil

	case rec.Type == "assistant" && rec.Message != nil:
		// legacy shape: {"type":"assistant","message":{"content":[...]}}
		return Event{Kind: EventAssistant, Content: parseBlocks(rec.Message.Content)}, nil

	case len(rec.Content) > 0 && rec.Content[0] == '[':
		// current SDK shape: content list at the top level
		return Event{Kind: EventAssistant, Content: parseBlocks(rec.Content)}, nil

	case rec.Type == "system" && rec.Subtype == "init":
		return Event{Kind: EventSystem, Meta: Metadata{SessionID: rec.SessionID, Model: rec.Model}}, nil

	case rec.Subtype == "init" && rec.Data != nil:
		return Event{Kind: EventSystem, Meta: Metadata{SessionID: rec.Data.SessionID, Model: rec.Data.Model}}, nil

	case rec.Type == "result" || rec.Subtype == "success":
		return Event{Kind: EventResult, Meta: Metadata{
			SessionID:    rec.SessionID,
			TotalCostUSD: rec.TotalCostUSD,
			DurationMS:   rec.DurationMS,
			NumTurns:     rec.NumTurns,
		}}, nil
	}

	return Event{Kind: EventUnknown}, nil
}

// parseBlocks decodes a content list. Blocks may be objects with a type tag
// or, in old worker builds, bare strings; both become ContentBlocks.
func parseBlocks(raw json.RawMessage) []ContentBlock {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		// plain string content
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return []ContentBlock{{Type: "text", Text: s}}
		}
		return nil
	}

	blocks := make([]ContentBlock, 0, len(items))
	for _, item := range items {
		var obj struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Type != "" {
			blocks = append(blocks, ContentBlock{Type: obj.Type, Text: obj.Text})
			continue
		}
		var s string
		if json.Unmarshal(item, &s) == nil {
			blocks = append(blocks, ContentBlock{Type: "text", Text: s})
		}
	}
	return blocks
}

// lineParser reassembles JSON records from the worker's stdout. Each line is
// first tried as a complete record; a line that does not parse joins the
// accumulation buffer and the whole buffer is retried, which handles records
// split across line boundaries. Residual buffered bytes at end of stream are
// dropped without error.
type lineParser struct {
	buf bytes.Buffer
}

// Feed consumes one stdout line and returns a normalized event once a
// complete record has formed.
func (p *lineParser) Feed(line []byte) (Event, bool) {
	if ev, err := parseEvent(line); err == nil {
		p.buf.Reset()
		return ev, true
	}

	p.buf.Write(line)
	if ev, err := parseEvent(p.buf.Bytes()); err == nil {
		p.buf.Reset()
		return ev, true
	}
	return Event{}, false
}

// AssistantText aggregates every text fragment of a finished event sequence
// into one string, newline-joined, applying the same text-only filtering the
// streaming path uses. Returns "" when no usable content exists.
func AssistantText(events []Event) string {
	var parts []string
	for _, ev := range events {
		if ev.Kind != EventAssistant {
			continue
		}
		for _, block := range ev.Content {
			if block.Type == "text" && block.Text != "" {
				parts = append(parts, block.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// ExtractMetadata folds the metadata of a finished event sequence, preferring
// the result record's run counters and the init record's model.
func ExtractMetadata(events []Event) Metadata {
	var meta Metadata
	for _, ev := range events {
		switch ev.Kind {
		case EventSystem:
			if ev.Meta.SessionID != "" {
				meta.SessionID = ev.Meta.SessionID
			}
			if ev.Meta.Model != "" {
				meta.Model = ev.Meta.Model
			}
		case EventResult:
			if ev.Meta.SessionID != "" {
				meta.SessionID = ev.Meta.SessionID
			}
			meta.TotalCostUSD = ev.Meta.TotalCostUSD
			meta.DurationMS = ev.Meta.DurationMS
			meta.NumTurns = ev.Meta.NumTurns
		}
	}
	return meta
}
