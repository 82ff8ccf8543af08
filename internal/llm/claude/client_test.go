package claude

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/linnemanlabs/herald/internal/actions"
	"github.com/linnemanlabs/herald/internal/triage"
)

func TestToSDKMessages_TextBlock(t *testing.T) {
	t.Parallel()

	msgs := []triage.Message{{
		Role:    "user",
		Content: []triage.ContentBlock{{Type: "text", Text: "hello"}},
	}}

	result := toSDKMessages(msgs)

	if len(result) != 1 {
		t.Fatalf("len = %d, want 1", len(result))
	}
	if result[0].Role != "user" {
		t.Errorf("role = %q, want %q", result[0].Role, "user")
	}
	if len(result[0].Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(result[0].Content))
	}
	if result[0].Content[0].OfText == nil {
		t.Fatal("expected OfText to be set")
	}
	if result[0].Content[0].OfText.Text != "hello" {
		t.Errorf("text = %q, want %q", result[0].Content[0].OfText.Text, "hello")
	}
}

func TestToSDKMessages_ToolUseBlock(t *testing.T) {
	t.Parallel()

	msgs := []triage.Message{{
		Role: "assistant",
		Content: []triage.ContentBlock{{
			Type:  "tool_use",
			ID:    "tu-1",
			Name:  "respond_draft",
			Input: json.RawMessage(`{"content":"on it"}`),
		}},
	}}

	result := toSDKMessages(msgs)

	block := result[0].Content[0]
	if block.OfToolUse == nil {
		t.Fatal("expected OfToolUse to be set")
	}
	if block.OfToolUse.ID != "tu-1" {
		t.Errorf("ID = %q, want %q", block.OfToolUse.ID, "tu-1")
	}
	if block.OfToolUse.Name != "respond_draft" {
		t.Errorf("Name = %q, want %q", block.OfToolUse.Name, "respond_draft")
	}
}

func TestToSDKMessages_ToolResultBlock(t *testing.T) {
	t.Parallel()

	msgs := []triage.Message{{
		Role: "user",
		Content: []triage.ContentBlock{{
			Type:      "tool_result",
			ToolUseID: "tu-1",
			Content:   "draft rejected: too long",
			IsError:   true,
		}},
	}}

	result := toSDKMessages(msgs)

	block := result[0].Content[0]
	if block.OfToolResult == nil {
		t.Fatal("expected OfToolResult to be set")
	}
	if block.OfToolResult.ToolUseID != "tu-1" {
		t.Errorf("ToolUseID = %q, want %q", block.OfToolResult.ToolUseID, "tu-1")
	}
	if !block.OfToolResult.IsError.Valid() || !block.OfToolResult.IsError.Value {
		t.Error("expected IsError to be true")
	}
}

func TestToSDKMessages_MixedBlocks(t *testing.T) {
	t.Parallel()

	msgs := []triage.Message{{
		Role: "assistant",
		Content: []triage.ContentBlock{
			{Type: "text", Text: "drafting a reply"},
			{Type: "tool_use", ID: "tu-2", Name: "respond_draft", Input: json.RawMessage(`{}`)},
		},
	}}

	result := toSDKMessages(msgs)

	if len(result[0].Content) != 2 {
		t.Fatalf("content len = %d, want 2", len(result[0].Content))
	}
	if result[0].Content[0].OfText == nil {
		t.Error("first block should be text")
	}
	if result[0].Content[1].OfToolUse == nil {
		t.Error("second block should be tool_use")
	}
}

func TestToSDKTools(t *testing.T) {
	t.Parallel()

	defs := []actions.ActionDef{{
		Name:        "new_draft",
		Description: "compose a new email",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"content":{"type":"string"}},"required":["content"]}`),
	}}

	result := toSDKTools(defs)

	if len(result) != 1 {
		t.Fatalf("len = %d, want 1", len(result))
	}
	if result[0].OfTool == nil {
		t.Fatal("expected OfTool to be set")
	}
	if result[0].OfTool.Name != "new_draft" {
		t.Errorf("name = %q, want %q", result[0].OfTool.Name, "new_draft")
	}
	if !result[0].OfTool.Description.Valid() || result[0].OfTool.Description.Value != "compose a new email" {
		t.Errorf("description = %v, want %q", result[0].OfTool.Description, "compose a new email")
	}
	if len(result[0].OfTool.InputSchema.Required) != 1 || result[0].OfTool.InputSchema.Required[0] != "content" {
		t.Errorf("required = %v, want [content]", result[0].OfTool.InputSchema.Required)
	}
}

func TestFromSDKResponse_TextContent(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: `{"logic": "newsletter", "response": "no"}`},
		},
		StopReason: anthropic.StopReasonEndTurn,
		Usage:      anthropic.Usage{InputTokens: 100, OutputTokens: 50},
	}

	result := fromSDKResponse(msg)

	if len(result.Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(result.Content))
	}
	if result.Content[0].Type != "text" {
		t.Errorf("type = %q, want %q", result.Content[0].Type, "text")
	}
	if result.Content[0].Text != `{"logic": "newsletter", "response": "no"}` {
		t.Errorf("text = %q", result.Content[0].Text)
	}
}

func TestFromSDKResponse_ToolUseContent(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{
				Type:  "tool_use",
				ID:    "tu-99",
				Name:  "respond_draft",
				Input: json.RawMessage(`{"content":"sounds good"}`),
			},
		},
		StopReason: anthropic.StopReasonToolUse,
		Usage:      anthropic.Usage{InputTokens: 200, OutputTokens: 100},
	}

	result := fromSDKResponse(msg)

	if len(result.Content) != 1 {
		t.Fatalf("content len = %d, want 1", len(result.Content))
	}
	if result.Content[0].Type != "tool_use" {
		t.Errorf("type = %q, want %q", result.Content[0].Type, "tool_use")
	}
	if result.Content[0].ID != "tu-99" {
		t.Errorf("id = %q, want %q", result.Content[0].ID, "tu-99")
	}
	if result.Content[0].Name != "respond_draft" {
		t.Errorf("name = %q, want %q", result.Content[0].Name, "respond_draft")
	}
}

func TestFromSDKResponse_StopReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sdk      anthropic.StopReason
		expected triage.StopReason
	}{
		{"end_turn", anthropic.StopReasonEndTurn, triage.StopEnd},
		{"tool_use", anthropic.StopReasonToolUse, triage.StopToolUse},
		{"unknown", anthropic.StopReason("max_tokens"), triage.StopReason("max_tokens")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := &anthropic.Message{
				StopReason: tt.sdk,
				Usage:      anthropic.Usage{},
			}
			result := fromSDKResponse(msg)
			if result.StopReason != tt.expected {
				t.Errorf("stop reason = %q, want %q", result.StopReason, tt.expected)
			}
		})
	}
}

func TestFromSDKResponse_Usage(t *testing.T) {
	t.Parallel()

	msg := &anthropic.Message{
		StopReason: anthropic.StopReasonEndTurn,
		Usage:      anthropic.Usage{InputTokens: 1234, OutputTokens: 567},
	}

	result := fromSDKResponse(msg)

	if result.Usage.InputTokens != 1234 {
		t.Errorf("input tokens = %d, want 1234", result.Usage.InputTokens)
	}
	if result.Usage.OutputTokens != 567 {
		t.Errorf("output tokens = %d, want 567", result.Usage.OutputTokens)
	}
}
