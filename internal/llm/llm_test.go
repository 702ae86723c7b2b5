package llm

import (
	"os"
	"testing"
)

func TestAnthropicBuildRequestSeparatesSystem(t *testing.T) {
	p := NewAnthropicProvider("key", "claude-sonnet-4")

	req := p.buildRequest(CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleSystem, Content: "be kind"},
			{Role: RoleUser, Content: "hello"},
		},
	}, false)

	if req.System != "be brief\n\nbe kind" {
		t.Errorf("unexpected system prompt: %q", req.System)
	}
	if len(req.Messages) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != "user" {
		t.Errorf("unexpected role: %s", req.Messages[0].Role)
	}
	if req.MaxTokens != 4096 {
		t.Errorf("expected default max tokens 4096, got %d", req.MaxTokens)
	}
}

func TestAnthropicBuildRequestImageBlocks(t *testing.T) {
	p := NewAnthropicProvider("key", "claude-sonnet-4")

	req := p.buildRequest(CompletionRequest{
		Messages: []Message{
			{
				Role:    RoleUser,
				Content: "what is this?",
				Images:  []ImageBlock{{MediaType: "image/png", Data: "aGk="}},
			},
		},
	}, false)

	blocks := req.Messages[0].Content
	if len(blocks) != 2 {
		t.Fatalf("expected image+text blocks, got %d", len(blocks))
	}
	if blocks[0].Type != "image" || blocks[0].Source.MediaType != "image/png" {
		t.Errorf("unexpected image block: %+v", blocks[0])
	}
	if blocks[1].Type != "text" || blocks[1].Text != "what is this?" {
		t.Errorf("unexpected text block: %+v", blocks[1])
	}
}

func TestOpenAIBuildRequestMultiContent(t *testing.T) {
	p := NewOpenAIProvider("key", "gpt-4o")

	req := p.buildRequest(CompletionRequest{
		Messages: []Message{
			{
				Role:    RoleUser,
				Content: "describe",
				Images:  []ImageBlock{{MediaType: "image/jpeg", Data: "aGk="}},
			},
		},
	}, true)

	if !req.Stream {
		t.Error("expected stream flag set")
	}
	parts := req.Messages[0].MultiContent
	if len(parts) != 2 {
		t.Fatalf("expected 2 content parts, got %d", len(parts))
	}
	if parts[0].ImageURL == nil || parts[0].ImageURL.URL != "data:image/jpeg;base64,aGk=" {
		t.Errorf("unexpected image part: %+v", parts[0])
	}
}

func TestNewProviderUnsupported(t *testing.T) {
	if _, err := NewProvider("watson", "m"); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestNewProviderOllamaDefaults(t *testing.T) {
	os.Unsetenv("OLLAMA_HOST")
	p, err := NewProvider("ollama", "llama3")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("unexpected provider name: %s", p.Name())
	}
}
