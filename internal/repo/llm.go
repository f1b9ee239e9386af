package repo

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/signalmesh/causegraph/internal/utils"
)

// AnthropicConfig configures the Claude-backed reasoning collaborator.
type AnthropicConfig struct {
	// APIKey overrides the ANTHROPIC_API_KEY environment variable when set.
	APIKey    string
	Model     string
	MaxTokens int64
}

// AnthropicLLM adapts the Anthropic API to the single free-text exchange the
// root-cause analyzer needs.
type AnthropicLLM struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicLLM constructs the LLM adapter.
func NewAnthropicLLM(cfg AnthropicConfig) *AnthropicLLM {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5-20250929"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	var client anthropic.Client
	if cfg.APIKey != "" {
		client = anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	} else {
		client = anthropic.NewClient()
	}

	return &AnthropicLLM{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// SendMessage sends one user message with an optional system prompt and
// returns the concatenated text of the response.
func (l *AnthropicLLM) SendMessage(ctx context.Context, message, systemPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(l.model),
		MaxTokens: l.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := l.client.Messages.New(ctx, params)
	if err != nil {
		return "", utils.NewAppError("llm.SendMessage", "anthropic API call failed", err)
	}

	var parts []string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, ""), nil
}
