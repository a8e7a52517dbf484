package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// openAI speaks the chat completions dialect shared by OpenAI, DeepSeek and most gateways
type openAI struct {
	t         *transport
	url       string
	apiKey    string
	model     string
	maxTokens int
}

func newOpenAI(cfg Config) *openAI {
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &openAI{
		t:         newTransport(cfg, ProviderOpenAI),
		url:       base + "/chat/completions",
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (p *openAI) Provider() string { return ProviderOpenAI }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *openAI) Analyze(ctx context.Context, text, sourceHint string) (Judgment, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(text, sourceHint)},
		},
		Temperature: 0.2,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return Judgment{}, fmt.Errorf("openai: marshal request: %w", err)
	}

	h := http.Header{}
	if p.apiKey != "" {
		h.Set("Authorization", "Bearer "+p.apiKey)
	}
	raw, err := p.t.post(ctx, p.url, h, body)
	if err != nil {
		return Judgment{}, fmt.Errorf("openai: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Judgment{}, fmt.Errorf("openai: %w: %v", ErrMalformed, err)
	}
	if len(resp.Choices) == 0 {
		return Judgment{}, fmt.Errorf("openai: %w: no choices", ErrMalformed)
	}
	return ParseJudgment(resp.Choices[0].Message.Content)
}
