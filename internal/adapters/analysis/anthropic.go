package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

type anthropic struct {
	t         *transport
	url       string
	apiKey    string
	model     string
	maxTokens int
}

func newAnthropic(cfg Config) *anthropic {
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = "https://api.anthropic.com"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &anthropic{
		t:         newTransport(cfg, ProviderAnthropic),
		url:       base + "/v1/messages",
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

func (p *anthropic) Provider() string { return ProviderAnthropic }

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *anthropic) Analyze(ctx context.Context, text, sourceHint string) (Judgment, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    systemPrompt,
		Messages:  []chatMessage{{Role: "user", Content: userPrompt(text, sourceHint)}},
	})
	if err != nil {
		return Judgment{}, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	h := http.Header{}
	if p.apiKey != "" {
		h.Set("X-API-Key", p.apiKey)
	}
	h.Set("Anthropic-Version", anthropicVersion)
	raw, err := p.t.post(ctx, p.url, h, body)
	if err != nil {
		return Judgment{}, fmt.Errorf("anthropic: %w", err)
	}

	var resp messagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Judgment{}, fmt.Errorf("anthropic: %w: %v", ErrMalformed, err)
	}
	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return Judgment{}, fmt.Errorf("anthropic: %w: empty content", ErrMalformed)
	}
	return ParseJudgment(sb.String())
}
