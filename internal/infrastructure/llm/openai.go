package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/infrastructure/transport"
	"SearchScorer/internal/ports"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
	defaultTemperature   = 0.3
)

// OpenAIOptions carries fallbacks used when settings leave URL or model empty.
type OpenAIOptions struct {
	BaseURL     string
	Model       string
	Temperature *float64
	TextLimit   int
}

// OpenAIBackend talks to any OpenAI-compatible chat completion endpoint.
type OpenAIBackend struct {
	sender      Sender
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	textLimit   int
}

var _ ports.Backend = (*OpenAIBackend)(nil)

// NewOpenAIBackend fails with domain.ErrMissingCredential when no key is set.
func NewOpenAIBackend(cfg domain.ProviderConfig, opts OpenAIOptions, sender Sender) (*OpenAIBackend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: %w", domain.ErrMissingCredential)
	}

	baseURL := strings.TrimSuffix(firstNonEmpty(cfg.BaseURL, opts.BaseURL, defaultOpenAIBaseURL), "/")
	temperature := defaultTemperature
	if opts.Temperature != nil && *opts.Temperature >= 0 {
		temperature = *opts.Temperature
	}

	return &OpenAIBackend{
		sender:      sender,
		endpoint:    baseURL + "/chat/completions",
		model:       firstNonEmpty(cfg.Model, opts.Model, defaultOpenAIModel),
		apiKey:      cfg.APIKey,
		temperature: temperature,
		textLimit:   textLimitOr(opts.TextLimit),
	}, nil
}

// Score implements ports.Backend.
func (c *OpenAIBackend) Score(ctx context.Context, query string, items []domain.ScoreItem) ([]domain.ScoreResult, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserMessage(query, items, c.textLimit)},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat payload: %w", err)
	}

	resp, err := c.sender.Send(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.endpoint,
		Header: http.Header{
			"Authorization": []string{"Bearer " + c.apiKey},
			"Content-Type":  []string{"application/json"},
		},
		Body: body,
	})
	if err != nil {
		return nil, err
	}
	if err := upstreamFailure(resp); err != nil {
		return nil, err
	}

	var decoded chatResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode chat response: %v", domain.ErrParse, err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("%w: chat response has no choices", domain.ErrParse)
	}

	return ParseResults(decoded.Choices[0].Message.Content)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
