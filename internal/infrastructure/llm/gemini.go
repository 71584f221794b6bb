package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/infrastructure/transport"
	"SearchScorer/internal/ports"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.5-flash"
)

// GeminiOptions carries deployment defaults for the Gemini variant.
type GeminiOptions struct {
	BaseURL   string
	Model     string
	TextLimit int
}

// GeminiBackend sends every item of a chunk inside one generateContent prompt.
type GeminiBackend struct {
	sender    Sender
	apiKey    string
	endpoint  string
	textLimit int
}

var _ ports.Backend = (*GeminiBackend)(nil)

// NewGeminiBackend fails with domain.ErrMissingCredential when no key is set.
func NewGeminiBackend(cfg domain.ProviderConfig, opts GeminiOptions, sender Sender) (*GeminiBackend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: %w", domain.ErrMissingCredential)
	}

	baseURL := strings.TrimSuffix(firstNonEmpty(opts.BaseURL, defaultGeminiBaseURL), "/")
	model := firstNonEmpty(cfg.Model, opts.Model, defaultGeminiModel)

	return &GeminiBackend{
		sender:    sender,
		apiKey:    cfg.APIKey,
		endpoint:  fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, model),
		textLimit: textLimitOr(opts.TextLimit),
	}, nil
}

// Score implements ports.Backend.
func (g *GeminiBackend) Score(ctx context.Context, query string, items []domain.ScoreItem) ([]domain.ScoreResult, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: buildPrompt(query, items, g.textLimit)}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini payload: %w", err)
	}

	resp, err := g.sender.Send(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    g.endpoint + "?key=" + url.QueryEscape(g.apiKey),
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	if err := upstreamFailure(resp); err != nil {
		return nil, err
	}

	var decoded geminiResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode gemini response: %v", domain.ErrParse, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: gemini response has no candidates", domain.ErrParse)
	}

	return ParseResults(decoded.Candidates[0].Content.Parts[0].Text)
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func textLimitOr(limit int) int {
	if limit <= 0 {
		return DefaultTextLimit
	}
	return limit
}
