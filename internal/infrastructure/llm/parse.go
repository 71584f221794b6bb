package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/infrastructure/transport"
)

var fenceExpr = regexp.MustCompile("(?i)```(?:json)?")

type rawResult struct {
	ID json.RawMessage `json:"id"`
	S  *float64        `json:"s"`
	R  string          `json:"r"`
}

type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// StripFences removes markdown code fences around a JSON payload.
func StripFences(text string) string {
	return strings.TrimSpace(fenceExpr.ReplaceAllString(text, ""))
}

// ParseResults decodes the `[{id, s, r?}]` contract into normalized results.
func ParseResults(text string) ([]domain.ScoreResult, error) {
	cleaned := StripFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrParse)
	}

	var raw []rawResult
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	results := make([]domain.ScoreResult, 0, len(raw))
	for i, r := range raw {
		id := decodeID(r.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: result %d has no id", domain.ErrParse, i)
		}
		if r.S == nil {
			return nil, fmt.Errorf("%w: result %s has no score", domain.ErrParse, id)
		}
		results = append(results, domain.ScoreResult{
			ID:     id,
			Score:  int(math.Max(0, math.Min(100, math.Round(*r.S)))),
			Reason: strings.TrimSpace(r.R),
		})
	}

	return results, nil
}

func decodeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

// upstreamFailure reports a structured error payload or a non-2xx status.
func upstreamFailure(resp *transport.Response) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err == nil && envelope.Error != nil {
		return &domain.UpstreamError{Status: resp.StatusCode, Message: envelope.Error.Message}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &domain.UpstreamError{Status: resp.StatusCode}
	}
	return nil
}
