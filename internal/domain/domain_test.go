package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestBucketForBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  Bucket
		icon  string
	}{
		{100, BucketHigh, "🌟"},
		{85, BucketHigh, "🌟"},
		{84, BucketMid, "👌"},
		{60, BucketMid, "👌"},
		{59, BucketLow, "🤔"},
		{30, BucketLow, "🤔"},
		{29, BucketBad, "🗑️"},
		{0, BucketBad, "🗑️"},
	}

	for _, tt := range tests {
		got := BucketFor(tt.score)
		if got != tt.want || got.Icon() != tt.icon {
			t.Fatalf("score %d: got %s %s, want %s %s", tt.score, got, got.Icon(), tt.want, tt.icon)
		}
	}
	if BucketHigh.Class() != "score-high" {
		t.Fatalf("unexpected class %q", BucketHigh.Class())
	}
}

func TestErrorCodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		code string
		kind ErrorKind
	}{
		{fmt.Errorf("wrap: %w", ErrMissingCredential), CodeNoAPIKey, ErrorNoAPIKey},
		{fmt.Errorf("wrap: %w", ErrRateLimited), CodeRateLimit, ErrorRateLimit},
		{fmt.Errorf("call: %w", &UpstreamError{Status: 500, Message: "backend exploded"}), "backend exploded", ErrorOther},
		{&UpstreamError{Status: 502}, "upstream returned status 502", ErrorOther},
		{errors.New("dial tcp: refused"), "dial tcp: refused", ErrorOther},
	}

	for _, tt := range tests {
		code := ErrorCode(tt.err)
		if code != tt.code {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tt.err, code, tt.code)
		}
		if kind := KindFromCode(code); kind != tt.kind {
			t.Fatalf("KindFromCode(%q) = %s, want %s", code, kind, tt.kind)
		}
	}
	if ErrorCode(nil) != "" {
		t.Fatalf("nil error must map to empty code")
	}
}

func TestProviderConfigFromSettings(t *testing.T) {
	t.Parallel()

	cfg := ProviderConfigFromSettings(map[string]string{SettingGeminiKey: "g", SettingOpenAIKey: "o"})
	if cfg.Provider != ProviderGemini || cfg.APIKey != "g" {
		t.Fatalf("empty provider must default to gemini: %+v", cfg)
	}

	cfg = ProviderConfigFromSettings(map[string]string{
		SettingProvider:    "local",
		SettingOpenAIKey:   "o",
		SettingOpenAIURL:   "http://localhost:11434/v1",
		SettingOpenAIModel: "llama3",
	})
	if cfg.Provider != ProviderOpenAI || cfg.APIKey != "o" || cfg.BaseURL != "http://localhost:11434/v1" || cfg.Model != "llama3" {
		t.Fatalf("non-gemini provider must select the openai variant: %+v", cfg)
	}
}

func TestBatchResponseJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(BatchResponse{Error: CodeRateLimit, Results: []ScoreResult{{ID: "1"}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"error":"RATE_LIMIT"}` {
		t.Fatalf("unexpected error envelope %s", raw)
	}

	raw, err = json.Marshal(BatchResponse{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"results":[]}` {
		t.Fatalf("unexpected empty envelope %s", raw)
	}
}

func TestClampAndTruncate(t *testing.T) {
	t.Parallel()

	if ClampScore(-5) != 0 || ClampScore(150) != 100 || ClampScore(42) != 42 {
		t.Fatalf("clamp out of range")
	}
	if got := Truncate("привет мир", 6); got != "привет" {
		t.Fatalf("truncate must count runes, got %q", got)
	}
	if got := Truncate("short", 0); got != "short" {
		t.Fatalf("zero limit must keep text, got %q", got)
	}
}
