package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"SearchScorer/internal/config"
	"SearchScorer/internal/domain"
	"SearchScorer/internal/infrastructure/scheduler"
)

// shiftedClock schedules on real timers but reports a movable "now".
type shiftedClock struct {
	scheduler.WallClock
	offset atomic.Int64
}

func (c *shiftedClock) Now() time.Time {
	return time.Now().Add(time.Duration(c.offset.Load()))
}

var promptID = regexp.MustCompile(`"id":"([^"]+)"`)

func fakeGemini(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var results []string
		for _, m := range promptID.FindAllStringSubmatch(req.Contents[0].Parts[0].Text, -1) {
			results = append(results, fmt.Sprintf(`{"id":%q,"s":90,"r":"on topic"}`, m[1]))
		}
		payload := "```json\n[" + strings.Join(results, ",") + "]\n```"

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": payload}}},
			}},
		})
	}))
}

func testConfig(baseURL string) config.Config {
	cfg := config.Config{}
	cfg.Logging.Level = "error"
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = ":memory:"
	cfg.Scheduler.ScanDelay = time.Millisecond
	cfg.Scheduler.Debounce = 5 * time.Millisecond
	cfg.Scheduler.ChunkSize = 1
	cfg.Scheduler.ChunkSpacing = time.Millisecond
	cfg.Scheduler.MinTextLength = 10
	cfg.Scheduler.TextLimit = 150
	cfg.Transport.MaxRetries = 1
	cfg.Transport.Timeout = 5 * time.Second
	cfg.Gemini.BaseURL = baseURL
	cfg.Gemini.Model = "gemini-test"
	cfg.Cache.TTL = time.Hour
	cfg.Cache.KeyLimit = 128
	cfg.Cache.Namespace = "sss_cache_"
	return cfg
}

func TestAnnotateScoresAndCaches(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := fakeGemini(t, &calls)
	defer srv.Close()

	ctx := context.Background()
	application, err := New(ctx, testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	defer application.Close()

	if err := application.SetSetting(ctx, domain.SettingGeminiKey, "test-key"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	opts := AnnotateOptions{
		PageURL: "https://www.google.com/search?q=go+generics",
		Page:    filepath.Join("..", "infrastructure", "page", "testdata", "serp.html"),
	}

	var first bytes.Buffer
	opts.Out = &first
	if err := application.Annotate(ctx, opts); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if got := strings.Count(first.String(), "score-high"); got != 3 {
		t.Fatalf("expected 3 high-score badges, got %d in %s", got, first.String())
	}
	firstCalls := atomic.LoadInt32(&calls)
	if firstCalls != 3 {
		t.Fatalf("expected 3 upstream calls with chunk size 1, got %d", firstCalls)
	}

	var second bytes.Buffer
	opts.Out = &second
	if err := application.Annotate(ctx, opts); err != nil {
		t.Fatalf("annotate again: %v", err)
	}
	// only the snippet without a link misses the cache
	if got := atomic.LoadInt32(&calls) - firstCalls; got != 1 {
		t.Fatalf("expected 1 uncached call on the second pass, got %d", got)
	}
	if got := strings.Count(second.String(), "score-high"); got != 3 {
		t.Fatalf("expected cached badges to render, got %d", got)
	}
}

func TestAnnotateExpiresCacheByClock(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := fakeGemini(t, &calls)
	defer srv.Close()

	ctx := context.Background()
	clock := &shiftedClock{}
	application, err := New(ctx, testConfig(srv.URL), nil, WithClock(clock))
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	defer application.Close()

	if err := application.SetSetting(ctx, domain.SettingGeminiKey, "test-key"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	opts := AnnotateOptions{
		PageURL: "https://www.google.com/search?q=go+generics",
		Page:    filepath.Join("..", "infrastructure", "page", "testdata", "serp.html"),
	}

	var first bytes.Buffer
	opts.Out = &first
	if err := application.Annotate(ctx, opts); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	firstCalls := atomic.LoadInt32(&calls)

	// the cache TTL in testConfig is one hour
	clock.offset.Store(int64(2 * time.Hour))

	var second bytes.Buffer
	opts.Out = &second
	if err := application.Annotate(ctx, opts); err != nil {
		t.Fatalf("annotate again: %v", err)
	}
	if got := atomic.LoadInt32(&calls) - firstCalls; got != 3 {
		t.Fatalf("expired entries must be rescored, got %d calls", got)
	}
}

func TestAnnotateWithoutKeyShowsNotice(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := fakeGemini(t, &calls)
	defer srv.Close()

	ctx := context.Background()
	application, err := New(ctx, testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	defer application.Close()

	var out bytes.Buffer
	err = application.Annotate(ctx, AnnotateOptions{
		PageURL: "https://www.google.com/search?q=go+generics",
		Page:    filepath.Join("..", "infrastructure", "page", "testdata", "serp.html"),
		Out:     &out,
	})
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("no upstream call expected without a key")
	}
	if !strings.Contains(out.String(), "API key not configured") {
		t.Fatalf("missing key notice not rendered: %s", out.String())
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	application, err := New(ctx, testConfig("http://127.0.0.1:0"), nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	defer application.Close()

	if err := application.SetSetting(ctx, domain.SettingProvider, "openai"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := application.Setting(ctx, domain.SettingProvider)
	if err != nil || got != "openai" {
		t.Fatalf("setting = %q, %v", got, err)
	}
	if err := application.SetSetting(ctx, "theme", "dark"); err == nil {
		t.Fatalf("unknown keys must be rejected")
	}
}
