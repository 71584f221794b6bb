package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"SearchScorer/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type analyzerFunc func(ctx context.Context, req domain.BatchRequest) domain.BatchResponse

func (f analyzerFunc) AnalyzeBatch(ctx context.Context, req domain.BatchRequest) domain.BatchResponse {
	return f(ctx, req)
}

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	engine := h.Routes()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeReturnsResults(t *testing.T) {
	t.Parallel()

	var seen domain.BatchRequest
	h := NewHandler(analyzerFunc(func(_ context.Context, req domain.BatchRequest) domain.BatchResponse {
		seen = req
		return domain.BatchResponse{Results: []domain.ScoreResult{{ID: "1", Score: 88, Reason: "solid"}}}
	}), nil)

	rec := post(t, h, `{"action":"analyzeFastBatch","query":"go","items":[{"id":"1","text":"hello"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen.Query != "go" || len(seen.Items) != 1 {
		t.Fatalf("request not forwarded: %+v", seen)
	}

	var body struct {
		Results []domain.ScoreResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].Score != 88 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAnalyzeCarriesErrorEnvelope(t *testing.T) {
	t.Parallel()

	h := NewHandler(analyzerFunc(func(context.Context, domain.BatchRequest) domain.BatchResponse {
		return domain.BatchResponse{Error: domain.CodeNoAPIKey}
	}), nil)

	rec := post(t, h, `{"action":"analyzeFastBatch","items":[{"id":"1","text":"x"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"error":"NO_API_KEY"}` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAnalyzeRejectsMalformedMessages(t *testing.T) {
	t.Parallel()

	calls := 0
	h := NewHandler(analyzerFunc(func(context.Context, domain.BatchRequest) domain.BatchResponse {
		calls++
		return domain.BatchResponse{}
	}), nil)

	for _, body := range []string{`{not json`, `{"action":"somethingElse","items":[]}`} {
		rec := post(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d", body, rec.Code)
		}
	}
	if calls != 0 {
		t.Fatalf("analyzer must not be called for malformed messages")
	}
}

func TestAnalyzeRejectsOtherMethods(t *testing.T) {
	t.Parallel()

	h := NewHandler(analyzerFunc(func(context.Context, domain.BatchRequest) domain.BatchResponse {
		return domain.BatchResponse{}
	}), nil)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}
