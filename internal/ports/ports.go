package ports

import (
	"context"
	"time"

	"SearchScorer/internal/domain"
)

// KVStore is the async key-value map behind settings and the score cache.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	Put(ctx context.Context, key, value string) error
}

// SettingsStore exposes the provider configuration written by the settings surface.
type SettingsStore interface {
	Load(ctx context.Context, keys ...string) (map[string]string, error)
	Save(ctx context.Context, key, value string) error
}

// ScoreCache persists prior results keyed by normalized URL.
type ScoreCache interface {
	Get(ctx context.Context, rawURL string) (domain.CacheEntry, bool, error)
	Put(ctx context.Context, rawURL string, score int, reason string) error
}

// Backend scores a batch of items against a query.
type Backend interface {
	Score(ctx context.Context, query string, items []domain.ScoreItem) ([]domain.ScoreResult, error)
}

// BatchAnalyzer answers analyzeFastBatch messages.
type BatchAnalyzer interface {
	AnalyzeBatch(ctx context.Context, req domain.BatchRequest) domain.BatchResponse
}

// Renderer turns scoring outcomes into badge mutations.
type Renderer interface {
	RenderPending(id string)
	RenderScore(id string, score int, reason string)
	RenderError(id string, kind domain.ErrorKind)
}

// Page is the mutating host document observed by the scheduler.
type Page interface {
	Query() string
	// ClaimSnippets marks unclaimed snippets as processed and attaches a badge
	// for each one the claim func accepts.
	ClaimSnippets(claim func(url string) (string, bool)) []domain.Candidate
}

// MutationSource streams page changes until it is exhausted.
type MutationSource interface {
	Mutations() <-chan domain.Mutation
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed work.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}
