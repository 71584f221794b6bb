package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/ports"
)

// BackendResolver picks the backend variant for a provider snapshot.
type BackendResolver interface {
	Resolve(cfg domain.ProviderConfig) (ports.Backend, error)
}

// AnalyzerDeps wires the driven adapters used to answer scoring messages.
type AnalyzerDeps struct {
	Settings ports.SettingsStore
	Backends BackendResolver
	Logger   *slog.Logger
}

// Analyzer routes analyzeFastBatch messages to the configured backend.
// Provider settings are read once per message and frozen for that cycle.
type Analyzer struct {
	settings ports.SettingsStore
	backends BackendResolver
	logger   *slog.Logger
}

var _ ports.BatchAnalyzer = (*Analyzer)(nil)

// NewAnalyzer constructs the message router.
func NewAnalyzer(deps AnalyzerDeps) *Analyzer {
	return &Analyzer{
		settings: deps.Settings,
		backends: deps.Backends,
		logger:   deps.Logger,
	}
}

// AnalyzeBatch never retries; the transport below it already did.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, req domain.BatchRequest) domain.BatchResponse {
	results, err := a.analyze(ctx, req)
	if err != nil {
		a.logError("analyze batch failed", "items", len(req.Items), "error", err)
		return domain.BatchResponse{Error: domain.ErrorCode(err)}
	}
	return domain.BatchResponse{Results: results}
}

func (a *Analyzer) analyze(ctx context.Context, req domain.BatchRequest) ([]domain.ScoreResult, error) {
	if req.Action != domain.ActionAnalyzeFastBatch {
		return nil, fmt.Errorf("unsupported action %q", req.Action)
	}
	if a.settings == nil || a.backends == nil {
		return nil, fmt.Errorf("analyzer is not configured")
	}

	values, err := a.settings.Load(ctx, domain.SettingKeys...)
	if err != nil {
		return nil, err
	}
	cfg := domain.ProviderConfigFromSettings(values)

	backend, err := a.backends.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	a.debug("dispatch batch", "provider", cfg.Provider, "items", len(req.Items))
	return backend.Score(ctx, req.Query, req.Items)
}

func (a *Analyzer) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Analyzer) logError(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Error(msg, args...)
	}
}
