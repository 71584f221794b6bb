package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"SearchScorer/internal/bridge"
	"SearchScorer/internal/cache"
	"SearchScorer/internal/config"
	"SearchScorer/internal/domain"
	"SearchScorer/internal/infrastructure/llm"
	"SearchScorer/internal/infrastructure/page"
	"SearchScorer/internal/infrastructure/scheduler"
	"SearchScorer/internal/infrastructure/settings"
	"SearchScorer/internal/infrastructure/storage"
	"SearchScorer/internal/infrastructure/transport"
	"SearchScorer/internal/logging"
	"SearchScorer/internal/ports"
	"SearchScorer/internal/provider"
	"SearchScorer/internal/render"
	"SearchScorer/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    storage.Store
	settings *settings.Store
	cache    *cache.Cache
	analyzer *usecase.Analyzer
	clock    ports.Clock
}

// AnnotateOptions describes one offline page session.
type AnnotateOptions struct {
	PageURL   string
	Page      string
	Fragments []string
	Interval  time.Duration
	Out       io.Writer
}

// Option customises an Application.
type Option func(*Application)

// WithClock replaces the wall clock used for cache timestamps and scheduling.
func WithClock(clock ports.Clock) Option {
	return func(a *Application) {
		a.clock = clock
	}
}

// New opens storage and builds the shared scoring stack.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts ...Option) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.OpenStore(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	application := &Application{cfg: cfg, logger: baseLogger, clock: scheduler.NewWallClock()}
	for _, opt := range opts {
		opt(application)
	}

	settingsStore := settings.NewStore(store)
	scoreCache := cache.New(store, cache.Options{
		TTL:       cfg.Cache.TTL,
		KeyLimit:  cfg.Cache.KeyLimit,
		Namespace: cfg.Cache.Namespace,
		Now:       application.clock.Now,
		Logger:    baseLogger.With("component", "cache"),
	})

	client := transport.NewClient(
		transport.WithHTTPClient(&http.Client{Timeout: cfg.Transport.Timeout}),
		transport.WithMaxRetries(cfg.Transport.MaxRetries),
		transport.WithLogger(baseLogger.With("component", "transport")),
	)

	analyzer := usecase.NewAnalyzer(usecase.AnalyzerDeps{
		Settings: settingsStore,
		Backends: newRegistry(cfg, client),
		Logger:   baseLogger.With("component", "analyzer"),
	})

	application.store = store
	application.settings = settingsStore
	application.cache = scoreCache
	application.analyzer = analyzer
	return application, nil
}

func newRegistry(cfg config.Config, sender llm.Sender) *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register(domain.ProviderGemini, func(pc domain.ProviderConfig) (ports.Backend, error) {
		return llm.NewGeminiBackend(pc, llm.GeminiOptions{
			BaseURL:   cfg.Gemini.BaseURL,
			Model:     cfg.Gemini.Model,
			TextLimit: cfg.Scheduler.TextLimit,
		}, sender)
	})
	registry.Register(domain.ProviderOpenAI, func(pc domain.ProviderConfig) (ports.Backend, error) {
		return llm.NewOpenAIBackend(pc, llm.OpenAIOptions{
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			TextLimit:   cfg.Scheduler.TextLimit,
		}, sender)
	})
	return registry
}

// Close releases the storage handle.
func (a *Application) Close() error {
	return a.store.Close()
}

// Annotate runs one page session: the page and its fragments are fed through
// the scheduler, then the annotated document is written to opts.Out.
func (a *Application) Annotate(ctx context.Context, opts AnnotateOptions) error {
	file, err := os.Open(opts.Page)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer file.Close()

	doc, err := page.NewDocument(file, opts.PageURL, a.cfg.Scheduler.MinTextLength)
	if err != nil {
		return err
	}
	if doc.Query() == "" {
		a.logger.Info("page has no search query, nothing to score", "url", opts.PageURL)
	}

	feed := page.NewFileFeed(doc, opts.Fragments, opts.Interval, a.logger.With("component", "feed"))
	sched := usecase.NewScheduler(usecase.SchedulerDeps{
		Page:     doc,
		Cache:    a.cache,
		Analyzer: a.analyzer,
		Renderer: render.New(doc),
		Clock:    a.clock,
		Logger:   a.logger.With("component", "scheduler"),
		Config: usecase.SchedulerConfig{
			ScanDelay:    a.cfg.Scheduler.ScanDelay,
			Debounce:     a.cfg.Scheduler.Debounce,
			ChunkSize:    a.cfg.Scheduler.ChunkSize,
			ChunkSpacing: a.cfg.Scheduler.ChunkSpacing,
			TextLimit:    a.cfg.Scheduler.TextLimit,
		},
	})

	feed.Start(ctx)
	if err := sched.Run(ctx, feed); err != nil {
		return err
	}

	html, err := doc.HTML()
	if err != nil {
		return err
	}
	_, err = io.WriteString(opts.Out, html)
	return err
}

// Serve exposes the analyzer over HTTP until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	handler := bridge.NewHandler(a.analyzer, a.logger.With("component", "bridge"))
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("bridge listening", "addr", a.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Setting returns one configuration value.
func (a *Application) Setting(ctx context.Context, key string) (string, error) {
	values, err := a.settings.Load(ctx, key)
	if err != nil {
		return "", err
	}
	return values[key], nil
}

// SetSetting writes one configuration value.
func (a *Application) SetSetting(ctx context.Context, key, value string) error {
	return a.settings.Save(ctx, key, value)
}
