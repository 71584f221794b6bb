package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"SearchScorer/internal/cache"
	"SearchScorer/internal/domain"
	"SearchScorer/internal/ports"
)

// SchedulerConfig tunes discovery and dispatch pacing.
type SchedulerConfig struct {
	ScanDelay    time.Duration
	Debounce     time.Duration
	ChunkSize    int
	ChunkSpacing time.Duration
	TextLimit    int
}

// SchedulerDeps wires the collaborators of one page session.
type SchedulerDeps struct {
	Page     ports.Page
	Cache    ports.ScoreCache
	Analyzer ports.BatchAnalyzer
	Renderer ports.Renderer
	Clock    ports.Clock
	Logger   *slog.Logger
	Config   SchedulerConfig
}

// ChunkPlan is one paced dispatch produced by a flush.
type ChunkPlan struct {
	Items []domain.ScoreItem
	Delay time.Duration
}

// Scheduler turns page mutations into paced scoring requests for one page
// session. The queue and timers are private; nothing outside mutates them.
type Scheduler struct {
	page     ports.Page
	cache    ports.ScoreCache
	analyzer ports.BatchAnalyzer
	renderer ports.Renderer
	clock    ports.Clock
	logger   *slog.Logger
	cfg      SchedulerConfig

	mu        sync.Mutex
	claimed   map[string]struct{}
	queue     []domain.ScoreItem
	debounce  ports.Timer
	scanTimer ports.Timer
	draining  bool

	// inflight counts pending timers and running dispatches.
	inflight sync.WaitGroup
}

// NewScheduler builds a scheduler for a single page session.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	cfg := deps.Config
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 5
	}

	return &Scheduler{
		page:     deps.Page,
		cache:    deps.Cache,
		analyzer: deps.Analyzer,
		renderer: deps.Renderer,
		clock:    deps.Clock,
		logger:   deps.Logger,
		cfg:      cfg,
		claimed:  map[string]struct{}{},
	}
}

// Run subscribes to the mutation stream once and processes it until the
// stream closes or ctx ends. On close the remaining queue is flushed and Run
// waits for every dispatched chunk; on cancellation outstanding work is
// abandoned.
func (s *Scheduler) Run(ctx context.Context, source ports.MutationSource) error {
	events := source.Mutations()
	for {
		select {
		case <-ctx.Done():
			s.stopTimers()
			return ctx.Err()
		case m, ok := <-events:
			if !ok {
				s.finish(ctx)
				return nil
			}
			s.debug("mutation observed", "added_nodes", m.AddedNodes)
			s.scheduleScan(ctx)
		}
	}
}

// Identity derives a candidate id: a name-based UUID of the normalized URL,
// or a random UUID when no URL is available. Random ids never match the cache
// and never deduplicate across sessions.
func Identity(rawURL string) string {
	if normalized, ok := cache.NormalizeURL(rawURL); ok {
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(normalized)).String()
	}
	return uuid.NewString()
}

// PlanChunks splits items into fixed-size chunks, delaying chunk i by spacing*i.
func PlanChunks(items []domain.ScoreItem, size int, spacing time.Duration) []ChunkPlan {
	if size <= 0 {
		size = len(items)
	}

	var plans []ChunkPlan
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		plans = append(plans, ChunkPlan{
			Items: items[start:end],
			Delay: spacing * time.Duration(len(plans)),
		})
	}
	return plans
}

func (s *Scheduler) scheduleScan(ctx context.Context) {
	if s.cfg.ScanDelay <= 0 {
		s.scan(ctx)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanTimer != nil && s.scanTimer.Stop() {
		s.inflight.Done()
	}
	s.inflight.Add(1)
	s.scanTimer = s.clock.AfterFunc(s.cfg.ScanDelay, func() {
		defer s.inflight.Done()
		s.scan(ctx)
	})
}

func (s *Scheduler) scan(ctx context.Context) {
	query := s.page.Query()
	if query == "" {
		return
	}

	candidates := s.page.ClaimSnippets(s.claim)
	if len(candidates) == 0 {
		return
	}

	fresh := make([]domain.ScoreItem, 0, len(candidates))
	for _, c := range candidates {
		s.renderer.RenderPending(c.ID)

		if c.URL != "" {
			entry, hit, err := s.cache.Get(ctx, c.URL)
			if err != nil {
				s.warn("cache lookup failed", "url", c.URL, "error", err)
			} else if hit {
				s.renderer.RenderScore(c.ID, entry.Score, entry.Reason)
				continue
			}
		}

		fresh = append(fresh, domain.ScoreItem{
			ID:           c.ID,
			URL:          c.URL,
			Text:         domain.Truncate(c.Text, s.cfg.TextLimit),
			QueryContext: query,
		})
	}

	s.debug("scan complete", "candidates", len(candidates), "queued", len(fresh))
	if len(fresh) > 0 {
		s.enqueue(ctx, fresh)
	}
}

// claim accepts an identity the first time it is seen in this session.
func (s *Scheduler) claim(rawURL string) (string, bool) {
	id := Identity(rawURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.claimed[id]; seen {
		return "", false
	}
	s.claimed[id] = struct{}{}
	return id, true
}

// enqueue appends to the queue and restarts the quiet-period timer. Once the
// stream has closed the queue is flushed straight away.
func (s *Scheduler) enqueue(ctx context.Context, items []domain.ScoreItem) {
	s.mu.Lock()
	s.queue = append(s.queue, items...)
	if s.draining {
		s.mu.Unlock()
		s.flush(ctx)
		return
	}
	defer s.mu.Unlock()

	if s.debounce != nil && s.debounce.Stop() {
		s.inflight.Done()
	}
	s.inflight.Add(1)
	s.debounce = s.clock.AfterFunc(s.cfg.Debounce, func() {
		defer s.inflight.Done()
		s.flush(ctx)
	})
}

// flush swaps the queue out in one locked step, then schedules paced chunks.
func (s *Scheduler) flush(ctx context.Context) {
	s.mu.Lock()
	items := s.queue
	s.queue = nil
	s.mu.Unlock()

	if len(items) == 0 {
		return
	}

	plans := PlanChunks(items, s.cfg.ChunkSize, s.cfg.ChunkSpacing)
	s.debug("flush", "items", len(items), "chunks", len(plans))

	for _, plan := range plans {
		chunk := plan.Items
		s.inflight.Add(1)
		s.clock.AfterFunc(plan.Delay, func() {
			defer s.inflight.Done()
			s.dispatch(ctx, chunk)
		})
	}
}

// dispatch sends one chunk and settles every badge in it, whatever happens.
func (s *Scheduler) dispatch(ctx context.Context, chunk []domain.ScoreItem) {
	resp := s.analyzer.AnalyzeBatch(ctx, domain.BatchRequest{
		Action: domain.ActionAnalyzeFastBatch,
		Query:  chunk[0].QueryContext,
		Items:  chunk,
	})

	if resp.Error != "" {
		kind := domain.KindFromCode(resp.Error)
		s.logError("chunk failed", "items", len(chunk), "error", resp.Error)
		for _, item := range chunk {
			s.renderer.RenderError(item.ID, kind)
		}
		return
	}

	byID := make(map[string]domain.ScoreResult, len(resp.Results))
	for _, r := range resp.Results {
		byID[r.ID] = r
	}

	for _, item := range chunk {
		result, ok := byID[item.ID]
		if !ok {
			s.warn("no result for item", "id", item.ID)
			s.renderer.RenderError(item.ID, domain.ErrorOther)
			continue
		}

		s.renderer.RenderScore(item.ID, result.Score, result.Reason)
		if item.URL == "" {
			continue
		}
		if err := s.cache.Put(ctx, item.URL, result.Score, result.Reason); err != nil {
			s.warn("cache write failed", "url", item.URL, "error", err)
		}
	}
}

// finish handles the end of the mutation stream.
func (s *Scheduler) finish(ctx context.Context) {
	s.mu.Lock()
	s.draining = true
	pendingScan := s.scanTimer != nil && s.scanTimer.Stop()
	pendingDebounce := s.debounce != nil && s.debounce.Stop()
	s.mu.Unlock()

	if pendingDebounce {
		s.inflight.Done()
	}
	if pendingScan {
		s.inflight.Done()
		s.scan(ctx)
	}

	s.flush(ctx)
	s.inflight.Wait()
}

func (s *Scheduler) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanTimer != nil && s.scanTimer.Stop() {
		s.inflight.Done()
	}
	if s.debounce != nil && s.debounce.Stop() {
		s.inflight.Done()
	}
}

func (s *Scheduler) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Scheduler) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Scheduler) logError(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
