package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SearchScorer/internal/cache"
	"SearchScorer/internal/domain"
	"SearchScorer/internal/ports"
)

// manualClock records timers and fires them only when told to.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (c *manualClock) Now() time.Time { return time.Unix(0, 0) }

func (c *manualClock) AfterFunc(d time.Duration, f func()) ports.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// pendingDelays lists the delays of timers that have neither fired nor stopped.
func (c *manualClock) pendingDelays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			out = append(out, t.delay)
		}
	}
	return out
}

// fireAll runs pending timers in creation order until none remain.
func (c *manualClock) fireAll() {
	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.timers {
			if !t.fired && !t.stopped {
				next = t
				break
			}
		}
		if next != nil {
			next.fired = true
		}
		c.mu.Unlock()

		if next == nil {
			return
		}
		next.fn()
	}
}

// fakePage offers the same URLs on every scan, like a page whose snippets are
// re-rendered by the host.
type fakePage struct {
	query string
	urls  []string
	texts map[string]string
}

func (p *fakePage) Query() string { return p.query }

func (p *fakePage) ClaimSnippets(claim func(url string) (string, bool)) []domain.Candidate {
	var out []domain.Candidate
	for _, u := range p.urls {
		id, ok := claim(u)
		if !ok {
			continue
		}
		text := p.texts[u]
		if text == "" {
			text = "snippet text for " + u
		}
		out = append(out, domain.Candidate{ID: id, URL: u, Text: text})
	}
	return out
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
	puts    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]domain.CacheEntry{}}
}

func (m *memoryCache) Get(_ context.Context, rawURL string) (domain.CacheEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := cache.NormalizeURL(rawURL)
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	e, hit := m.entries[key]
	return e, hit, nil
}

func (m *memoryCache) Put(_ context.Context, rawURL string, score int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := cache.NormalizeURL(rawURL)
	if !ok {
		return nil
	}
	m.puts++
	m.entries[key] = domain.CacheEntry{Score: score, Reason: reason}
	return nil
}

// recordingAnalyzer scores every item 70 unless an override applies.
type recordingAnalyzer struct {
	mu       sync.Mutex
	requests []domain.BatchRequest
	respond  func(req domain.BatchRequest) domain.BatchResponse
}

func (a *recordingAnalyzer) AnalyzeBatch(_ context.Context, req domain.BatchRequest) domain.BatchResponse {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	respond := a.respond
	a.mu.Unlock()

	if respond != nil {
		return respond(req)
	}
	results := make([]domain.ScoreResult, 0, len(req.Items))
	for _, item := range req.Items {
		results = append(results, domain.ScoreResult{ID: item.ID, Score: 70, Reason: "ok"})
	}
	return domain.BatchResponse{Results: results}
}

func (a *recordingAnalyzer) itemCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, r := range a.requests {
		n += len(r.Items)
	}
	return n
}

type recordingRenderer struct {
	mu    sync.Mutex
	state map[string]string
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{state: map[string]string{}}
}

func (r *recordingRenderer) RenderPending(id string) {
	r.set(id, "pending")
}

func (r *recordingRenderer) RenderScore(id string, score int, reason string) {
	r.set(id, fmt.Sprintf("score:%d:%s", score, reason))
}

func (r *recordingRenderer) RenderError(id string, kind domain.ErrorKind) {
	r.set(id, "error:"+string(kind))
}

func (r *recordingRenderer) set(id, v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[id] = v
}

func (r *recordingRenderer) get(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state[id]
}

func (r *recordingRenderer) snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.state))
	for k, v := range r.state {
		out[k] = v
	}
	return out
}

type chanSource struct {
	ch chan domain.Mutation
}

func (c chanSource) Mutations() <-chan domain.Mutation { return c.ch }
