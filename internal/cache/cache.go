package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/ports"
)

const (
	DefaultTTL       = 7 * 24 * time.Hour
	DefaultKeyLimit  = 128
	DefaultNamespace = "sss_cache_"
)

// Options tunes expiry and key layout.
type Options struct {
	TTL       time.Duration
	KeyLimit  int
	Namespace string
	Now       func() time.Time
	Logger    *slog.Logger
}

// Cache stores scores by normalized URL with passive TTL expiry.
// Stale records are never deleted; they read as absent and get overwritten.
type Cache struct {
	kv        ports.KVStore
	ttl       time.Duration
	keyLimit  int
	namespace string
	now       func() time.Time
	logger    *slog.Logger
}

var _ ports.ScoreCache = (*Cache)(nil)

// New wraps a key-value store.
func New(kv ports.KVStore, opts Options) *Cache {
	c := &Cache{
		kv:        kv,
		ttl:       opts.TTL,
		keyLimit:  opts.KeyLimit,
		namespace: opts.Namespace,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.keyLimit <= 0 {
		c.keyLimit = DefaultKeyLimit
	}
	if c.namespace == "" {
		c.namespace = DefaultNamespace
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// NormalizeURL keeps scheme, host and path; query and fragment are dropped.
func NormalizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	normalized := url.URL{
		Scheme: strings.ToLower(parsed.Scheme),
		Host:   strings.ToLower(parsed.Host),
		Path:   parsed.Path,
	}
	return normalized.String(), true
}

// Key derives the storage key for a normalized URL. Truncation may collide
// for very long URLs sharing a prefix.
func (c *Cache) Key(normalized string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(normalized))
	if len(encoded) > c.keyLimit {
		encoded = encoded[:c.keyLimit]
	}
	return c.namespace + encoded
}

// Get returns the entry for rawURL unless it is missing, unreadable or expired.
func (c *Cache) Get(ctx context.Context, rawURL string) (domain.CacheEntry, bool, error) {
	normalized, ok := NormalizeURL(rawURL)
	if !ok {
		return domain.CacheEntry{}, false, nil
	}

	payload, found, err := c.kv.Get(ctx, c.Key(normalized))
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("cache get: %w", err)
	}
	if !found {
		return domain.CacheEntry{}, false, nil
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		c.debug("discard unreadable cache entry", "url", normalized, "error", err)
		return domain.CacheEntry{}, false, nil
	}

	if c.now().Sub(entry.StoredAt()) > c.ttl {
		return domain.CacheEntry{}, false, nil
	}

	return entry, true, nil
}

// Put records a fresh score for rawURL. URLs that cannot be normalized are skipped.
func (c *Cache) Put(ctx context.Context, rawURL string, score int, reason string) error {
	normalized, ok := NormalizeURL(rawURL)
	if !ok {
		return nil
	}

	payload, err := json.Marshal(domain.CacheEntry{
		Score:     score,
		Reason:    reason,
		Timestamp: c.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := c.kv.Put(ctx, c.Key(normalized), string(payload)); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (c *Cache) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
