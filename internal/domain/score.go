package domain

import "time"

// ScoreItem is a single candidate snippet queued for scoring.
type ScoreItem struct {
	ID           string `json:"id"`
	URL          string `json:"url,omitempty"`
	Text         string `json:"text"`
	QueryContext string `json:"queryContext,omitempty"`
}

// ScoreResult is the normalized backend verdict for one item.
type ScoreResult struct {
	ID     string `json:"id"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// CacheEntry is a persisted prior result addressed by normalized URL.
type CacheEntry struct {
	Score     int    `json:"score"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

// StoredAt converts the epoch-ms timestamp to a time.Time.
func (e CacheEntry) StoredAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// ClampScore keeps a score inside the 0..100 range.
func ClampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// Truncate cuts text to at most limit runes.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
