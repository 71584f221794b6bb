package domain

// Bucket classifies a score for display.
type Bucket string

const (
	BucketHigh Bucket = "high"
	BucketMid  Bucket = "mid"
	BucketLow  Bucket = "low"
	BucketBad  Bucket = "bad"
)

// BucketFor maps a score to its bucket; lower bounds are inclusive.
func BucketFor(score int) Bucket {
	switch {
	case score >= 85:
		return BucketHigh
	case score >= 60:
		return BucketMid
	case score >= 30:
		return BucketLow
	default:
		return BucketBad
	}
}

// Icon returns the glyph rendered next to the numeric score.
func (b Bucket) Icon() string {
	switch b {
	case BucketHigh:
		return "🌟"
	case BucketMid:
		return "👌"
	case BucketLow:
		return "🤔"
	default:
		return "🗑️"
	}
}

// Class returns the CSS class carried by a badge in this bucket.
func (b Bucket) Class() string {
	return "score-" + string(b)
}
