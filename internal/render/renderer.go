package render

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/infrastructure/page"
	"SearchScorer/internal/ports"
)

const (
	badgeClass      = "gemini-badge"
	noAPIKeyNotice  = "API key not configured"
	waitingGlyph    = "⏳"
	pendingMarkup   = `<span>●</span>`
	hiddenStyle     = "display:none"
	scoreMarkupTmpl = `<span class="badge-icon">%s</span><b>%d</b>`
)

// Renderer writes badge state into the page. Each call replaces the badge's
// class, content, title and style wholesale, so repeating a call is a no-op.
type Renderer struct {
	doc *page.Document
}

var _ ports.Renderer = (*Renderer)(nil)

// New binds a renderer to a page document.
func New(doc *page.Document) *Renderer {
	return &Renderer{doc: doc}
}

// RenderPending shows the loading indicator.
func (r *Renderer) RenderPending(id string) {
	r.apply(id, func(badge *goquery.Selection) {
		badge.SetAttr("class", badgeClass+" loading")
		badge.SetHtml(pendingMarkup)
	})
}

// RenderScore shows the bucket icon and numeric score, with the reason on hover.
func (r *Renderer) RenderScore(id string, score int, reason string) {
	score = domain.ClampScore(score)
	bucket := domain.BucketFor(score)

	r.apply(id, func(badge *goquery.Selection) {
		badge.SetAttr("class", badgeClass+" fade-in "+bucket.Class())
		badge.SetHtml(fmt.Sprintf(scoreMarkupTmpl, bucket.Icon(), score))
		if reason != "" {
			badge.SetAttr("title", reason)
		}
	})
}

// RenderError maps a failure kind to its annotation state.
func (r *Renderer) RenderError(id string, kind domain.ErrorKind) {
	r.apply(id, func(badge *goquery.Selection) {
		switch kind {
		case domain.ErrorNoAPIKey:
			badge.SetAttr("class", badgeClass+" error")
			badge.SetText(noAPIKeyNotice)
		case domain.ErrorRateLimit:
			badge.SetAttr("class", badgeClass+" waiting")
			badge.SetText(waitingGlyph)
		default:
			badge.SetAttr("class", badgeClass)
			badge.SetHtml("")
			badge.SetAttr("style", hiddenStyle)
		}
	})
}

// apply resets transient attributes before fn sets the new state.
func (r *Renderer) apply(id string, fn func(badge *goquery.Selection)) {
	r.doc.Mutate(func(doc *goquery.Document) {
		badge := doc.Find("#" + page.BadgeID(id))
		if badge.Length() == 0 {
			return
		}
		badge.RemoveAttr("style")
		badge.RemoveAttr("title")
		fn(badge)
	})
}
