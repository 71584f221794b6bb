package page

import (
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/ports"
)

const (
	// ProcessedClass marks a snippet that has already been claimed.
	ProcessedClass = "sss-processed-v10"

	snippetSelector  = `div.VwiC3b, div.ItzFZd, div[style*="-webkit-line-clamp"]`
	resultsSelector  = "#rso"
	defaultMinLength = 10
)

var cardSelectors = []string{"div.g", "div.MjjYud"}

// Document is the mutable host page. goquery is not safe for concurrent use,
// so every read and write goes through the document lock.
type Document struct {
	mu        sync.Mutex
	doc       *goquery.Document
	pageURL   *url.URL
	minLength int
}

var _ ports.Page = (*Document)(nil)

// NewDocument parses the initial page served at pageURL.
func NewDocument(r io.Reader, pageURL string, minTextLength int) (*Document, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	if minTextLength <= 0 {
		minTextLength = defaultMinLength
	}

	return &Document{doc: doc, pageURL: parsed, minLength: minTextLength}, nil
}

// Query returns the search terms when the page is a supported results page.
func (d *Document) Query() string {
	if !IsSupportedHost(d.pageURL.Hostname()) {
		return ""
	}
	return strings.TrimSpace(d.pageURL.Query().Get("q"))
}

// IsSupportedHost reports whether host belongs to a Google search domain,
// including country domains such as google.co.uk. Hosts under private
// suffixes (google.blogspot.com) are not Google.
func IsSupportedHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	if _, icann := publicsuffix.PublicSuffix(host); !icann {
		return false
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	return strings.HasPrefix(root, "google.")
}

// ClaimSnippets implements ports.Page. Every unclaimed snippet inside a result
// card is marked processed exactly once; short snippets are marked but skipped.
func (d *Document) ClaimSnippets(claim func(url string) (string, bool)) []domain.Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()

	var candidates []domain.Candidate
	d.doc.Find(snippetSelector).Each(func(_ int, node *goquery.Selection) {
		if node.HasClass(ProcessedClass) {
			return
		}

		card := closestCard(node)
		if card == nil {
			return
		}

		node.AddClass(ProcessedClass)
		text := strings.TrimSpace(node.Text())
		if utf8.RuneCountInString(text) < d.minLength {
			return
		}

		link := d.resultLink(card)
		id, ok := claim(link)
		if !ok {
			return
		}

		node.PrependHtml(fmt.Sprintf(`<div id="%s" class="gemini-badge"></div>`, html.EscapeString(BadgeID(id))))
		candidates = append(candidates, domain.Candidate{ID: id, URL: link, Text: text})
	})

	return candidates
}

// Append parses an HTML fragment and appends its top-level nodes to the
// results container, returning how many nodes were added.
func (d *Document) Append(r io.Reader) (int, error) {
	fragment, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return 0, fmt.Errorf("parse fragment: %w", err)
	}

	body := fragment.Find("body")
	added := body.Children().Length()
	if added == 0 {
		return 0, nil
	}
	markup, err := body.Html()
	if err != nil {
		return 0, fmt.Errorf("render fragment: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.doc.Find(resultsSelector).First()
	if target.Length() == 0 {
		target = d.doc.Find("body").First()
	}
	target.AppendHtml(markup)

	return added, nil
}

// Mutate runs fn with exclusive access to the underlying document.
func (d *Document) Mutate(fn func(doc *goquery.Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.doc)
}

// HTML renders the current document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return goquery.OuterHtml(d.doc.Selection)
}

// BadgeID is the DOM id of the badge attached for a candidate id.
func BadgeID(id string) string {
	return "b_" + id
}

func closestCard(node *goquery.Selection) *goquery.Selection {
	for _, selector := range cardSelectors {
		if card := node.Closest(selector); card.Length() > 0 {
			return card
		}
	}
	return nil
}

func (d *Document) resultLink(card *goquery.Selection) string {
	anchor := card.Find("a:has(h3)").First()
	if anchor.Length() == 0 {
		anchor = card.Find("a[href]").First()
	}
	href, ok := anchor.Attr("href")
	if !ok {
		return ""
	}
	return ResolveResultURL(d.pageURL, href)
}

// ResolveResultURL makes href absolute against the page and unwraps Google
// "/url?q=" redirects. Non-http(s) targets resolve to "".
func ResolveResultURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}

	if resolved.Path == "/url" && IsSupportedHost(resolved.Hostname()) {
		target := resolved.Query().Get("q")
		if target == "" {
			target = resolved.Query().Get("url")
		}
		if target == "" {
			return ""
		}
		return ResolveResultURL(nil, target)
	}

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
