package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"SearchScorer/internal/domain"
)

const (
	// DefaultTextLimit bounds every snippet placed into a prompt.
	DefaultTextLimit = 150

	scoringInstructions = `Score how relevant each search result is to the query on a 0-100 scale.
Return ONLY a JSON array: [{"id":"<id>","s":80,"r":"<short reason>"}]. No markdown.`

	systemPrompt = `You are a search result scorer. Return ONLY a JSON array: [{"id":"<id>","s":80,"r":"<short reason>"}]. Scores are 0-100, reasons at most ten words. No markdown.`
)

type promptItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func itemLines(items []domain.ScoreItem, limit int) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(promptItem{ID: item.ID, Text: domain.Truncate(item.Text, limit)})
		if err != nil {
			continue
		}
		lines = append(lines, string(raw))
	}
	return strings.Join(lines, "\n")
}

// buildPrompt renders the single-turn prompt used by the Gemini variant.
func buildPrompt(query string, items []domain.ScoreItem, limit int) string {
	return fmt.Sprintf("%s\nQuery: %q\nData:\n%s", scoringInstructions, query, itemLines(items, limit))
}

// buildUserMessage renders the user turn for chat-completion endpoints.
func buildUserMessage(query string, items []domain.ScoreItem, limit int) string {
	return fmt.Sprintf("Query: %s\nData:\n%s", query, itemLines(items, limit))
}
