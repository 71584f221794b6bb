package domain

import "encoding/json"

// ActionAnalyzeFastBatch is the only message action the analyzer accepts.
const ActionAnalyzeFastBatch = "analyzeFastBatch"

// BatchRequest is the inbound scoring message for one chunk.
type BatchRequest struct {
	Action string      `json:"action"`
	Query  string      `json:"query"`
	Items  []ScoreItem `json:"items"`
}

// BatchResponse carries either results or an error code, never both.
type BatchResponse struct {
	Results []ScoreResult `json:"results,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// MarshalJSON emits `{"error": ...}` or `{"results": [...]}`.
func (r BatchResponse) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	results := r.Results
	if results == nil {
		results = []ScoreResult{}
	}
	return json.Marshal(struct {
		Results []ScoreResult `json:"results"`
	}{results})
}
