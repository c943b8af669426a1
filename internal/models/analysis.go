package models

import "time"

// Analysis is one interpretation of a dream. Rows are append-only; the
// most recently created row for a dream is the canonical one.
type Analysis struct {
	ID                 int64             `json:"id"`
	DreamID            int64             `json:"dreamId"`
	Interpretation     string            `json:"overall_interpretation"`
	Archetypes         []string          `json:"archetypes"`
	Symbols            map[string]string `json:"symbols"`
	PsychologicalState string            `json:"psychological_state"`
	CreatedAt          time.Time         `json:"created_at"`
}

// StructuredAnalysis is the shape the interpretation model is asked to
// produce. Insights and recommendations are returned to the caller but
// not persisted.
type StructuredAnalysis struct {
	Interpretation     string            `json:"overall_interpretation"`
	Archetypes         []string          `json:"archetypes"`
	Symbols            map[string]string `json:"symbols"`
	PsychologicalState string            `json:"psychological_state"`
	Insights           string            `json:"individuation_insights,omitempty"`
	Recommendations    string            `json:"recommendations,omitempty"`
}
