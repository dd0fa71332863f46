package model

import "time"

// Report is the externally visible result of one manuscript analysis
type Report struct {
	RunID      string    `json:"run_id"`
	Manuscript string    `json:"manuscript"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	Provider string `json:"provider,omitempty"` // oracle provider used
	Model    string `json:"model,omitempty"`    // oracle model used

	ChunkCount        int `json:"chunk_count"`
	StatementsChecked int `json:"statements_checked"` // size of the anchor pool
	NegativeCount     int `json:"negative_count"`     // issues with negative verdicts

	Issues       []Issue  `json:"issues"`
	FictionTerms []string `json:"fiction_terms,omitempty"` // in-universe terms exempt from checking

	// Degraded is true when any oracle call failed and a placeholder
	// finding was injected in its place.
	Degraded bool `json:"degraded"`
}
