package model

// Category classifies which part of the canon an issue violates
type Category string

const (
	CategoryWorld     Category = "world"     // World settings (geography, magic system, rules)
	CategoryCharacter Category = "character" // Character traits, state, relationships
	CategoryPlot      Category = "plot"      // Plot continuity within the draft
	CategoryHistory   Category = "history"   // Previously recorded episode events
	CategoryMixed     Category = "mixed"     // Result of merging issues of different categories
)

// Severity is the ordinal importance of an issue
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank maps severities onto a comparable scale; unknown severities rank 0
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// ParseSeverity normalizes a free-text severity label
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(s), true
	}
	return "", false
}

// CandidateIssue is an unverified consistency complaint proposed by the oracle.
// Sentence and AnchorRef are approximate: the oracle paraphrases rather than
// quotes, so both must survive resolution before the issue is trustworthy.
type CandidateIssue struct {
	Category  Category `json:"category"`
	Title     string   `json:"title"`
	Sentence  string   `json:"sentence"`          // approximate hint sentence
	AnchorRef string   `json:"anchor"`            // approximate anchor reference
	Reason    string   `json:"reason"`            // rationale for the complaint
	Rewrite   string   `json:"rewrite,omitempty"` // optional suggested fix
	Severity  Severity `json:"severity"`
}

// ResolvedIssue is a CandidateIssue pinned to an exact span in the draft
type ResolvedIssue struct {
	CandidateIssue

	Anchor   string `json:"anchor"`  // statement matched from the live anchor pool
	Start    int    `json:"start"`   // byte offset into the original text
	End      int    `json:"end"`     // exclusive
	Located  string `json:"located"` // text[Start:End]
	Verified bool   `json:"verified"`
}

// Issue is a final emitted finding
type Issue struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Sentence string   `json:"sentence"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`
	Rewrite  string   `json:"rewrite,omitempty"`
}
