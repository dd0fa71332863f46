package model

// Chunk is a bounded, sentence-safe segment of the manuscript.
// Chunks exist only for the duration of one analysis run.
type Chunk struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Length int    `json:"length"` // rune count, not bytes
}

// Anchor is an atomic "path = value" statement flattened from the
// canonical-fact snapshot, used as ground truth for comparison.
type Anchor struct {
	Statement string   `json:"statement"`
	Category  Category `json:"category"`
}
