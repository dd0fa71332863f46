package model

// FactSheet is one series' canonical facts: world settings, the character
// registry, and the recorded episode history. The pipeline consumes it as an
// immutable snapshot taken at the start of a run.
type FactSheet struct {
	World      map[string]any `json:"world,omitempty"`
	Characters []Character    `json:"characters,omitempty"`
	Episodes   []Episode      `json:"episodes,omitempty"`
}

// Character is a canonical character record
type Character struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Traits map[string]any `json:"traits,omitempty"`
}

// Episode records what happened in a previously analyzed installment
type Episode struct {
	Number  int      `json:"number"`
	Title   string   `json:"title,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Events  []string `json:"events,omitempty"`
}

// FindCharacter returns the character with the given canonical id
func (f *FactSheet) FindCharacter(id string) (Character, bool) {
	for _, c := range f.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}
