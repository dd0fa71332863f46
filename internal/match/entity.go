package match

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/hansollee/lorecheck/internal/model"
)

// nameSimilarityCutoff is the minimum ratio for the fuzzy fallback tier
const nameSimilarityCutoff = 0.4

// nameStripChars are removed during name normalization
const nameStripChars = " \t\r\n-_.,·'\"“”‘’!?()[]"

// ResolveName maps a free-text name to a canonical entity id through a
// tiered cascade; earlier tiers always win over later ones. Returns false
// when no tier produces a match.
//
// Tiers: exact equality, normalized equality, normalized containment
// (either direction), normalized subsequence, similarity ratio >= 0.4.
func ResolveName(query string, candidates []model.Character) (string, bool) {
	if strings.TrimSpace(query) == "" || len(candidates) == 0 {
		return "", false
	}

	// tier 1: exact
	for _, c := range candidates {
		if c.Name == query {
			return c.ID, true
		}
	}

	nq := NormalizeName(query)
	normNames := make([]string, len(candidates))
	for i, c := range candidates {
		normNames[i] = NormalizeName(c.Name)
	}

	if nq != "" {
		// tier 2: normalized equality
		for i, nn := range normNames {
			if nn != "" && nn == nq {
				return candidates[i].ID, true
			}
		}

		// tier 3: normalized containment either direction
		for i, nn := range normNames {
			if nn == "" {
				continue
			}
			if strings.Contains(nn, nq) || strings.Contains(nq, nn) {
				return candidates[i].ID, true
			}
		}

		// tier 4: every rune of the query appears in order in the candidate
		if matches := fuzzy.Find(nq, normNames); len(matches) > 0 {
			return candidates[matches[0].Index].ID, true
		}
	}

	// tier 5: similarity fallback over the raw strings
	bestIdx, bestRatio := -1, 0.0
	for i, c := range candidates {
		if r := Ratio(query, c.Name); r > bestRatio {
			bestIdx, bestRatio = i, r
		}
	}
	if bestIdx >= 0 && bestRatio >= nameSimilarityCutoff {
		return candidates[bestIdx].ID, true
	}
	return "", false
}

// NormalizeName lowercases a name and strips a fixed set of punctuation
// and space characters
func NormalizeName(name string) string {
	lowered := strings.ToLower(name)
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(nameStripChars, r) {
			return -1
		}
		return r
	}, lowered)
}
