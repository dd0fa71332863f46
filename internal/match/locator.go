package match

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// fuzzyLocateCutoff is the minimum ratio for the sentence-candidate tier
	fuzzyLocateCutoff = 0.6
	// minCandidateRunes drops fragments too short to score meaningfully
	minCandidateRunes = 5
)

// hintTrimCutset strips surrounding quotes and whitespace from oracle hints
const hintTrimCutset = " \t\r\n\"'“”‘’「」『』«»‹›"

// Locate maps an approximate quoted hint back to an exact [start,end) byte
// span in text, searching from searchFrom. text[start:end] is the resolved
// excerpt. Returns (-1,-1) when every tier fails.
//
// Tier 1 finds the trimmed hint verbatim. Tier 2 strips whitespace and
// non-alphanumerics from both sides, searches the normalized scope, and maps
// the hit back to original offsets. Tier 3 scores sentence candidates
// against the hint and accepts the best at ratio >= 0.6.
func Locate(text, hint string, searchFrom int) (int, int) {
	if searchFrom < 0 {
		searchFrom = 0
	}
	if searchFrom >= len(text) {
		return -1, -1
	}
	scope := text[searchFrom:]

	trimmed := strings.Trim(hint, hintTrimCutset)
	if trimmed == "" {
		return -1, -1
	}

	// tier 1: verbatim
	if idx := strings.Index(scope, trimmed); idx >= 0 {
		return searchFrom + idx, searchFrom + idx + len(trimmed)
	}

	// tier 2: normalized search mapped back to original offsets
	if start, end, ok := locateNormalized(scope, trimmed); ok {
		return searchFrom + start, searchFrom + end
	}

	// tier 3: fuzzy sentence candidates
	if start, end, ok := locateFuzzy(scope, trimmed); ok {
		return searchFrom + start, searchFrom + end
	}

	return -1, -1
}

// locateNormalized searches for the hint with case, whitespace, and
// punctuation folded away, then recovers the original span by scanning the
// scope once and counting only runes that survive normalization.
func locateNormalized(scope, hint string) (int, int, bool) {
	normScope := normalizeText(scope)
	normHint := normalizeText(hint)
	if normHint == "" || normScope == "" {
		return 0, 0, false
	}

	byteIdx := strings.Index(normScope, normHint)
	if byteIdx < 0 {
		return 0, 0, false
	}

	// convert the normalized hit to rune positions
	startRune := utf8.RuneCountInString(normScope[:byteIdx])
	endRune := startRune + utf8.RuneCountInString(normHint)

	start, end := -1, -1
	count := 0
	for i, r := range scope {
		if !survivesNormalization(r) {
			continue
		}
		if count == startRune && start < 0 {
			start = i
		}
		count++
		if count == endRune {
			end = i + utf8.RuneLen(r)
			break
		}
	}
	if start < 0 || end < 0 {
		return 0, 0, false
	}
	return start, end, true
}

// locateFuzzy splits the scope into sentence candidates and accepts the
// best-scoring one
func locateFuzzy(scope, hint string) (int, int, bool) {
	best, bestRatio := "", 0.0
	for _, cand := range sentenceCandidates(scope) {
		if r := Ratio(cand, hint); r > bestRatio {
			best, bestRatio = cand, r
		}
	}
	if bestRatio < fuzzyLocateCutoff {
		return 0, 0, false
	}
	idx := strings.Index(scope, best)
	if idx < 0 {
		return 0, 0, false
	}
	return idx, idx + len(best), true
}

// sentenceCandidates splits on punctuation and newline boundaries,
// discarding fragments shorter than minCandidateRunes
func sentenceCandidates(scope string) []string {
	var out []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if utf8.RuneCountInString(s) >= minCandidateRunes {
			out = append(out, s)
		}
		current.Reset()
	}

	for _, r := range scope {
		switch r {
		case '.', '?', '!', '…', '\n':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return out
}

func normalizeText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if survivesNormalization(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

func survivesNormalization(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
