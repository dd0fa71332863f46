// Package chunk splits raw manuscript text into bounded, sentence-safe
// segments, so that oracle context stays under a fixed size without ever
// cutting a sentence in half.
package chunk

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hansollee/lorecheck/internal/model"
)

var blankLineRe = regexp.MustCompile(`\n[ \t\r]*\n`)

// Chunker splits text into segments between minLen and maxLen runes
type Chunker struct {
	maxLen int
	minLen int
}

// New creates a chunker with the given rune bounds
func New(maxLen, minLen int) *Chunker {
	if maxLen <= 0 {
		maxLen = 2000
	}
	if minLen < 0 {
		minLen = 0
	}
	return &Chunker{maxLen: maxLen, minLen: minLen}
}

// Split segments text into ordered chunks. Paragraphs are packed greedily;
// a paragraph over the limit is re-split at sentence boundaries. A single
// sentence over the limit is a fatal input error: chunking never truncates.
func (c *Chunker) Split(text string) ([]model.Chunk, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, model.NewError(model.KindMalformedInput, "chunk.Split", "manuscript text is empty")
	}

	var parts []string
	buf := ""

	flush := func() {
		if buf != "" {
			parts = append(parts, buf)
			buf = ""
		}
	}

	// append joins piece onto the buffer, flushing first when the
	// combined rune length would exceed maxLen
	push := func(piece, sep string) {
		if buf == "" {
			buf = piece
			return
		}
		if runeLen(buf)+runeLen(sep)+runeLen(piece) > c.maxLen {
			flush()
			buf = piece
			return
		}
		buf += sep + piece
	}

	for _, para := range splitParagraphs(trimmed) {
		if runeLen(para) <= c.maxLen {
			push(para, "\n\n")
			continue
		}
		// paragraph too long: fall back to sentence packing
		flush()
		for _, sent := range SplitSentences(para) {
			if runeLen(sent) > c.maxLen {
				return nil, model.NewError(model.KindMalformedInput, "chunk.Split",
					"sentence of %d runes exceeds chunk limit %d", runeLen(sent), c.maxLen)
			}
			push(sent, " ")
		}
		flush()
	}
	flush()

	parts = c.mergeShort(parts)

	chunks := make([]model.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = model.Chunk{Index: i, Text: p, Length: runeLen(p)}
	}
	return chunks, nil
}

// mergeShort folds chunks below minLen into their predecessor when the
// merged chunk still fits. The last chunk may stay short.
func (c *Chunker) mergeShort(parts []string) []string {
	if len(parts) < 2 {
		return parts
	}
	merged := []string{parts[0]}
	for _, p := range parts[1:] {
		prev := merged[len(merged)-1]
		if runeLen(p) < c.minLen && runeLen(prev)+2+runeLen(p) <= c.maxLen {
			merged[len(merged)-1] = prev + "\n\n" + p
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range blankLineRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitSentences breaks a paragraph at line breaks or at a terminal
// punctuation mark followed by whitespace or end of text.
func SplitSentences(para string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(para)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if isTerminal(r) {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return sentences
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '?', '!', '…':
		return true
	}
	return false
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
