// Package adjudicate turns unverified oracle complaints into the final
// issue list. Every candidate passes a chain of gates — anchor validation,
// sentence location, hedge filtering, a resolution check against the full
// draft, and severity filtering — before surviving issues are merged.
package adjudicate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	"github.com/hansollee/lorecheck/internal/match"
	"github.com/hansollee/lorecheck/internal/model"
)

// Oracle is the slice of the oracle adapter the adjudicator needs
type Oracle interface {
	CheckResolution(ctx context.Context, issues []model.ResolvedIssue, fullText string) []bool
}

// hedgePhrases mark rationales built on inference, absence, or ambiguity
// rather than a direct contradiction. A match on any phrase discards the
// candidate.
var hedgePhrases = []string{
	"일 수 있다", "일 수 있", "수도 있", "가능성이", "추정", "암시",
	"불확실", "모호", "명시되지 않", "언급되지 않", "언급이 없",
	"단정할 수 없", "직접적인 모순은 아니",
	"might", "may be", "could be", "possibly", "perhaps",
	"unclear", "ambiguous", "not explicitly", "not mentioned",
	"no direct", "seems to", "appears to", "cannot be certain",
}

// Adjudicator validates, cross-verifies, filters, and merges candidates
type Adjudicator struct {
	oracle    Oracle
	logger    *zap.Logger
	threshold model.Severity
	batchSize int
	workers   int
}

// New creates an adjudicator. The threshold drops issues ranked below it;
// batchSize bounds how many issues share one resolution-check call.
func New(oracle Oracle, logger *zap.Logger, threshold model.Severity, batchSize, workers int) *Adjudicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold.Rank() == 0 {
		threshold = model.SeverityMedium
	}
	if batchSize <= 0 {
		batchSize = 5
	}
	if workers <= 0 {
		workers = 2
	}
	return &Adjudicator{
		oracle:    oracle,
		logger:    logger,
		threshold: threshold,
		batchSize: batchSize,
		workers:   workers,
	}
}

// Adjudicate runs every candidate through the gate chain and returns the
// merged final issues ordered by position in the text. Discards are silent:
// an unlocatable anchor or sentence means the oracle hallucinated, not that
// the system failed.
func (a *Adjudicator) Adjudicate(ctx context.Context, candidates []model.CandidateIssue, anchors []model.Anchor, fullText string) []model.Issue {
	var resolved []model.ResolvedIssue

	for _, cand := range candidates {
		anchorStmt, ok := ValidateAnchor(cand.AnchorRef, anchors)
		if !ok {
			a.logger.Debug("discarding candidate: anchor not in pool",
				zap.String("title", cand.Title), zap.String("anchor_ref", cand.AnchorRef))
			continue
		}

		start, end := match.Locate(fullText, cand.Sentence, 0)
		if start < 0 {
			a.logger.Debug("discarding candidate: hint sentence not located",
				zap.String("title", cand.Title))
			continue
		}

		if HasHedge(cand.Reason) {
			a.logger.Debug("discarding candidate: hedged rationale",
				zap.String("title", cand.Title))
			continue
		}

		resolved = append(resolved, model.ResolvedIssue{
			CandidateIssue: cand,
			Anchor:         anchorStmt,
			Start:          start,
			End:            end,
			Located:        fullText[start:end],
		})
	}

	resolved = a.checkResolutions(ctx, resolved, fullText)

	var surviving []model.ResolvedIssue
	for _, issue := range resolved {
		if issue.Severity.Rank() < a.threshold.Rank() {
			continue
		}
		surviving = append(surviving, issue)
	}

	return Merge(surviving)
}

// ValidateAnchor matches an approximate anchor reference against the live
// pool by token overlap; the anchor sharing the most tokens wins. No shared
// tokens means no anchor, so the candidate is discarded.
func ValidateAnchor(ref string, anchors []model.Anchor) (string, bool) {
	refTokens := tokenize(ref)
	if len(refTokens) == 0 {
		return "", false
	}

	best, bestOverlap := "", 0
	for _, anchor := range anchors {
		overlap := 0
		anchorTokens := tokenize(anchor.Statement)
		for tok := range refTokens {
			if anchorTokens[tok] {
				overlap++
			}
		}
		if overlap > bestOverlap {
			best, bestOverlap = anchor.Statement, overlap
		}
	}
	if bestOverlap == 0 {
		return "", false
	}
	return best, true
}

// HasHedge reports whether a rationale contains any hedge phrase
func HasHedge(reason string) bool {
	lowered := strings.ToLower(reason)
	for _, phrase := range hedgePhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// checkResolutions batch-verifies with the oracle whether each issue is
// later retracted in the draft, dropping the ones that are. Batches run
// concurrently under a semaphore; a failed batch keeps its issues.
func (a *Adjudicator) checkResolutions(ctx context.Context, issues []model.ResolvedIssue, fullText string) []model.ResolvedIssue {
	if len(issues) == 0 || a.oracle == nil {
		for i := range issues {
			issues[i].Verified = true
		}
		return issues
	}

	resolved := make([]bool, len(issues))

	type batchRange struct{ lo, hi int }
	var batches []batchRange
	for lo := 0; lo < len(issues); lo += a.batchSize {
		hi := lo + a.batchSize
		if hi > len(issues) {
			hi = len(issues)
		}
		batches = append(batches, batchRange{lo, hi})
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.workers)
	for _, b := range batches {
		wg.Add(1)
		go func(b batchRange) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			copy(resolved[b.lo:b.hi], a.oracle.CheckResolution(ctx, issues[b.lo:b.hi], fullText))
		}(b)
	}
	wg.Wait()

	var surviving []model.ResolvedIssue
	for i, issue := range issues {
		if resolved[i] {
			a.logger.Debug("discarding issue: resolved later in draft",
				zap.String("title", issue.Title))
			continue
		}
		issue.Verified = true
		surviving = append(surviving, issue)
	}
	return surviving
}

// Merge groups surviving issues by their located sentence text. Singleton
// groups pass through; multi-member groups collapse into one mixed issue
// whose severity is the maximum of its members.
func Merge(issues []model.ResolvedIssue) []model.Issue {
	groups := make(map[string][]model.ResolvedIssue)
	var order []string
	for _, issue := range issues {
		if _, seen := groups[issue.Located]; !seen {
			order = append(order, issue.Located)
		}
		groups[issue.Located] = append(groups[issue.Located], issue)
	}

	var out []model.Issue
	for _, sentence := range order {
		group := groups[sentence]
		if len(group) == 1 {
			out = append(out, toIssue(group[0]))
			continue
		}
		out = append(out, mergeGroup(group))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func toIssue(r model.ResolvedIssue) model.Issue {
	return model.Issue{
		Category: r.Category,
		Title:    r.Title,
		Sentence: r.Located,
		Start:    r.Start,
		End:      r.End,
		Reason:   r.Reason,
		Severity: r.Severity,
		Rewrite:  r.Rewrite,
	}
}

// maxMergedReasons caps the rationale union of a merged group
const maxMergedReasons = 3

func mergeGroup(group []model.ResolvedIssue) model.Issue {
	var labels []string
	var reasons []string
	seenLabel := make(map[string]bool)
	seenReason := make(map[string]bool)
	maxSev := group[0].Severity
	rewrite := ""

	for _, member := range group {
		label := string(member.Category)
		if !seenLabel[label] {
			seenLabel[label] = true
			labels = append(labels, label)
		}
		if !seenReason[member.Reason] && len(reasons) < maxMergedReasons {
			seenReason[member.Reason] = true
			reasons = append(reasons, member.Reason)
		}
		if member.Severity.Rank() > maxSev.Rank() {
			maxSev = member.Severity
		}
		if rewrite == "" && member.Rewrite != "" {
			rewrite = member.Rewrite
		}
	}

	return model.Issue{
		Category: model.CategoryMixed,
		Title:    strings.Join(labels, "/"),
		Sentence: group[0].Located,
		Start:    group[0].Start,
		End:      group[0].End,
		Reason:   strings.Join(reasons, "; "),
		Severity: maxSev,
		Rewrite:  rewrite,
	}
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens[strings.ToLower(current.String())] = true
			current.Reset()
		}
	}
	for _, r := range s {
		if isTokenRune(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func isTokenRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
