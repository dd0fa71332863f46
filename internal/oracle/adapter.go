package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hansollee/lorecheck/internal/model"
)

// PlaceholderHint marks a synthetic finding that covers the whole text
const PlaceholderHint = "(entire text)"

// RateLimiter gates outbound oracle calls
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Adapter sits above a Provider and owns the defensive-extraction and
// degradation protocol: a failed or unparseable call never propagates a
// fault, it degrades to a placeholder result instead.
type Adapter struct {
	provider Provider
	limiter  RateLimiter
	logger   *zap.Logger
}

// NewAdapter creates an adapter. provider may be nil (oracle disabled) and
// limiter may be nil (no rate limiting); the logger is required.
func NewAdapter(provider Provider, limiter RateLimiter, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{provider: provider, limiter: limiter, logger: logger}
}

// ProviderName returns the underlying provider name, or "" when disabled
func (a *Adapter) ProviderName() string {
	if a.provider == nil {
		return ""
	}
	return a.provider.Name()
}

// Proposal is the outcome of one proposal call
type Proposal struct {
	Issues       []model.CandidateIssue
	FictionTerms []string

	// Degraded is true when the call failed and Issues holds the
	// synthetic placeholder instead of real findings.
	Degraded bool
}

// proposalPayload is the structure expected inside the oracle's free text
type proposalPayload struct {
	Issues       []model.CandidateIssue `json:"issues"`
	FictionTerms []string               `json:"fiction_terms"`
}

// Propose asks the oracle to compare one manuscript excerpt against the
// anchor pool. The pipeline must never silently produce zero issues that
// are indistinguishable from "nothing wrong", so every failure path yields
// a high-severity placeholder finding.
func (a *Adapter) Propose(ctx context.Context, anchors []model.Anchor, excerpt string) Proposal {
	text, err := a.call(ctx, proposeSystem, buildProposePrompt(anchors, excerpt))
	if err != nil {
		a.logger.Warn("oracle proposal failed", zap.Error(err))
		return degradedProposal(err)
	}

	raw, ok := BestEffortJSON(text, "issues")
	if !ok {
		a.logger.Warn("oracle proposal unparseable", zap.Int("response_len", len(text)))
		return degradedProposal(model.NewError(model.KindOracleFailure, "oracle.Propose",
			"no JSON found in oracle response"))
	}

	var payload proposalPayload
	if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		// bare issue array without the wrapper object
		if err := json.Unmarshal(raw, &payload.Issues); err != nil {
			return degradedProposal(model.WrapError(model.KindOracleFailure, "oracle.Propose", err))
		}
	} else if err := json.Unmarshal(raw, &payload); err != nil {
		return degradedProposal(model.WrapError(model.KindOracleFailure, "oracle.Propose", err))
	}

	for i := range payload.Issues {
		sanitizeIssue(&payload.Issues[i])
	}

	return Proposal{Issues: payload.Issues, FictionTerms: payload.FictionTerms}
}

// resolutionPayload is the structure expected from a resolution check
type resolutionPayload struct {
	Verdicts []struct {
		Index    int  `json:"index"`
		Resolved bool `json:"resolved"`
	} `json:"verdicts"`
}

// CheckResolution asks whether the draft later explicitly retracts or
// resolves each apparent contradiction. Oracle failure defaults every
// verdict to "not resolved" so a bad call cannot erase real findings.
func (a *Adapter) CheckResolution(ctx context.Context, issues []model.ResolvedIssue, fullText string) []bool {
	resolved := make([]bool, len(issues))
	if len(issues) == 0 {
		return resolved
	}

	text, err := a.call(ctx, resolutionSystem, buildResolutionPrompt(issues, fullText))
	if err != nil {
		a.logger.Warn("resolution check failed, keeping issues", zap.Error(err))
		return resolved
	}

	raw, ok := BestEffortJSON(text, "verdicts")
	if !ok {
		a.logger.Warn("resolution check unparseable, keeping issues")
		return resolved
	}

	var payload resolutionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		a.logger.Warn("resolution check malformed, keeping issues", zap.Error(err))
		return resolved
	}

	for _, v := range payload.Verdicts {
		if v.Index >= 0 && v.Index < len(resolved) {
			resolved[v.Index] = v.Resolved
		}
	}
	return resolved
}

func (a *Adapter) call(ctx context.Context, system, prompt string) (string, error) {
	if a.provider == nil {
		return "", model.NewError(model.KindOracleFailure, "oracle.call", "no oracle provider configured")
	}
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", model.WrapError(model.KindOracleFailure, "oracle.call", err)
		}
	}
	resp, err := a.provider.Complete(ctx, Request{System: system, Prompt: prompt})
	if err != nil {
		return "", model.WrapError(model.KindOracleFailure, "oracle.call", err)
	}
	return resp.Text, nil
}

func degradedProposal(err error) Proposal {
	return Proposal{
		Issues: []model.CandidateIssue{{
			Category: model.CategoryPlot,
			Title:    "consistency check incomplete",
			Sentence: PlaceholderHint,
			Reason:   fmt.Sprintf("the consistency check could not be completed: %v", err),
			Severity: model.SeverityHigh,
		}},
		Degraded: true,
	}
}

func sanitizeIssue(issue *model.CandidateIssue) {
	if _, ok := model.ParseSeverity(string(issue.Severity)); !ok {
		issue.Severity = model.SeverityMedium
	}
	switch issue.Category {
	case model.CategoryWorld, model.CategoryCharacter, model.CategoryPlot, model.CategoryHistory:
	default:
		issue.Category = model.CategoryPlot
	}
}

const proposeSystem = `You are a continuity editor for serialized fiction. You compare draft text against established canonical facts and report only direct internal contradictions. You never judge real-world accuracy.`

const resolutionSystem = `You are a continuity editor for serialized fiction. You judge whether an apparent contradiction is explicitly retracted or resolved later in the same draft.`

func buildProposePrompt(anchors []model.Anchor, excerpt string) string {
	var sb strings.Builder
	sb.WriteString("Canonical facts (one \"path = value\" statement per line):\n")
	for _, a := range anchors {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", a.Category, a.Statement))
	}
	sb.WriteString("\nDraft excerpt:\n")
	sb.WriteString(excerpt)
	sb.WriteString(`

Find sentences in the excerpt that directly contradict a canonical fact.
Respond with one JSON object:
{
  "issues": [
    {"category": "world|character|plot|history",
     "title": "short label",
     "sentence": "the contradicting sentence, quoted as closely as possible",
     "anchor": "the canonical statement it contradicts",
     "reason": "why this is a direct contradiction",
     "rewrite": "optional suggested fix",
     "severity": "low|medium|high"}
  ],
  "fiction_terms": ["in-universe terms that must not be fact-checked"]
}
Report nothing for hedged, inferred, or merely ambiguous mismatches.
If there are no contradictions, return {"issues": [], "fiction_terms": []}.`)
	return sb.String()
}

func buildResolutionPrompt(issues []model.ResolvedIssue, fullText string) string {
	var sb strings.Builder
	sb.WriteString("Apparent contradictions found in the draft:\n")
	for i, issue := range issues {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s — sentence: %q — reason: %s\n",
			i, issue.Category, issue.Title, issue.Located, issue.Reason))
	}
	sb.WriteString("\nFull draft:\n")
	sb.WriteString(fullText)
	sb.WriteString(`

For each numbered contradiction, decide whether the draft later explicitly
retracts or resolves it (for example, the text states the conflicting fact
changed). Respond with one JSON object:
{"verdicts": [{"index": 0, "resolved": true|false}, ...]}`)
	return sb.String()
}
