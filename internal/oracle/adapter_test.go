package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hansollee/lorecheck/internal/model"
)

// fakeProvider returns canned text or a canned error
type fakeProvider struct {
	text string
	err  error

	lastPrompt string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return f.err == nil }

func (f *fakeProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	f.lastPrompt = req.Prompt
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Text: f.text, Model: "fake-model"}, nil
}

func testAnchors() []model.Anchor {
	return []model.Anchor{
		{Statement: "character[hero].injury = left_arm_broken", Category: model.CategoryCharacter},
		{Statement: "world.magic = false", Category: model.CategoryWorld},
	}
}

func TestPropose_ParsesIssuesAndFictionTerms(t *testing.T) {
	provider := &fakeProvider{text: "```json\n" + `{
		"issues": [
			{"category": "character", "title": "부상당한 팔 사용",
			 "sentence": "왼손으로 검을 휘둘렀다",
			 "anchor": "character[hero].injury = left_arm_broken",
			 "reason": "왼팔 골절 상태와 직접 모순된다",
			 "severity": "high"}
		],
		"fiction_terms": ["마나석", "흑요기사단"]
	}` + "\n```"}

	adapter := NewAdapter(provider, nil, nil)
	got := adapter.Propose(context.Background(), testAnchors(), "그는 왼손으로 검을 휘둘렀다.")

	if got.Degraded {
		t.Fatal("Expected non-degraded proposal")
	}
	if len(got.Issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d", len(got.Issues))
	}
	issue := got.Issues[0]
	if issue.Category != model.CategoryCharacter || issue.Severity != model.SeverityHigh {
		t.Errorf("Unexpected issue fields: %+v", issue)
	}
	if len(got.FictionTerms) != 2 {
		t.Errorf("Expected 2 fiction terms, got %v", got.FictionTerms)
	}
	if !strings.Contains(provider.lastPrompt, "character[hero].injury = left_arm_broken") {
		t.Error("Expected anchors serialized into the prompt")
	}
}

func TestPropose_BareArrayAccepted(t *testing.T) {
	provider := &fakeProvider{text: `[{"category": "world", "title": "t", "sentence": "s", "reason": "r", "severity": "low"}]`}

	adapter := NewAdapter(provider, nil, nil)
	got := adapter.Propose(context.Background(), testAnchors(), "본문")

	if got.Degraded || len(got.Issues) != 1 {
		t.Fatalf("Expected bare array to parse, got %+v", got)
	}
}

func TestPropose_SanitizesUnknownFields(t *testing.T) {
	provider := &fakeProvider{text: `{"issues": [{"category": "cosmic", "title": "t", "sentence": "s", "reason": "r", "severity": "catastrophic"}]}`}

	adapter := NewAdapter(provider, nil, nil)
	got := adapter.Propose(context.Background(), testAnchors(), "본문")

	if len(got.Issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d", len(got.Issues))
	}
	if got.Issues[0].Severity != model.SeverityMedium {
		t.Errorf("Unknown severity should default to medium, got %s", got.Issues[0].Severity)
	}
	if got.Issues[0].Category != model.CategoryPlot {
		t.Errorf("Unknown category should default to plot, got %s", got.Issues[0].Category)
	}
}

func TestPropose_CallFailureDegrades(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}

	adapter := NewAdapter(provider, nil, nil)
	got := adapter.Propose(context.Background(), testAnchors(), "본문")

	if !got.Degraded {
		t.Fatal("Expected degraded proposal")
	}
	if len(got.Issues) != 1 {
		t.Fatalf("Expected exactly the placeholder issue, got %d", len(got.Issues))
	}
	ph := got.Issues[0]
	if ph.Sentence != PlaceholderHint {
		t.Errorf("Placeholder hint should be %q, got %q", PlaceholderHint, ph.Sentence)
	}
	if ph.Severity != model.SeverityHigh {
		t.Errorf("Placeholder severity should be high, got %s", ph.Severity)
	}
	if !strings.Contains(ph.Reason, "could not be completed") {
		t.Errorf("Placeholder reason should explain the failure, got %q", ph.Reason)
	}
}

func TestPropose_UnparseableResponseDegrades(t *testing.T) {
	provider := &fakeProvider{text: "I found no issues worth mentioning, great chapter!"}

	adapter := NewAdapter(provider, nil, nil)
	got := adapter.Propose(context.Background(), testAnchors(), "본문")

	if !got.Degraded || len(got.Issues) != 1 {
		t.Fatalf("Expected placeholder for unparseable response, got %+v", got)
	}
}

func TestPropose_NoProviderDegrades(t *testing.T) {
	adapter := NewAdapter(nil, nil, nil)
	got := adapter.Propose(context.Background(), testAnchors(), "본문")

	if !got.Degraded {
		t.Fatal("Expected degraded proposal without a provider")
	}
}

func resolvedIssues() []model.ResolvedIssue {
	return []model.ResolvedIssue{
		{CandidateIssue: model.CandidateIssue{Title: "a", Reason: "r"}, Located: "문장 하나"},
		{CandidateIssue: model.CandidateIssue{Title: "b", Reason: "r"}, Located: "문장 둘"},
	}
}

func TestCheckResolution_ParsesVerdicts(t *testing.T) {
	provider := &fakeProvider{text: `{"verdicts": [{"index": 0, "resolved": true}, {"index": 1, "resolved": false}]}`}

	adapter := NewAdapter(provider, nil, nil)
	got := adapter.CheckResolution(context.Background(), resolvedIssues(), "전체 본문")

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("Expected [true false], got %v", got)
	}
}

func TestCheckResolution_FailureDefaultsToNotResolved(t *testing.T) {
	provider := &fakeProvider{err: errors.New("timeout")}

	adapter := NewAdapter(provider, nil, nil)
	got := adapter.CheckResolution(context.Background(), resolvedIssues(), "전체 본문")

	for i, r := range got {
		if r {
			t.Errorf("Verdict %d should default to not resolved on failure", i)
		}
	}
}

func TestCheckResolution_IgnoresOutOfRangeIndexes(t *testing.T) {
	provider := &fakeProvider{text: `{"verdicts": [{"index": 7, "resolved": true}, {"index": -1, "resolved": true}]}`}

	adapter := NewAdapter(provider, nil, nil)
	got := adapter.CheckResolution(context.Background(), resolvedIssues(), "전체 본문")

	if got[0] || got[1] {
		t.Errorf("Out-of-range verdicts must be ignored, got %v", got)
	}
}
