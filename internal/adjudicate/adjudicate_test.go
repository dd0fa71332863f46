package adjudicate

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/hansollee/lorecheck/internal/model"
)

// stubOracle resolves the issues whose located sentence matches a key
type stubOracle struct {
	resolvedSentences map[string]bool

	mu       sync.Mutex
	calls    int
	maxBatch int
}

func (s *stubOracle) CheckResolution(ctx context.Context, issues []model.ResolvedIssue, fullText string) []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(issues) > s.maxBatch {
		s.maxBatch = len(issues)
	}
	out := make([]bool, len(issues))
	for i, issue := range issues {
		out[i] = s.resolvedSentences[issue.Located]
	}
	return out
}

func anchorPool() []model.Anchor {
	return []model.Anchor{
		{Statement: "character[hero].injury = left_arm_broken", Category: model.CategoryCharacter},
		{Statement: "world.magic = false", Category: model.CategoryWorld},
		{Statement: "episode[3].events[0] = 낙마", Category: model.CategoryHistory},
	}
}

func TestValidateAnchor_TokenOverlapBestMatch(t *testing.T) {
	got, ok := ValidateAnchor("hero injury broken arm", anchorPool())
	if !ok {
		t.Fatal("Expected anchor validation to succeed")
	}
	if got != "character[hero].injury = left_arm_broken" {
		t.Errorf("Expected injury anchor, got %q", got)
	}
}

func TestValidateAnchor_NoOverlapDiscards(t *testing.T) {
	if _, ok := ValidateAnchor("완전히 무관한 참조", anchorPool()); ok {
		t.Error("Expected no match for disjoint reference")
	}
	if _, ok := ValidateAnchor("", anchorPool()); ok {
		t.Error("Expected no match for empty reference")
	}
}

func TestHasHedge(t *testing.T) {
	hedged := []string{
		"주인공이 다쳤을 가능성이 있다",
		"이 설정과 모순일 수 있다",
		"The wound might be healed by now",
		"the timeline is unclear here",
	}
	for _, r := range hedged {
		if !HasHedge(r) {
			t.Errorf("Expected hedge in %q", r)
		}
	}

	direct := []string{
		"왼팔 골절 상태에서 왼손으로 검을 휘두르는 것은 직접적인 모순이다",
		"The draft states the opposite of the canonical fact",
	}
	for _, r := range direct {
		if HasHedge(r) {
			t.Errorf("Did not expect hedge in %q", r)
		}
	}
}

func TestMerge_SameSentenceCollapses(t *testing.T) {
	issues := []model.ResolvedIssue{
		{
			CandidateIssue: model.CandidateIssue{
				Category: model.CategoryCharacter, Title: "부상 모순",
				Reason: "왼팔이 부러진 상태다", Severity: model.SeverityMedium,
			},
			Start: 10, End: 40, Located: "왼손으로 검을 휘둘렀다",
		},
		{
			CandidateIssue: model.CandidateIssue{
				Category: model.CategoryPlot, Title: "전개 모순",
				Reason: "이전 화의 부상 묘사와 충돌한다", Severity: model.SeverityHigh,
			},
			Start: 10, End: 40, Located: "왼손으로 검을 휘둘렀다",
		},
	}

	merged := Merge(issues)
	if len(merged) != 1 {
		t.Fatalf("Expected 1 merged issue, got %d", len(merged))
	}
	got := merged[0]
	if got.Category != model.CategoryMixed {
		t.Errorf("Expected mixed category, got %s", got.Category)
	}
	if got.Title != "character/plot" {
		t.Errorf("Expected joined category labels, got %q", got.Title)
	}
	if got.Severity != model.SeverityHigh {
		t.Errorf("Merged severity must be the max, got %s", got.Severity)
	}
	if !strings.Contains(got.Reason, ";") {
		t.Errorf("Expected both rationales joined, got %q", got.Reason)
	}
}

func TestMerge_ReasonUnionCappedAtThree(t *testing.T) {
	var issues []model.ResolvedIssue
	reasons := []string{"r1", "r2", "r3", "r4", "r1"}
	for _, r := range reasons {
		issues = append(issues, model.ResolvedIssue{
			CandidateIssue: model.CandidateIssue{
				Category: model.CategoryWorld, Reason: r, Severity: model.SeverityLow,
			},
			Located: "같은 문장",
		})
	}

	merged := Merge(issues)
	if len(merged) != 1 {
		t.Fatalf("Expected 1 merged issue, got %d", len(merged))
	}
	if got := len(strings.Split(merged[0].Reason, "; ")); got != 3 {
		t.Errorf("Expected 3 deduplicated reasons, got %d (%q)", got, merged[0].Reason)
	}
}

func TestMerge_SingletonsPassThrough(t *testing.T) {
	issues := []model.ResolvedIssue{
		{
			CandidateIssue: model.CandidateIssue{Category: model.CategoryWorld, Title: "a", Severity: model.SeverityHigh},
			Start:          50, End: 60, Located: "문장 둘",
		},
		{
			CandidateIssue: model.CandidateIssue{Category: model.CategoryPlot, Title: "b", Severity: model.SeverityMedium},
			Start:          5, End: 15, Located: "문장 하나",
		},
	}

	merged := Merge(issues)
	if len(merged) != 2 {
		t.Fatalf("Expected 2 issues, got %d", len(merged))
	}
	// ordered by position in the text
	if merged[0].Start != 5 || merged[1].Start != 50 {
		t.Errorf("Expected output ordered by span start, got %+v", merged)
	}
	if merged[0].Category == model.CategoryMixed || merged[1].Category == model.CategoryMixed {
		t.Error("Singletons must keep their category")
	}
}

// Scenario A: direct contradiction survives every gate and is emitted
func TestAdjudicate_ContradictionEmitted(t *testing.T) {
	fullText := "강무혁은 자리에서 일어났다. 그는 왼손으로 검을 휘둘렀다. 전투는 계속되었다."
	candidates := []model.CandidateIssue{{
		Category:  model.CategoryCharacter,
		Title:     "부상당한 팔 사용",
		Sentence:  "왼손으로 검을 휘둘렀다",
		AnchorRef: "character[hero].injury = left_arm_broken",
		Reason:    "왼팔 골절 상태와 직접 모순된다",
		Severity:  model.SeverityHigh,
	}}

	oracle := &stubOracle{}
	adj := New(oracle, nil, model.SeverityMedium, 5, 2)
	issues := adj.Adjudicate(context.Background(), candidates, anchorPool(), fullText)

	if len(issues) != 1 {
		t.Fatalf("Expected 1 emitted issue, got %d", len(issues))
	}
	got := issues[0]
	if got.Sentence != "왼손으로 검을 휘둘렀다" {
		t.Errorf("Expected located sentence, got %q", got.Sentence)
	}
	if fullText[got.Start:got.End] != got.Sentence {
		t.Errorf("Span does not slice back to the sentence: %q", fullText[got.Start:got.End])
	}
	if oracle.calls != 1 {
		t.Errorf("Expected exactly one resolution-check call, got %d", oracle.calls)
	}
}

// Scenario B: the draft later retracts the contradiction, issue discarded
func TestAdjudicate_ResolvedLaterDiscarded(t *testing.T) {
	fullText := "그는 왼손으로 검을 휘둘렀다. 사실 그의 팔은 이미 다 나았다."
	candidates := []model.CandidateIssue{{
		Category:  model.CategoryCharacter,
		Title:     "부상당한 팔 사용",
		Sentence:  "왼손으로 검을 휘둘렀다",
		AnchorRef: "character[hero].injury = left_arm_broken",
		Reason:    "왼팔 골절 상태와 직접 모순된다",
		Severity:  model.SeverityHigh,
	}}

	oracle := &stubOracle{resolvedSentences: map[string]bool{"왼손으로 검을 휘둘렀다": true}}
	adj := New(oracle, nil, model.SeverityMedium, 5, 2)
	issues := adj.Adjudicate(context.Background(), candidates, anchorPool(), fullText)

	if len(issues) != 0 {
		t.Errorf("Expected resolved issue discarded, got %+v", issues)
	}
}

// Scenario C: a hedged rationale is discarded regardless of severity
func TestAdjudicate_HedgedRationaleDiscarded(t *testing.T) {
	fullText := "그는 왼손으로 검을 휘둘렀다."
	candidates := []model.CandidateIssue{{
		Category:  model.CategoryCharacter,
		Title:     "부상당한 팔 사용",
		Sentence:  "왼손으로 검을 휘둘렀다",
		AnchorRef: "character[hero].injury = left_arm_broken",
		Reason:    "부상이 아직 낫지 않았을 수 있다, 모순일 수 있다",
		Severity:  model.SeverityHigh,
	}}

	oracle := &stubOracle{}
	adj := New(oracle, nil, model.SeverityMedium, 5, 2)
	issues := adj.Adjudicate(context.Background(), candidates, anchorPool(), fullText)

	if len(issues) != 0 {
		t.Errorf("Expected hedged candidate discarded, got %+v", issues)
	}
	if oracle.calls != 0 {
		t.Errorf("Hedged candidate must not reach the resolution check, got %d calls", oracle.calls)
	}
}

func TestAdjudicate_SeverityThreshold(t *testing.T) {
	fullText := "첫 문장이다. 둘째 문장이다. 셋째 문장이다."
	mk := func(sentence string, sev model.Severity) model.CandidateIssue {
		return model.CandidateIssue{
			Category:  model.CategoryWorld,
			Title:     "t",
			Sentence:  sentence,
			AnchorRef: "world.magic = false",
			Reason:    "설정과 정면으로 충돌한다",
			Severity:  sev,
		}
	}
	candidates := []model.CandidateIssue{
		mk("첫 문장이다", model.SeverityLow),
		mk("둘째 문장이다", model.SeverityMedium),
		mk("셋째 문장이다", model.SeverityHigh),
	}

	for _, tc := range []struct {
		threshold model.Severity
		want      int
	}{
		{model.SeverityLow, 3},
		{model.SeverityMedium, 2},
		{model.SeverityHigh, 1},
	} {
		adj := New(&stubOracle{}, nil, tc.threshold, 5, 2)
		issues := adj.Adjudicate(context.Background(), candidates, anchorPool(), fullText)
		if len(issues) != tc.want {
			t.Errorf("threshold %s: expected %d issues, got %d", tc.threshold, tc.want, len(issues))
		}
	}
}

func TestAdjudicate_UnlocatableSentenceDiscarded(t *testing.T) {
	fullText := "마차는 덜컹거리며 산길을 올랐다."
	candidates := []model.CandidateIssue{{
		Category:  model.CategoryWorld,
		Title:     "t",
		Sentence:  "용이 하늘에서 불을 뿜었다",
		AnchorRef: "world.magic = false",
		Reason:    "설정과 정면으로 충돌한다",
		Severity:  model.SeverityHigh,
	}}

	adj := New(&stubOracle{}, nil, model.SeverityMedium, 5, 2)
	issues := adj.Adjudicate(context.Background(), candidates, anchorPool(), fullText)

	if len(issues) != 0 {
		t.Errorf("Expected unlocatable candidate discarded, got %+v", issues)
	}
}

func TestAdjudicate_BatchesResolutionChecks(t *testing.T) {
	var sentences []string
	var sb strings.Builder
	for _, s := range []string{
		"첫째 문장이다", "둘째 문장이다", "셋째 문장이다",
		"넷째 문장이다", "다섯째 문장이다", "여섯째 문장이다", "일곱째 문장이다",
	} {
		sentences = append(sentences, s)
		sb.WriteString(s)
		sb.WriteString(". ")
	}
	fullText := sb.String()

	var candidates []model.CandidateIssue
	for _, s := range sentences {
		candidates = append(candidates, model.CandidateIssue{
			Category:  model.CategoryWorld,
			Title:     "t",
			Sentence:  s,
			AnchorRef: "world.magic = false",
			Reason:    "설정과 정면으로 충돌한다",
			Severity:  model.SeverityHigh,
		})
	}

	oracle := &stubOracle{}
	adj := New(oracle, nil, model.SeverityMedium, 3, 2)
	issues := adj.Adjudicate(context.Background(), candidates, anchorPool(), fullText)

	if len(issues) != len(sentences) {
		t.Fatalf("Expected all %d issues to survive, got %d", len(sentences), len(issues))
	}
	if oracle.calls != 3 {
		t.Errorf("Expected 3 batches of size <= 3, got %d calls", oracle.calls)
	}
	if oracle.maxBatch > 3 {
		t.Errorf("Batch size exceeded: %d", oracle.maxBatch)
	}
}
