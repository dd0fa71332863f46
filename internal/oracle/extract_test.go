package oracle

import (
	"encoding/json"
	"testing"
)

func TestBestEffortJSON_FencedBlock(t *testing.T) {
	text := "Here is my analysis.\n```json\n{\"issues\": [{\"title\": \"t\"}]}\n```\nDone."

	raw, ok := BestEffortJSON(text, "issues")
	if !ok {
		t.Fatal("Expected fenced block to parse")
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("Extracted JSON is invalid: %v", err)
	}
	if _, found := payload["issues"]; !found {
		t.Error("Expected issues key in extracted object")
	}
}

func TestBestEffortJSON_FencedBlockWithoutLanguage(t *testing.T) {
	text := "```\n[1, 2, 3]\n```"

	raw, ok := BestEffortJSON(text, "issues")
	if !ok {
		t.Fatal("Expected plain fenced block to parse")
	}
	var arr []int
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) != 3 {
		t.Errorf("Expected [1,2,3], got %s (%v)", raw, err)
	}
}

func TestBestEffortJSON_NarrowKeyPattern(t *testing.T) {
	text := `The result follows. {"issues": [], "fiction_terms": ["마나석"]} Hope that helps!`

	raw, ok := BestEffortJSON(text, "issues")
	if !ok {
		t.Fatal("Expected key-pattern extraction to succeed")
	}
	if !json.Valid(raw) {
		t.Errorf("Extracted JSON is invalid: %s", raw)
	}
}

func TestBestEffortJSON_BalancedScan(t *testing.T) {
	// no fence, payload key differs from the expected one
	text := `Sure thing: {"verdicts": [{"index": 0, "resolved": false}]} as requested.`

	raw, ok := BestEffortJSON(text, "missing_key")
	if !ok {
		t.Fatal("Expected balanced scan to succeed")
	}
	var payload resolutionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(payload.Verdicts) != 1 || payload.Verdicts[0].Resolved {
		t.Errorf("Unexpected payload: %+v", payload)
	}
}

func TestBestEffortJSON_BracesInsideStrings(t *testing.T) {
	text := `{"issues": [{"reason": "the text says \"{beware}\" here"}]}`

	raw, ok := BestEffortJSON(text, "issues")
	if !ok {
		t.Fatal("Expected extraction despite braces inside strings")
	}
	if !json.Valid(raw) {
		t.Errorf("Extracted JSON is invalid: %s", raw)
	}
}

func TestBestEffortJSON_AllTiersFail(t *testing.T) {
	for _, text := range []string{
		"No structure here at all.",
		"Unbalanced { opening only",
		"```\nnot json\n```",
	} {
		if raw, ok := BestEffortJSON(text, "issues"); ok {
			t.Errorf("Expected failure for %q, got %s", text, raw)
		}
	}
}
