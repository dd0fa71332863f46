// Package anchor flattens the nested canonical-fact snapshot into atomic
// "path = value" statements, the ground truth handed to the oracle.
package anchor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hansollee/lorecheck/internal/model"
)

// Pool and walk caps. These bound the context handed to the oracle while
// keeping the projection reproducible; treat them as contract.
const (
	MaxPool     = 180 // total anchors per run
	maxSeqElems = 60  // sequence elements walked per list
	maxElemKeys = 12  // keys walked per mapping inside a sequence
)

// Build flattens a fact snapshot into an ordered, deterministic anchor pool.
// Anchors are regenerated fresh each run and never mutated.
func Build(sheet model.FactSheet) []model.Anchor {
	var pool []model.Anchor

	add := func(statements []string, cat model.Category) {
		for _, s := range statements {
			if len(pool) >= MaxPool {
				return
			}
			pool = append(pool, model.Anchor{Statement: s, Category: cat})
		}
	}

	add(Flatten(sheet.World, "world"), model.CategoryWorld)

	for _, ch := range sheet.Characters {
		prefix := fmt.Sprintf("character[%s]", characterKey(ch))
		add([]string{prefix + ".name = " + ch.Name}, model.CategoryCharacter)
		add(Flatten(ch.Traits, prefix), model.CategoryCharacter)
	}

	for _, ep := range sheet.Episodes {
		prefix := fmt.Sprintf("episode[%d]", ep.Number)
		if ep.Title != "" {
			add([]string{prefix + ".title = " + ep.Title}, model.CategoryHistory)
		}
		if ep.Summary != "" {
			add([]string{prefix + ".summary = " + ep.Summary}, model.CategoryHistory)
		}
		for i, ev := range ep.Events {
			if i >= maxSeqElems {
				break
			}
			add([]string{fmt.Sprintf("%s.events[%d] = %s", prefix, i, ev)}, model.CategoryHistory)
		}
	}

	return pool
}

func characterKey(ch model.Character) string {
	if ch.ID != "" {
		return ch.ID
	}
	return ch.Name
}

// Flatten walks a nested structure of mappings, sequences, and scalars and
// emits one statement per scalar leaf. Sibling map keys are walked in sorted
// order: the source JSON carries no observable order through Go maps, and
// the output must be order-stable across runs.
func Flatten(value any, prefix string) []string {
	var out []string
	flatten(value, prefix, false, &out)
	return out
}

func flatten(value any, path string, inSeq bool, out *[]string) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			if strings.TrimSpace(k) == "" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if inSeq && len(keys) > maxElemKeys {
			keys = keys[:maxElemKeys]
		}
		for _, k := range keys {
			flatten(v[k], joinPath(path, k), false, out)
		}
	case []any:
		for i, elem := range v {
			if i >= maxSeqElems {
				break
			}
			flatten(elem, fmt.Sprintf("%s[%d]", path, i), true, out)
		}
	default:
		*out = append(*out, path+" = "+scalarString(v))
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(s)
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprintf("%v", s)
	}
}
