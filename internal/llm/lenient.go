package llm

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// wrapperKeys are tried in order when the model wraps the list in an object.
var wrapperKeys = []string{"result", "results", "items", "data", "detections", "findings"}

// ErrNoDecodableList means no strategy produced a list from the payload.
var ErrNoDecodableList = errors.New("no decodable detection list in model output")

// Strategy is one lenient decoding attempt. The chain runs in order and
// the first success wins; the name ends up in logs so misbehaving model
// output can be traced to the shape it actually had.
type Strategy struct {
	Name string
	Fn   func(raw []byte) ([]Item, bool)
}

// Strategies is the lenient decode chain applied when strict schema
// validation fails.
var Strategies = []Strategy{
	{Name: "direct_list", Fn: decodeDirectList},
	{Name: "single_object", Fn: decodeSingleObject},
	{Name: "wrapper_key", Fn: decodeWrapperKey},
	{Name: "first_list_value", Fn: decodeFirstListValue},
}

// DecodeLenient runs the strategy chain over raw, then over an extracted
// fragment (fenced code block or outermost brackets) if the raw payload
// yields nothing. Returns the items and the name of the winning strategy.
func DecodeLenient(raw []byte) ([]Item, string, error) {
	trimmed := []byte(strings.TrimSpace(string(raw)))

	for _, s := range Strategies {
		if items, ok := s.Fn(trimmed); ok {
			return items, s.Name, nil
		}
	}

	if frag, ok := extractFragment(string(trimmed)); ok {
		for _, s := range Strategies {
			if items, ok := s.Fn([]byte(frag)); ok {
				return items, "fragment+" + s.Name, nil
			}
		}
	}

	return nil, "", ErrNoDecodableList
}

// decodeDirectList accepts a JSON array. Elements that are not complete
// type/value/label objects are dropped one by one.
func decodeDirectList(raw []byte) ([]Item, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	return itemsFromRaw(elems), true
}

// decodeSingleObject accepts one bare detection object.
func decodeSingleObject(raw []byte) ([]Item, bool) {
	var it Item
	if err := json.Unmarshal(raw, &it); err != nil {
		return nil, false
	}
	if !it.Complete() {
		return nil, false
	}
	return []Item{it}, true
}

// decodeWrapperKey accepts {"results": [...]} and friends.
func decodeWrapperKey(raw []byte) ([]Item, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	for _, key := range wrapperKeys {
		inner, ok := m[key]
		if !ok {
			continue
		}
		if items, ok := decodeDirectList(inner); ok {
			return items, true
		}
	}
	return nil, false
}

// decodeFirstListValue scans object values (in key order, for determinism)
// for the first list that contains at least one complete detection object.
func decodeFirstListValue(raw []byte) ([]Item, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var elems []json.RawMessage
		if err := json.Unmarshal(m[k], &elems); err != nil {
			continue
		}
		if items := itemsFromRaw(elems); len(items) > 0 {
			return items, true
		}
	}
	return nil, false
}

func itemsFromRaw(elems []json.RawMessage) []Item {
	items := make([]Item, 0, len(elems))
	for _, e := range elems {
		var it Item
		if err := json.Unmarshal(e, &it); err != nil {
			continue
		}
		if !it.Complete() {
			continue
		}
		items = append(items, it)
	}
	return items
}

// extractFragment pulls a JSON-looking fragment out of surrounding prose:
// a fenced code block if present, otherwise the outermost bracket pair.
func extractFragment(s string) (string, bool) {
	if fenced, ok := stripFence(s); ok {
		return fenced, true
	}
	if start := strings.Index(s, "["); start >= 0 {
		if end := strings.LastIndex(s, "]"); end > start {
			return s[start : end+1], true
		}
	}
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1], true
		}
	}
	return "", false
}

func stripFence(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]
	// skip a language tag like ```json
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, "[{") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
