package llm

import "strings"

// Item is the raw detection shape the model is asked to emit.
type Item struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// Complete reports whether the item carries everything the contract
// requires. Partial objects are dropped one by one, never the whole batch.
func (it Item) Complete() bool {
	return strings.TrimSpace(it.Value) != "" && it.Type != "" && it.Label != ""
}
