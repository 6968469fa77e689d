package detect

import (
	"sort"
	"strings"

	"docsentry/constants"
	"docsentry/internal/entity"
)

// Merge deduplicates findings from all sources into the boundary shape.
//
// Stage A drops exact duplicates on a normalized (value, category) key,
// model findings first so their label survives a collision. Stage B drops
// same-category strict substrings of an already kept value, longest values
// first, and retroactively removes kept values that a newcomer swallows.
// Stage C fixes the output order and strips source tags. The whole thing
// is deterministic and idempotent.
func Merge(findings []Finding) []entity.DetectedItem {
	type keyed struct {
		Finding
		norm string
	}

	byKey := make(map[string]struct{}, len(findings))
	var stage1 []keyed
	for _, source := range []Source{SourceModel, SourcePattern} {
		for _, f := range findings {
			if f.Source != source {
				continue
			}
			if strings.TrimSpace(f.Value) == "" {
				continue
			}
			norm := strings.ToLower(strings.TrimSpace(f.Value))
			key := norm + "\x00" + string(f.Category)
			if _, ok := byKey[key]; ok {
				continue
			}
			byKey[key] = struct{}{}
			stage1 = append(stage1, keyed{Finding: f, norm: norm})
		}
	}

	// Longest first; model wins length ties.
	sort.SliceStable(stage1, func(i, j int) bool {
		li, lj := len(stage1[i].Value), len(stage1[j].Value)
		if li != lj {
			return li > lj
		}
		return stage1[i].Source == SourceModel && stage1[j].Source != SourceModel
	})

	var stage2 []keyed
	for _, cand := range stage1 {
		redundant := false
		for _, kept := range stage2 {
			if kept.Category == cand.Category && cand.Value != kept.Value && strings.Contains(kept.Value, cand.Value) {
				redundant = true
				break
			}
		}
		if redundant {
			continue
		}

		filtered := stage2[:0]
		for _, kept := range stage2 {
			if kept.Category == cand.Category && kept.Value != cand.Value && strings.Contains(cand.Value, kept.Value) {
				continue
			}
			filtered = append(filtered, kept)
		}
		stage2 = append(filtered, cand)
	}

	items := make([]entity.DetectedItem, 0, len(stage2))
	for _, f := range stage2 {
		label := f.Label
		if label == "" {
			label = "UNKNOWN"
		}
		cat := f.Category
		if cat == "" {
			cat = constants.Other
		}
		items = append(items, entity.DetectedItem{Category: cat, Value: f.Value, Label: label})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Value < items[j].Value
	})
	return items
}
