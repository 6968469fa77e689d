package constants

import (
	"strings"
)

// Category classifies a detected sensitive item.
type Category string

const (
	Identity Category = "identity"
	Contact  Category = "contact"
	Location Category = "location"
	Payment  Category = "payment"
	Other    Category = "other"
)

var allCategories = []Category{
	Identity,
	Contact,
	Location,
	Payment,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps free-form category names onto the enum. Source documents
// and model output use the legacy Polish vocabulary, so those are mapped too.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map, legacy vocabulary included
	synonyms := map[string]Category{
		"id":            Identity,
		"tożsamość":     Identity,
		"tozsamosc":     Identity,
		"personal":      Identity,
		"pii":           Identity,
		"kontakt":       Contact,
		"contact_info":  Contact,
		"adres":         Location,
		"address":       Location,
		"lokalizacja":   Location,
		"finansowe":     Payment,
		"financial":     Payment,
		"finance":       Payment,
		"bank":          Payment,
		"card":          Payment,
		"medyczne":      Other,
		"medical":       Other,
		"edukacyjne":    Other,
		"education":     Other,
		"inne":          Other,
		"miscellaneous": Other,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}
