package llm

import (
	"strings"
	"unicode/utf8"
)

// maxPromptChars bounds how much document text goes into a single request.
const maxPromptChars = 12000

// BuildSystemPrompt composes the system message: task, category enum,
// label vocabulary and strict output rules. Categories and labels must be
// the same vocabulary the pattern rules emit, so merged results collide on
// identical keys instead of near-duplicates.
func BuildSystemPrompt(categories, labels []string) string {
	parts := []string{
		"You are a sensitive-data detector for Polish administrative documents.",
		"Find every occurrence of personal identifiers (PESEL, NIP, REGON, passport numbers, birth dates, names), " +
			"contact data (addresses, phone numbers, e-mail), payment data (bank accounts, card numbers, amounts, salaries), " +
			"and other sensitive content (medical certificates, disciplinary matters, academic records).",
		"For each occurrence emit a JSON object with fields 'type', 'value' and 'label'.",
		"'type' MUST be exactly one of: " + strings.Join(categories, ", ") + ".",
		"'value' is the exact text as it appears in the document, character for character.",
		"'label' is a short uppercase tag naming what was found. Prefer these when they apply: " + strings.Join(labels, ", ") + ".",
		"Return ONLY a single JSON array containing all objects. No commentary, no markdown.",
		"If nothing sensitive is present, return [].",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the document text, truncated to keep the
// request within budget.
func BuildUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Text to analyze:\n")
	if len(text) > maxPromptChars {
		// Back off to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := maxPromptChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		b.WriteString(text[:cut])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
