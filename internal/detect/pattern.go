package detect

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"docsentry/constants"
)

// Rule describes one pattern source: either a regex or a keyword list.
// Higher priority wins when matches overlap.
type Rule struct {
	Label    string
	Category constants.Category
	Pattern  *regexp.Regexp
	Keywords []string
	Priority int
	Validate Validator
}

// DefaultPriority applies to rules that declare none.
const DefaultPriority = 50

// DefaultRules is the fixed detection table. Order is not significant;
// overlap resolution runs on priority, not table position.
var DefaultRules = []Rule{
	{Label: "KARTA", Category: constants.Payment, Pattern: regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`), Priority: 90, Validate: ValidLuhn},
	{Label: "IBAN", Category: constants.Payment, Pattern: regexp.MustCompile(`\b[A-Z]{2}\d{2}(?:\s?\d{4}){6}\b`), Priority: 90, Validate: ValidIBAN},
	{Label: "PESEL", Category: constants.Identity, Pattern: regexp.MustCompile(`\b\d{11}\b`), Priority: 80, Validate: ValidPESEL},
	{Label: "NIP", Category: constants.Identity, Pattern: regexp.MustCompile(`\b\d{3}-?\d{3}-?\d{2}-?\d{2}\b`), Priority: 75, Validate: ValidNIP},
	{Label: "REGON", Category: constants.Identity, Pattern: regexp.MustCompile(`\b\d{9}(?:\d{5})?\b`), Priority: 70, Validate: ValidREGON},
	{Label: "PASSPORT", Category: constants.Identity, Pattern: regexp.MustCompile(`\b[A-Z]{2}\d{7}\b`), Priority: 70},
	{Label: "EMAIL", Category: constants.Contact, Pattern: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), Priority: 60},
	{Label: "DATE", Category: constants.Identity, Pattern: regexp.MustCompile(`\b\d{2}[./-]\d{2}[./-]\d{4}\b`), Priority: 55, Validate: ValidDate},
	{Label: "POSTAL", Category: constants.Location, Pattern: regexp.MustCompile(`\b\d{2}-\d{3}\b`), Priority: 55},
	{Label: "ADDRESS", Category: constants.Location, Pattern: regexp.MustCompile(`(?i)\b(?:ulica|ul\.|al\.|aleja|osiedle|os\.|plac|pl\.)\s+\p{L}[\p{L}0-9]*\s+\d+[A-Za-z]?(?:/\d+)?`), Validate: ValidStreetName},
	{Label: "MONEY", Category: constants.Payment, Pattern: regexp.MustCompile(`\b\d+[.,]?\d*\s?(?:PLN|EUR|USD|GBP)\b`), Priority: 45},
	{Label: "PHONE", Category: constants.Contact, Pattern: regexp.MustCompile(`(\+?48\s?)?(?:\d{3}[-\s]?\d{3}[-\s]?\d{3})`), Priority: 40},
	// Generic long digit run. Lowest priority: it only survives when no
	// structured rule claims the same span.
	{Label: "NUMBER", Category: constants.Other, Pattern: regexp.MustCompile(`\b\d{10,}\b`), Priority: 10},

	{Label: "MEDICAL_CERT", Category: constants.Other, Keywords: []string{"zaświadczenie lekarskie", "orzeczenie o niepełnosprawności"}},
	{Label: "DEAN_LEAVE", Category: constants.Other, Keywords: []string{"urlop dziekański"}},
	{Label: "DISCIPLINARY", Category: constants.Other, Keywords: []string{"dyscyplinarne", "przewinień"}},
	{Label: "PASSPORT_CTX", Category: constants.Identity, Keywords: []string{"numer paszportu", "nr paszportu"}},
	{Label: "VISA_CTX", Category: constants.Identity, Keywords: []string{"numer wizy", "nr wizy"}},
	{Label: "RESIDENCE_CTX", Category: constants.Identity, Keywords: []string{"karta pobytu", "dokument pobytowy"}},
	{Label: "BIRTHDATE_CTX", Category: constants.Identity, Keywords: []string{"data urodzenia"}},
	{Label: "EXAM_PROTOCOL", Category: constants.Other, Keywords: []string{"protokoły egzaminacyjne", "protokół egzaminacyjny"}},
	{Label: "THESIS", Category: constants.Other, Keywords: []string{"praca dyplomowa"}},
	{Label: "INVOICE", Category: constants.Payment, Keywords: []string{"faktura"}},
}

// RuleLabels returns the label vocabulary of the default table, in table
// order. The model prompt embeds this so both sources speak the same labels.
func RuleLabels() []string {
	out := make([]string, 0, len(DefaultRules))
	seen := make(map[string]struct{}, len(DefaultRules))
	for _, r := range DefaultRules {
		if _, ok := seen[r.Label]; ok {
			continue
		}
		seen[r.Label] = struct{}{}
		out = append(out, r.Label)
	}
	return out
}

// span is a validated candidate with its text position, used only for
// overlap resolution.
type span struct {
	start, end int
	priority   int
	finding    Finding
}

// PatternExtractor detects sensitive data with the fixed rule table.
type PatternExtractor struct {
	rules    []Rule
	keywords map[string]*regexp.Regexp
	logger   *slog.Logger
}

func NewPatternExtractor(logger *slog.Logger) *PatternExtractor {
	return NewPatternExtractorWithRules(DefaultRules, logger)
}

// NewPatternExtractorWithRules builds an extractor over a custom rule table.
func NewPatternExtractorWithRules(rules []Rule, logger *slog.Logger) *PatternExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	// Keywords match case-insensitively over the original text. Indexing a
	// lowered copy would drift on runes whose lowercase form has a
	// different byte length, so each keyword compiles to a (?i) pattern.
	keywords := make(map[string]*regexp.Regexp)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if _, ok := keywords[kw]; !ok {
				keywords[kw] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw))
			}
		}
	}
	return &PatternExtractor{rules: rules, keywords: keywords, logger: logger}
}

// Extract runs all rules over the text, validates candidates, resolves
// overlaps by priority and returns the surviving findings in document order.
func (p *PatternExtractor) Extract(_ context.Context, text string) ([]Finding, error) {
	if strings.TrimSpace(text) == "" {
		return []Finding{}, nil
	}

	candidates := p.matchAll(text)

	// Priority first, then position. End desc so the longer of two
	// same-priority matches starting together wins; label keeps the
	// order total.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end > b.end
		}
		return a.finding.Label < b.finding.Label
	})

	var accepted []span
	for _, c := range candidates {
		if overlapsAny(c, accepted) {
			continue
		}
		accepted = append(accepted, c)
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })

	type key struct {
		cat   constants.Category
		value string
		label string
	}
	seen := make(map[key]struct{}, len(accepted))
	findings := make([]Finding, 0, len(accepted))
	for _, s := range accepted {
		k := key{s.finding.Category, s.finding.Value, s.finding.Label}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		findings = append(findings, s.finding)
	}
	return findings, nil
}

func (p *PatternExtractor) matchAll(text string) []span {
	var out []span

	for i := range p.rules {
		rule := &p.rules[i]
		priority := rule.Priority
		if priority == 0 {
			priority = DefaultPriority
		}

		if rule.Pattern != nil {
			for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
				value := text[loc[0]:loc[1]]
				if rule.Validate != nil && !p.safeValidate(rule, value) {
					continue
				}
				out = append(out, span{
					start:    loc[0],
					end:      loc[1],
					priority: priority,
					finding:  Finding{Category: rule.Category, Value: value, Label: rule.Label, Source: SourcePattern},
				})
			}
		}

		for _, kw := range rule.Keywords {
			for _, loc := range p.keywords[kw].FindAllStringIndex(text, -1) {
				out = append(out, span{
					start:    loc[0],
					end:      loc[1],
					priority: priority,
					finding:  Finding{Category: rule.Category, Value: text[loc[0]:loc[1]], Label: rule.Label, Source: SourcePattern},
				})
			}
		}
	}
	return out
}

// safeValidate runs the rule's validator, mapping a panic to rejection.
func (p *PatternExtractor) safeValidate(rule *Rule, value string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("detect.pattern.validator_panic", "label", rule.Label, "panic", r)
			ok = false
		}
	}()
	return rule.Validate(value)
}

func overlapsAny(c span, accepted []span) bool {
	for _, a := range accepted {
		if c.start < a.end && a.start < c.end {
			return true
		}
	}
	return false
}
