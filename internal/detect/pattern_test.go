package detect

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsentry/constants"
)

func extract(t *testing.T, text string) []Finding {
	t.Helper()
	findings, err := NewPatternExtractor(nil).Extract(context.Background(), text)
	require.NoError(t, err)
	return findings
}

func labels(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.Label
	}
	return out
}

func TestPatternExtractor_EmptyText(t *testing.T) {
	findings := extract(t, "")
	assert.NotNil(t, findings)
	assert.Empty(t, findings)

	findings = extract(t, "   \n\t ")
	assert.Empty(t, findings)
}

func TestPatternExtractor_PESELChecksum(t *testing.T) {
	valid := extract(t, "PESEL pracownika: 44051401359.")
	require.Len(t, valid, 1)
	assert.Equal(t, "PESEL", valid[0].Label)
	assert.Equal(t, constants.Identity, valid[0].Category)
	assert.Equal(t, "44051401359", valid[0].Value)

	// Mutated check digit: must not surface as PESEL.
	mutated := extract(t, "PESEL pracownika: 44051401358.")
	assert.NotContains(t, labels(mutated), "PESEL")
}

func TestPatternExtractor_CardBeatsDigitRun(t *testing.T) {
	findings := extract(t, "numer karty 4532015112830366 na fakturze")

	cardSeen := false
	for _, f := range findings {
		switch f.Label {
		case "KARTA":
			cardSeen = true
			assert.Equal(t, constants.Payment, f.Category)
			assert.Equal(t, "4532015112830366", f.Value)
		case "NUMBER", "PHONE", "PESEL":
			t.Fatalf("digit-run label %s must not survive the card overlap", f.Label)
		}
	}
	assert.True(t, cardSeen)
}

func TestPatternExtractor_NIPWithSeparators(t *testing.T) {
	findings := extract(t, "NIP: 526-025-02-74")
	require.Len(t, findings, 1)
	assert.Equal(t, "NIP", findings[0].Label)
	assert.Equal(t, "526-025-02-74", findings[0].Value)
}

func TestPatternExtractor_IBANWinsOverEmbeddedCard(t *testing.T) {
	findings := extract(t, "konto: PL61 1090 1014 0000 0712 1981 2874")
	require.Len(t, findings, 1)
	assert.Equal(t, "IBAN", findings[0].Label)
	assert.Equal(t, constants.Payment, findings[0].Category)
}

func TestPatternExtractor_Keywords(t *testing.T) {
	findings := extract(t, "W załączeniu Zaświadczenie lekarskie z dnia 12.05.2023.")

	var keyword, date *Finding
	for i := range findings {
		switch findings[i].Label {
		case "MEDICAL_CERT":
			keyword = &findings[i]
		case "DATE":
			date = &findings[i]
		}
	}
	require.NotNil(t, keyword)
	// Verbatim slice of the input, not the lowercased needle.
	assert.Equal(t, "Zaświadczenie lekarskie", keyword.Value)
	assert.Equal(t, constants.Other, keyword.Category)
	require.NotNil(t, date)
	assert.Equal(t, "12.05.2023", date.Value)
}

func TestPatternExtractor_KeywordOffsetsSurviveCaseFolding(t *testing.T) {
	// U+023A lowercases to U+2C65, growing from 2 to 3 bytes. Keyword
	// offsets must stay anchored to the original text regardless.
	findings := extract(t, strings.Repeat("Ⱥ", 20)+" faktura")
	require.Len(t, findings, 1)
	assert.Equal(t, "INVOICE", findings[0].Label)
	assert.Equal(t, "faktura", findings[0].Value)

	findings = extract(t, "Ⱥ FAKTURA nr 7")
	require.Len(t, findings, 1)
	assert.Equal(t, "INVOICE", findings[0].Label)
	assert.Equal(t, "FAKTURA", findings[0].Value)
}

func TestPatternExtractor_AddressCase(t *testing.T) {
	findings := extract(t, "zamieszkały ul. Kwiatowa 15/3 w Krakowie")
	require.Len(t, findings, 1)
	assert.Equal(t, "ADDRESS", findings[0].Label)
	assert.Equal(t, constants.Location, findings[0].Category)

	lower := extract(t, "zamieszkały ul. kwiatowa 15/3 w Krakowie")
	assert.NotContains(t, labels(lower), "ADDRESS")
}

func TestPatternExtractor_DedupIdenticalMatches(t *testing.T) {
	findings := extract(t, "PESEL 44051401359 oraz ponownie PESEL 44051401359")
	count := 0
	for _, f := range findings {
		if f.Label == "PESEL" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestPatternExtractor_EmailAndPostal(t *testing.T) {
	findings := extract(t, "kontakt: jan.kowalski@example.com, 00-950 Warszawa")
	got := labels(findings)
	assert.Contains(t, got, "EMAIL")
	assert.Contains(t, got, "POSTAL")
}

func TestPatternExtractor_ValidatorPanicIsRejection(t *testing.T) {
	rules := []Rule{
		{
			Label:    "BOOM",
			Category: constants.Other,
			Pattern:  regexp.MustCompile(`\bboom\b`),
			Validate: func(string) bool { panic("validator bug") },
		},
	}
	findings, err := NewPatternExtractorWithRules(rules, nil).Extract(context.Background(), "boom goes the validator")
	require.NoError(t, err)
	assert.Empty(t, findings)
}
