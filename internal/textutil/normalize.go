// Package textutil provides the text normalization primitives shared by the
// acquisition, classification and extraction layers. All functions are pure
// and never fail.
package textutil

import (
	"regexp"
	"strings"
)

var spaceRuns = regexp.MustCompile(`\s+`)

// NormalizeSpaces collapses runs of whitespace into single spaces and trims
// the result.
func NormalizeSpaces(s string) string {
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
}

// diacriticFold maps accented characters found in Portuguese court documents
// to their base letters. OCR output drops or garbles accents often enough
// that all matching runs on folded text.
var diacriticFold = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
	'Á': 'A', 'À': 'A', 'Â': 'A', 'Ã': 'A', 'Ä': 'A',
	'É': 'E', 'È': 'E', 'Ê': 'E', 'Ë': 'E',
	'Í': 'I', 'Ì': 'I', 'Î': 'I', 'Ï': 'I',
	'Ó': 'O', 'Ò': 'O', 'Ô': 'O', 'Õ': 'O', 'Ö': 'O',
	'Ú': 'U', 'Ù': 'U', 'Û': 'U', 'Ü': 'U',
	'Ç': 'C', 'Ñ': 'N',
}

// StripDiacritics replaces accented letters with their unaccented
// counterparts, leaving every other rune untouched.
func StripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := diacriticFold[r]; ok {
			b.WriteRune(folded)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Fold lowercases and strips diacritics, producing the canonical form used
// for case/accent-insensitive matching.
func Fold(s string) string {
	return strings.ToLower(StripDiacritics(s))
}

// connectives are name particles kept lowercase when title-casing.
var connectives = map[string]bool{
	"da": true, "de": true, "do": true, "das": true, "dos": true, "e": true,
}

// TitleCaseName title-cases a personal name token-wise: "MARIA DAS DORES" ->
// "Maria das Dores". Hyphenated compounds keep both halves capitalized
// ("SANTOS-FILHO" -> "Santos-Filho"). Connective particles stay lowercase
// except as the leading token.
func TitleCaseName(s string) string {
	tokens := strings.Fields(NormalizeSpaces(s))
	for i, tok := range tokens {
		lower := strings.ToLower(tok)
		if i > 0 && connectives[lower] {
			tokens[i] = lower
			continue
		}
		tokens[i] = titleCaseToken(lower)
	}
	return strings.Join(tokens, " ")
}

func titleCaseToken(lower string) string {
	parts := strings.Split(lower, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		r[0] = toUpperRune(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, "-")
}

func toUpperRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z':
		return r - ('a' - 'A')
	case r >= 'à' && r <= 'þ' && r != '÷':
		return r - 0x20
	}
	return r
}
