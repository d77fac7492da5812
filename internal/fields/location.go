package fields

import (
	"regexp"
	"strings"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/textutil"
)

var (
	cnjPattern = regexp.MustCompile(`\b\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4}\b`)

	requerenteLinePattern = regexp.MustCompile(`(?im)^\s*requerente\s*[:\-–—]\s*(.+)$`)
	requerenteAnyPattern  = regexp.MustCompile(`(?i)requerente\s*[:\-–—]\s*([^\n\r]+)`)

	// "Cidade - UF". Every city word starts uppercase, optionally joined by
	// the d[aeo]s? connectives, so lowercase narrative before the name stays
	// out of the capture.
	cityWord      = `[A-ZÁÉÍÓÚÂÊÔÃÕÇ][A-Za-zÀ-ÿ']*`
	cityUFPattern = regexp.MustCompile(`(` + cityWord + `(?:\s+(?:d[aeo]s?\s+)?` + cityWord + `){0,5})\s*[-–—]\s*([A-Z]{2})\b`)

	// Left boundary is a non-letter guard rather than \b, which cannot
	// precede the accented "óbito".
	deathVerbAnchorPattern = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:falecid[oa]|faleceu|[óo]bito(?:\s+ocorrido)?)\s+(?:em|na|no)\b`)
	localLabelPattern      = regexp.MustCompile(`(?i)local\s+do\s+(?:falecimento|[óo]bito)\s*[:\-–—]?\s*([^\n\r]+)`)
)

// deathVerbWindow is how far past a death verb a city-UF pair still counts as
// the place of death.
const deathVerbWindow = 120

// cityStopWords are court-address vocabulary; a capture containing one is an
// address of the forum, not the place of death.
var cityStopWords = []string{
	"vara", "comarca", "tribunal", "juizo", "justica",
	"forum", "gabinete", "secretaria", "judiciario",
}

// NumeroProcesso finds the CNJ-formatted case number.
func NumeroProcesso(text string) FieldResult {
	if m := cnjPattern.FindString(text); m != "" {
		return Found(m)
	}
	return Absent()
}

// Requerente reads the name after a "REQUERENTE:" label, preferring a label
// that opens its own line over one buried mid-line.
func Requerente(text string) FieldResult {
	for _, p := range []*regexp.Regexp{requerenteLinePattern, requerenteAnyPattern} {
		if m := p.FindStringSubmatch(text); m != nil {
			if v := strings.Trim(textutil.NormalizeSpaces(m[1]), " ,;.-"); v != "" {
				return Found(v)
			}
		}
	}
	return Absent()
}

func validCity(city string) bool {
	city = textutil.NormalizeSpaces(city)
	if city == "" || strings.ContainsAny(city, "0123456789") {
		return false
	}
	tokens := strings.Fields(city)
	if len(tokens) > 6 {
		return false
	}
	folded := textutil.Fold(city)
	for _, stop := range cityStopWords {
		if strings.Contains(folded, stop) {
			return false
		}
	}
	return true
}

func formatCityUF(city, uf string) string {
	return textutil.NormalizeSpaces(strings.Trim(city, " ,.-")) + "-" + uf
}

// firstValidCityUF returns the first validated city-UF pair in s.
func firstValidCityUF(s string) (string, bool) {
	for _, m := range cityUFPattern.FindAllStringSubmatch(s, -1) {
		if validCity(m[1]) {
			return formatCityUF(m[1], m[2]), true
		}
	}
	return "", false
}

// LocalObito resolves the place of death. Only text before the "causa mortis"
// anchor is considered, since the registry section after it repeats city names
// for the certificate office. Strategies, in order: a city-UF pair shortly
// after a death verb; the last valid city-UF pair; a "local do falecimento"
// label; the first valid city-UF pair anywhere.
func LocalObito(text string) FieldResult {
	scope := text
	if anchor := causaMortisAnchor.FindStringIndex(text); anchor != nil {
		scope = text[:anchor[0]]
	}

	for _, loc := range deathVerbAnchorPattern.FindAllStringIndex(scope, -1) {
		stop := loc[1] + deathVerbWindow
		if stop > len(scope) {
			stop = len(scope)
		}
		if v, ok := firstValidCityUF(scope[loc[1]:stop]); ok {
			return Found(v)
		}
	}

	pairs := cityUFPattern.FindAllStringSubmatch(scope, -1)
	for i := len(pairs) - 1; i >= 0; i-- {
		if validCity(pairs[i][1]) {
			return Found(formatCityUF(pairs[i][1], pairs[i][2]))
		}
	}

	if m := localLabelPattern.FindStringSubmatch(scope); m != nil {
		if v, ok := firstValidCityUF(m[1]); ok {
			return Found(v)
		}
		if v := strings.Trim(textutil.NormalizeSpaces(m[1]), " ,;.-"); v != "" && validCity(v) {
			return Found(v)
		}
	}

	if v, ok := firstValidCityUF(scope); ok {
		return Found(v)
	}
	return Absent()
}

// FixUF repairs the recurring OCR confusion of PI read as PL in the state
// suffix.
func FixUF(s string) string {
	if strings.HasSuffix(s, "-PL") {
		return s[:len(s)-2] + "PI"
	}
	return s
}
