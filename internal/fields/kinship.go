package fields

import (
	"regexp"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/textutil"
)

// Petitions state the requester's relation to the decedent ("filha de MARIA
// ..."), while the output field carries the decedent's relation to the
// requester. Each matched relation word is therefore inverted, and the
// inverted term gendered by the decedent when the document says which.

const kinshipAlternation = `filh[oa]|sobrinh[oa]|irm[ãa][oa]?|vi[úu]v[oa]|genro|nora|cunhad[oa]|padrasto|madrasta|entead[oa]|net[oa]|pai|m[ãa]e|av[ôóo]|ti[oa]|espos[oa]|marido|companheir[oa]|c[ôo]njuge`

const (
	upperNameWord = `[A-ZÁÉÍÓÚÂÊÔÃÕÇ]{2,}|E`
	titleNameWord = `[A-ZÁÉÍÓÚÂÊÔÃÕÇ][a-záéíóúâêôãõç]+|d[aeo]s?|e`

	upperName = `((?:` + upperNameWord + `)(?:\s+(?:` + upperNameWord + `)){1,7})`
	titleName = `([A-ZÁÉÍÓÚÂÊÔÃÕÇ][a-záéíóúâêôãõç]+(?:\s+(?:` + titleNameWord + `)){1,7})`
)

var (
	kinshipUpperPattern = regexp.MustCompile(`\b(?i:(` + kinshipAlternation + `))\s+(?i:d[aeo]s?)\s+` + upperName)
	kinshipTitlePattern = regexp.MustCompile(`\b(?i:(` + kinshipAlternation + `))\s+(?i:d[aeo]s?)\s+` + titleName)

	// Tolerates OCR debris between the relation word and the connective,
	// up to 10 stray characters on one line.
	kinshipFuzzyUpperPattern = regexp.MustCompile(`\b(?i:(` + kinshipAlternation + `))[^\n]{0,10}?\b(?i:d[aeo]s?)\b\s*` + upperName)
	kinshipFuzzyTitlePattern = regexp.MustCompile(`\b(?i:(` + kinshipAlternation + `))[^\n]{0,10}?\b(?i:d[aeo]s?)\b\s*` + titleName)

	femaleSignalPattern = regexp.MustCompile(`(?i)\b(?:falecida|vi[úu]va|inventariada|extinta|de\s+cujus,?\s+falecida)\b`)
	maleSignalPattern   = regexp.MustCompile(`(?i)\b(?:falecido|vi[úu]vo|inventariado|extinto)\b`)
)

// genderWindow is how far past the kinship match the decedent descriptors
// ("falecida", "inventariado") are searched before falling back to the whole
// document.
const genderWindow = 250

type gender int

const (
	genderUnknown gender = iota
	genderMale
	genderFemale
)

type inversion struct {
	male    string
	female  string
	neutral string
}

var kinshipInversions = map[string]inversion{
	"pai":         {"filho", "filha", "filho(a)"},
	"mae":         {"filho", "filha", "filho(a)"},
	"filho":       {"pai", "mãe", "pai/mãe"},
	"filha":       {"pai", "mãe", "pai/mãe"},
	"neto":        {"avô", "avó", "avô/avó"},
	"neta":        {"avô", "avó", "avô/avó"},
	"avo":         {"neto", "neta", "neto(a)"},
	"irmao":       {"irmão", "irmã", "irmão(ã)"},
	"irma":        {"irmão", "irmã", "irmão(ã)"},
	"sobrinho":    {"tio", "tia", "tio(a)"},
	"sobrinha":    {"tio", "tia", "tio(a)"},
	"tio":         {"sobrinho", "sobrinha", "sobrinho(a)"},
	"tia":         {"sobrinho", "sobrinha", "sobrinho(a)"},
	"genro":       {"sogro", "sogra", "sogro(a)"},
	"nora":        {"sogro", "sogra", "sogro(a)"},
	"cunhado":     {"cunhado", "cunhada", "cunhado(a)"},
	"cunhada":     {"cunhado", "cunhada", "cunhado(a)"},
	"padrasto":    {"enteado", "enteada", "enteado(a)"},
	"madrasta":    {"enteado", "enteada", "enteado(a)"},
	"enteado":     {"padrasto", "madrasta", "padrasto/madrasta"},
	"enteada":     {"padrasto", "madrasta", "padrasto/madrasta"},
	"viuvo":       {"cônjuge", "cônjuge", "cônjuge"},
	"viuva":       {"cônjuge", "cônjuge", "cônjuge"},
	"esposo":      {"cônjuge", "cônjuge", "cônjuge"},
	"esposa":      {"cônjuge", "cônjuge", "cônjuge"},
	"marido":      {"cônjuge", "cônjuge", "cônjuge"},
	"companheiro": {"cônjuge", "cônjuge", "cônjuge"},
	"companheira": {"cônjuge", "cônjuge", "cônjuge"},
	"conjuge":     {"cônjuge", "cônjuge", "cônjuge"},
}

// kinshipMatch is one "<relation> de <name>" occurrence.
type kinshipMatch struct {
	relation string // relation word as written
	name     string // decedent name as written
	start    int    // byte offset of the match
	end      int    // byte offset past the name
}

// findKinship locates the first relation-plus-name statement, preferring the
// strict all-caps form, then the capitalized form, then the noise-tolerant
// variants of both.
func findKinship(text string) (kinshipMatch, bool) {
	patterns := []*regexp.Regexp{
		kinshipUpperPattern,
		kinshipTitlePattern,
		kinshipFuzzyUpperPattern,
		kinshipFuzzyTitlePattern,
	}
	for _, p := range patterns {
		if loc := p.FindStringSubmatchIndex(text); loc != nil {
			return kinshipMatch{
				relation: text[loc[2]:loc[3]],
				name:     text[loc[4]:loc[5]],
				start:    loc[0],
				end:      loc[1],
			}, true
		}
	}
	return kinshipMatch{}, false
}

// inferGender looks for decedent descriptors near the match first, then
// anywhere in the document, taking whichever gendered descriptor appears
// first.
func inferGender(window, full string) gender {
	if g := firstSignal(window); g != genderUnknown {
		return g
	}
	return firstSignal(full)
}

func firstSignal(s string) gender {
	f := femaleSignalPattern.FindStringIndex(s)
	m := maleSignalPattern.FindStringIndex(s)
	switch {
	case f == nil && m == nil:
		return genderUnknown
	case f == nil:
		return genderMale
	case m == nil:
		return genderFemale
	case f[0] < m[0]:
		return genderFemale
	default:
		return genderMale
	}
}

// invertKinship maps the requester's stated relation to the decedent's
// relation to the requester, gendered by g where the inversion is gendered.
func invertKinship(relation string, g gender) string {
	inv, ok := kinshipInversions[textutil.Fold(relation)]
	if !ok {
		return textutil.Fold(relation)
	}
	switch g {
	case genderMale:
		return inv.male
	case genderFemale:
		return inv.female
	default:
		return inv.neutral
	}
}

// ParentescoNomeFalecido resolves the decedent's relation to the requester and
// the decedent's name from one relation statement in the text. Both fields are
// absent when no statement is found.
func ParentescoNomeFalecido(text string) (parentesco, nome FieldResult) {
	m, ok := findKinship(text)
	if !ok {
		return Absent(), Absent()
	}

	stop := m.end + genderWindow
	if stop > len(text) {
		stop = len(text)
	}
	g := inferGender(text[m.start:stop], text)

	return Found(invertKinship(m.relation, g)), Found(textutil.NormalizeSpaces(m.name))
}
