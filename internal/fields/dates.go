package fields

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/textutil"
)

const monthAlternation = `janeiro|fevereiro|mar[çc]o|abril|maio|junho|julho|agosto|setembro|outubro|novembro|dezembro`

var monthNumbers = map[string]int{
	"janeiro":   1,
	"fevereiro": 2,
	"marco":     3,
	"abril":     4,
	"maio":      5,
	"junho":     6,
	"julho":     7,
	"agosto":    8,
	"setembro":  9,
	"outubro":   10,
	"novembro":  11,
	"dezembro":  12,
}

var (
	dmyPattern     = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})\b`)
	isoPattern     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	extensoPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?:º|o)?\s+de\s+(` + monthAlternation + `)\s+de\s+(\d{4})\b`)

	// "falecido em Cidade - UF, no dia 5 de março de 2021" narrative, the
	// most reliable statement of the death date when present. The city-UF
	// segment is required; a looser "falecido ... dia ..." phrase defers to
	// the later strategies.
	deathExtensoPattern = regexp.MustCompile(
		`(?is)falecid[oa]\s+(?:em|na|no)\s+(?-i:` + cityWord +
			`(?:\s+(?:d[aeo]s?\s+)?` + cityWord + `){0,5}\s*[-–—]\s*[A-Z]{2})` +
			`\s*,?\s*(?:no\s+)?dia\s+(\d{1,2})(?:º|o)?\s+de\s+(` + monthAlternation + `)\s+de\s+(\d{4})\b`)

	// \b cannot sit before an accented letter, so the left boundary is an
	// explicit non-letter guard.
	deathWordPattern  = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:falecimento|faleceu|falecid[oa]|[óo]bito)\b`)
	causaMortisAnchor = regexp.MustCompile(`(?i)\bcausas?\s+(?:da\s+)?mort(?:is|e)\b`)
)

// deathWordWindow is how far after a death-vocabulary hit a date is still
// considered to refer to the death.
const deathWordWindow = 160

// FindDate locates the first date in s in any accepted written form and
// normalizes it to dd/mm/yyyy. Numeric forms take precedence over the
// spelled-out form.
func FindDate(s string) (string, bool) {
	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		return formatBRDate(m[1], m[2], m[3])
	}
	if m := isoPattern.FindStringSubmatch(s); m != nil {
		return formatBRDate(m[3], m[2], m[1])
	}
	if m := extensoPattern.FindStringSubmatch(s); m != nil {
		return extensoToBR(m[1], m[2], m[3])
	}
	return "", false
}

func formatBRDate(day, month, year string) (string, bool) {
	d, _ := strconv.Atoi(day)
	m, _ := strconv.Atoi(month)
	y, _ := strconv.Atoi(year)
	if d < 1 || d > 31 || m < 1 || m > 12 || y < 1500 {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%04d", d, m, y), true
}

func extensoToBR(day, month, year string) (string, bool) {
	m, ok := monthNumbers[textutil.Fold(month)]
	if !ok {
		return "", false
	}
	return formatBRDate(day, strconv.Itoa(m), year)
}

// DataObito resolves the date of death from the combined document text.
// Strategies, in order: the narrative "falecido ... dia N de <mês> de YYYY"
// statement; a date within reach of the last death-vocabulary word; the last
// date before the "causa mortis" anchor; the first date anywhere.
func DataObito(text string) FieldResult {
	if m := deathExtensoPattern.FindStringSubmatch(text); m != nil {
		if v, ok := extensoToBR(m[1], m[2], m[3]); ok {
			return Found(v)
		}
	}

	if locs := deathWordPattern.FindAllStringIndex(text, -1); len(locs) > 0 {
		end := locs[len(locs)-1][1]
		stop := end + deathWordWindow
		if stop > len(text) {
			stop = len(text)
		}
		if v, ok := FindDate(text[end:stop]); ok {
			return Found(v)
		}
	}

	if anchor := causaMortisAnchor.FindStringIndex(text); anchor != nil {
		if v, ok := lastDate(text[:anchor[0]]); ok {
			return Found(v)
		}
	}

	if v, ok := FindDate(text); ok {
		return Found(v)
	}
	return Absent()
}

// lastDate returns the positionally last date in s, numeric or spelled out.
func lastDate(s string) (string, bool) {
	best := -1
	var value string

	take := func(start int, v string, ok bool) {
		if ok && start > best {
			best, value = start, v
		}
	}

	for _, m := range dmyPattern.FindAllStringSubmatchIndex(s, -1) {
		v, ok := formatBRDate(s[m[2]:m[3]], s[m[4]:m[5]], s[m[6]:m[7]])
		take(m[0], v, ok)
	}
	for _, m := range isoPattern.FindAllStringSubmatchIndex(s, -1) {
		v, ok := formatBRDate(s[m[6]:m[7]], s[m[4]:m[5]], s[m[2]:m[3]])
		take(m[0], v, ok)
	}
	for _, m := range extensoPattern.FindAllStringSubmatchIndex(s, -1) {
		v, ok := extensoToBR(s[m[2]:m[3]], s[m[4]:m[5]], s[m[6]:m[7]])
		take(m[0], v, ok)
	}

	return value, best >= 0
}
