package classify

import "regexp"

// Pattern tables are compiled once at startup and never mutated. Everything
// here matches against folded text (lowercase, diacritics stripped), so the
// patterns are written accent-free.

// Negative civil-registry certificate signals.
var (
	// Title phrase: "certidão ... negativa", tolerating wording between the
	// two words ("certidão de registro de óbito negativa" and variants).
	negativeTitle = regexp.MustCompile(`(?s)certidao\b.{0,80}?\bnegativa`)

	// Hard exclusions: pages that carry these are something else entirely.
	negativeExclusions = []*regexp.Regexp{
		regexp.MustCompile(`certidao\s+de\s+nascimento`),
		regexp.MustCompile(`declaracao\s+de\s+nascido\s+vivo`),
		regexp.MustCompile(`excelentissimo[a]?\s+senhor[a]?`),
		regexp.MustCompile(`juiz[o]?\s+de\s+direito`),
		regexp.MustCompile(`peticao\s+inicial`),
		regexp.MustCompile(`ministerio\s+publico`),
		regexp.MustCompile(`promotor(?:ia)?\s+de\s+justica`),
	}

	// Registrar-office corroboration: explicit registry phrases.
	registrarMarkers = []*regexp.Regexp{
		regexp.MustCompile(`serventia\s+extrajudicial`),
		regexp.MustCompile(`registro\s+civil`),
		regexp.MustCompile(`cartorio`),
		regexp.MustCompile(`oficial[a]?\s+d[eo]\s+registro`),
		regexp.MustCompile(`tabeliao|tabelionato`),
	}

	// Strong notarial boilerplate also counts as corroboration.
	notarialMarkers = []*regexp.Regexp{
		regexp.MustCompile(`selo\s+(?:digital|de\s+autenticidade|de\s+fiscalizacao)`),
		regexp.MustCompile(`autenticidade\s+(?:desta?|do)\s+(?:certidao|documento|selo)`),
		regexp.MustCompile(`consulte?\s+a\s+autenticidade`),
		regexp.MustCompile(`emolumento`),
	}

	// Table-style certificate markers. Observed but not required.
	tableMarkers = []*regexp.Regexp{
		regexp.MustCompile(`genitor\s*1`),
		regexp.MustCompile(`genitor\s*2`),
		regexp.MustCompile(`\bhash\b`),
	}

	obitoMention = regexp.MustCompile(`\bobito\b`)
)

// Death-certificate header signals.
var (
	deathDeclarationPhrase = regexp.MustCompile(`declaracao\s+de\s+obito`)

	// Pages that look like a birth certificate or a civil-registry office
	// sheet must not be taken for the health-authority death declaration.
	deathExclusions = []*regexp.Regexp{
		regexp.MustCompile(`certidao\s+de\s+nascimento`),
		regexp.MustCompile(`registro\s+civil\s+das\s+pessoas\s+naturais`),
	}

	// Distinct-hit keyword list for the death declaration form. At least two
	// must be present for a page to qualify.
	deathKeywords = []*regexp.Regexp{
		regexp.MustCompile(`declaracao\s+de\s+obito`),
		regexp.MustCompile(`ministerio\s+da\s+saude`),
		regexp.MustCompile(`republica\s+federativa\s+do\s+brasil`),
		regexp.MustCompile(`causas\s+da\s+morte`),
		regexp.MustCompile(`cartorio\s+do\s+registro\s+civil`),
	}
)

func anyMatch(patterns []*regexp.Regexp, folded string) bool {
	for _, p := range patterns {
		if p.MatchString(folded) {
			return true
		}
	}
	return false
}

func countDistinct(patterns []*regexp.Regexp, folded string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(folded) {
			n++
		}
	}
	return n
}
