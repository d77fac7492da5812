// Package docket reconstructs the PJe document-listing table from the raw
// text of a case printout. Rows carry a 5-8 digit document id, a date, a
// time, a free-text label and a normalized document type.
package docket

import (
	"regexp"
	"strings"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/textutil"
)

// Row is one entry of the case's document table.
type Row struct {
	ID    string // 5 digits, or 8 when a wrapped 3-digit suffix was reassembled
	Date  string // dd/mm/yyyy
	Time  string // hh:mm
	Label string // free-text document label
	Type  string // normalized type from the fixed vocabulary
}

// typePhrases are the document-type phrases that terminate a table row.
// Order matters: longer alternatives first so the regexp engine prefers them.
const typePhrases = `Pet[ií][çc][ãa]o Inicial` +
	`|Pet[ií][çc][ãa]o` +
	`|Certid[ãa]o` +
	`|Intima[çc][ãa]o` +
	`|Manifesta[çc][ãa]o(?:\s+do\s+Minist[ée]rio\s+P[úu]blico)?` +
	`|Parecer(?:\s+do\s+Minist[ée]rio\s+P[úu]blico)?` +
	`|Despacho` +
	`|Sistema` +
	`|Documento Comprobat[óo]rio`

var (
	rowPattern = regexp.MustCompile(
		`(?i)^\s*(\d{5})\s+(\d{2}/\d{2}/\d{4})\s+(\d{2}:\d{2})\s+(.*?)\s*\b(` + typePhrases + `)\s*$`)
	suffixPattern = regexp.MustCompile(`^\s*(\d{3})\s*$`)
)

// accent repairs for type strings whose diacritics were lost in extraction.
var typeRepairs = strings.NewReplacer(
	"peticao", "petição",
	"petiçao", "petição",
	"peticão", "petição",
	"certidao", "certidão",
	"intimacao", "intimação",
	"manifestacao", "manifestação",
	"ministerio", "ministério",
	"publico", "público",
	"comprobatorio", "comprobatório",
)

// normalizeType lowercases, repairs accents and maps the phrase into the
// fixed vocabulary. A manifestation by the Public Prosecutor's Office is
// functionally an opinion in this workflow, so it is re-labeled "parecer".
func normalizeType(t string) string {
	t = typeRepairs.Replace(strings.ToLower(textutil.NormalizeSpaces(t)))
	switch t {
	case "manifestação do ministério público", "parecer do ministério público":
		return "parecer"
	}
	return t
}

// Parse scans the normalized lines of text for table rows. A standalone
// 3-digit line immediately after a row is a wrapped id suffix and is
// concatenated onto the row's 5-digit id. Returns the rows in document
// order; an empty slice when nothing matches.
func Parse(text string) []Row {
	var rows []Row
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		m := rowPattern.FindStringSubmatch(textutil.NormalizeSpaces(lines[i]))
		if m == nil {
			continue
		}
		id := m[1]
		if i+1 < len(lines) {
			if s := suffixPattern.FindStringSubmatch(textutil.NormalizeSpaces(lines[i+1])); s != nil {
				id += s[1]
				i++
			}
		}
		rows = append(rows, Row{
			ID:    id,
			Date:  m[2],
			Time:  m[3],
			Label: textutil.NormalizeSpaces(m[4]),
			Type:  normalizeType(m[5]),
		})
	}
	return rows
}
