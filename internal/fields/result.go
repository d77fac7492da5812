// Package fields resolves the nine structured fields of a death-record
// supplement case from acquired page text. Every resolver is a prioritized
// cascade of tolerant pattern strategies; the first match wins and a miss is
// a normal absence, never an error.
package fields

import "fmt"

// FieldResult is a present-or-absent field value. Absence is first-class:
// it appears in the output shape and is never reported as an error.
type FieldResult struct {
	value   string
	present bool
}

// Found wraps a resolved value.
func Found(v string) FieldResult {
	return FieldResult{value: v, present: true}
}

// Absent is the no-strategy-matched result.
func Absent() FieldResult {
	return FieldResult{}
}

// Present reports whether a value was resolved.
func (r FieldResult) Present() bool {
	return r.present
}

// Value returns the resolved value, empty when absent.
func (r FieldResult) Value() string {
	return r.value
}

// Map applies fn to a present value and leaves an absent result untouched.
func (r FieldResult) Map(fn func(string) string) FieldResult {
	if !r.present {
		return r
	}
	return Found(fn(r.value))
}

// Citation locates a document id stamped in a page footer.
type Citation struct {
	Page int    `json:"page"` // 1-based page the citation was found on
	Num  string `json:"num"`  // document id after "Num."
	Pag  string `json:"pag"`  // page number within the citation
}

func (c Citation) String() string {
	return fmt.Sprintf("Num. %s - Pág. %s", c.Num, c.Pag)
}

// Record is the full extraction result, one FieldResult per canonical field.
type Record struct {
	NumeroProcesso FieldResult
	Requerente     FieldResult
	Parentesco     FieldResult
	NomeFalecido   FieldResult
	LocalObito     FieldResult
	Data           FieldResult
	IDParecer      FieldResult
	IDDeclaracao   FieldResult
	IDCertidoes    []Citation
}

// CanonicalOrder is the fixed output order of the nine fields.
var CanonicalOrder = []string{
	"numero_processo",
	"requerente",
	"parentesco",
	"nome_falecido",
	"local_obito",
	"data",
	"id_parecer",
	"id_declaracao",
	"id_certidoes",
}

// ReviewData is the wire shape served to and accepted from the review
// frontend. Absent fields become empty strings.
type ReviewData struct {
	NumeroProcesso string   `json:"numero_processo"`
	Requerente     string   `json:"requerente"`
	Parentesco     string   `json:"parentesco"`
	NomeFalecido   string   `json:"nome_falecido"`
	LocalObito     string   `json:"local_obito"`
	Data           string   `json:"data"`
	IDParecer      string   `json:"id_parecer"`
	IDDeclaracao   string   `json:"id_declaracao"`
	IDCertidoes    []string `json:"id_certidoes"`
}

// Review flattens the record into its wire shape.
func (r Record) Review() ReviewData {
	certs := make([]string, 0, len(r.IDCertidoes))
	for _, c := range r.IDCertidoes {
		certs = append(certs, c.String())
	}
	return ReviewData{
		NumeroProcesso: r.NumeroProcesso.Value(),
		Requerente:     r.Requerente.Value(),
		Parentesco:     r.Parentesco.Value(),
		NomeFalecido:   r.NomeFalecido.Value(),
		LocalObito:     r.LocalObito.Value(),
		Data:           r.Data.Value(),
		IDParecer:      r.IDParecer.Value(),
		IDDeclaracao:   r.IDDeclaracao.Value(),
		IDCertidoes:    certs,
	}
}
