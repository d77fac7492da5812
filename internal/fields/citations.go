package fields

import (
	"context"
	"regexp"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/docket"
)

// FooterSource serves page footers on demand, cheapest first: embedded vector
// text, then an OCR of the rendered footer strip.
type FooterSource interface {
	FooterVectorText(page int) string
	FooterOCR(ctx context.Context, page int, frac float64) string
}

// declFooterFrac is the footer strip height used when hunting the death
// declaration stamp; the stamp sits higher than the regular footer line.
const declFooterFrac = 0.28

// numPagPatterns is the "Num. N - Pág. P" footer stamp ladder, strict first,
// then increasingly tolerant of OCR damage to the separators.
var numPagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Num\.\s*(\d+)\s*[-–—]\s*P[áa]g\.?\s*(\d+)`),
	regexp.MustCompile(`(?is)Num\.\s*(\d+).{0,12}?P[áa]g\.?\s*(\d+)`),
	regexp.MustCompile(`(?i)Num[.\s]*(\d+)[\s\-–—]*P[áa]g[.\s]*(\d+)`),
	regexp.MustCompile(`(?is)Num\D{0,6}?(\d+)\D{1,6}?P[áa]g\D{0,6}?(\d+)`),
}

func findNumPag(text string) (num, pag string, ok bool) {
	if text == "" {
		return "", "", false
	}
	for _, p := range numPagPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}

// IDParecer returns the docket id of the last opinion row, either a Parecer
// or a Manifestação filed by the prosecution.
func IDParecer(rows []docket.Row) FieldResult {
	for i := len(rows) - 1; i >= 0; i-- {
		switch rows[i].Type {
		case "parecer", "manifestação":
			return Found(rows[i].ID)
		}
	}
	return Absent()
}

// pageCitation runs the stamp ladder over one page: body text, then the
// footer sources.
func pageCitation(ctx context.Context, body string, page int, footers FooterSource, frac float64) (Citation, bool) {
	if num, pag, ok := findNumPag(body); ok {
		return Citation{Page: page + 1, Num: num, Pag: pag}, true
	}
	return footerCitation(ctx, page, footers, frac)
}

// footerCitation runs the stamp ladder over a page's footer only: vector
// footer text first, OCR of the rendered footer strip second.
func footerCitation(ctx context.Context, page int, footers FooterSource, frac float64) (Citation, bool) {
	if footers == nil {
		return Citation{}, false
	}
	if num, pag, ok := findNumPag(footers.FooterVectorText(page)); ok {
		return Citation{Page: page + 1, Num: num, Pag: pag}, true
	}
	if num, pag, ok := findNumPag(footers.FooterOCR(ctx, page, frac)); ok {
		return Citation{Page: page + 1, Num: num, Pag: pag}, true
	}
	return Citation{}, false
}

// IDDeclaracao resolves the footer stamp of the first death declaration page.
// candidates are 0-based page indexes, pages the full page-text slice.
func IDDeclaracao(ctx context.Context, pages []string, candidates []int, footers FooterSource) FieldResult {
	for _, p := range candidates {
		if p < 0 || p >= len(pages) {
			continue
		}
		if c, ok := pageCitation(ctx, pages[p], p, footers, declFooterFrac); ok {
			return Found(c.String())
		}
	}
	return Absent()
}

// IDCertidoes resolves one footer stamp per negative-certificate page. The
// stamp is read from the footer only; certificate bodies quote docket numbers
// of other filings, so the page body is never consulted. When a certificate
// page carries no readable footer of its own, the immediately previous page's
// footer is tried, then the following one; either way the citation is
// attributed to the certificate page.
func IDCertidoes(ctx context.Context, pages []string, candidates []int, footers FooterSource) []Citation {
	var out []Citation
	for _, p := range candidates {
		if p < 0 || p >= len(pages) {
			continue
		}
		c, ok := footerCitation(ctx, p, footers, 0)
		if !ok {
			for _, neighbor := range []int{p - 1, p + 1} {
				if neighbor < 0 || neighbor >= len(pages) {
					continue
				}
				if nc, nok := footerCitation(ctx, neighbor, footers, 0); nok {
					c, ok = Citation{Page: p + 1, Num: nc.Num, Pag: nc.Pag}, true
					break
				}
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}
