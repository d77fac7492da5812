// Package classify decides page roles inside a case PDF: negative
// civil-registry certificate pages and death-declaration header pages. Both
// verdicts combine a required marker with corroborating signals and hard
// exclusions over case/accent-folded text.
package classify

import (
	"context"
	"log/slog"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/textutil"
)

// RegionOCRFunc OCRs a fraction of a page on demand. Implementations return
// empty text on failure; the classifier treats empty fragments as "no new
// evidence".
type RegionOCRFunc func(ctx context.Context, page int, frac float64) string

// headerFrac is the portion of the page OCR'd on the second classification
// pass. Titles live in the top half; a full-page OCR would be slower and
// noisier for a title-driven decision.
const headerFrac = 0.55

// NegativeSignals are the per-page boolean signals behind the negative
// civil-registry certificate verdict.
type NegativeSignals struct {
	Title         bool // "certidão ... negativa" title present
	Corroboration bool // registrar-office phrase or strong notarial boilerplate
	Excluded      bool // birth certificate / petition header / prosecutor marks
	TableMarks    bool // genitor/hash table fields (informational)
	ObitoMention  bool // informational
}

// Certificate reports whether the signals amount to a negative-certificate
// verdict. Title, corroboration and the absence of exclusions are all
// mandatory; a bare "CERTIDÃO NEGATIVA" title is not enough.
func (s NegativeSignals) Certificate() bool {
	return s.Title && s.Corroboration && !s.Excluded
}

// EvaluateNegative computes the negative-certificate signals for one text
// fragment.
func EvaluateNegative(text string) NegativeSignals {
	folded := textutil.Fold(text)
	return NegativeSignals{
		Title:         negativeTitle.MatchString(folded),
		Corroboration: anyMatch(registrarMarkers, folded) || anyMatch(notarialMarkers, folded),
		Excluded:      anyMatch(negativeExclusions, folded),
		TableMarks:    anyMatch(tableMarkers, folded),
		ObitoMention:  obitoMention.MatchString(folded),
	}
}

// DeathKeywordHits counts how many of the death-declaration keywords appear
// in the text. Distinct keywords, not occurrences.
func DeathKeywordHits(text string) int {
	return countDistinct(deathKeywords, textutil.Fold(text))
}

// Classifier runs the page-role decisions for a document. A zero-value
// Classifier is not usable; construct with New.
type Classifier struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger}
}

// NegativeCertificatePages returns the indices (0-based) of pages classified
// as negative civil-registry certificates. Pages undecided on their full text
// get a second pass on an OCR'd top-of-page crop.
func (c *Classifier) NegativeCertificatePages(ctx context.Context, pages []string, headerOCR RegionOCRFunc) []int {
	var out []int
	for i, text := range pages {
		sig := EvaluateNegative(text)
		if sig.Certificate() {
			c.logger.Debug("negative certificate page", "page", i+1, "pass", "body",
				"table_marks", sig.TableMarks, "obito", sig.ObitoMention)
			out = append(out, i)
			continue
		}
		if sig.Excluded || headerOCR == nil {
			continue
		}
		// Undecided: the title or its corroboration may live in a poorly
		// extracted header. Reclassify on a header crop only.
		frag := headerOCR(ctx, i, headerFrac)
		if frag == "" {
			continue
		}
		if sig := EvaluateNegative(frag); sig.Certificate() {
			c.logger.Debug("negative certificate page", "page", i+1, "pass", "header-ocr")
			out = append(out, i)
		}
	}
	return out
}

// DeathCertificatePages returns the indices (0-based) of pages that look like
// the health-authority death declaration. Callers fall back to every page
// when the result is empty, so an over-strict filter never silently loses
// the field.
func (c *Classifier) DeathCertificatePages(ctx context.Context, pages []string, headerOCR RegionOCRFunc) []int {
	var out []int
	for i, text := range pages {
		combined := text
		folded := textutil.Fold(text)
		if !deathDeclarationPhrase.MatchString(folded) {
			if headerOCR == nil {
				continue
			}
			frag := headerOCR(ctx, i, headerFrac)
			if frag == "" || !deathDeclarationPhrase.MatchString(textutil.Fold(frag)) {
				continue
			}
			combined = text + "\n" + frag
		}
		if anyMatch(deathExclusions, textutil.Fold(combined)) {
			continue
		}
		hits := DeathKeywordHits(combined)
		c.logger.Debug("death declaration candidate", "page", i+1, "keyword_hits", hits)
		if hits >= 2 {
			out = append(out, i)
		}
	}
	return out
}
