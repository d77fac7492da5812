// Package extract orchestrates one case PDF end to end: acquire page text,
// parse the docket table, classify page roles and resolve every output field.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/acquire"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/classify"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/docket"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/fields"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/textutil"
)

// Service runs extractions. Safe for concurrent use; all per-document state
// lives in the acquisition Document.
type Service struct {
	acq    *acquire.Acquirer
	cls    *classify.Classifier
	logger *slog.Logger
}

func NewService(acq *acquire.Acquirer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		acq:    acq,
		cls:    classify.New(logger),
		logger: logger,
	}
}

// Process extracts the full field record from the PDF at path. Failing to
// open the PDF is the only error; every downstream miss surfaces as an
// absent field.
func (s *Service) Process(ctx context.Context, path string) (fields.Record, error) {
	doc, err := s.acq.Open(path)
	if err != nil {
		return fields.Record{}, fmt.Errorf("process %s: %w", path, err)
	}
	defer doc.Close()

	pages := doc.PagesText(ctx)
	rec := s.Assemble(ctx, pages, doc.HeaderOCR, doc)

	s.logger.Info("extraction finished",
		"path", path,
		"pages", len(pages),
		"numero_processo", rec.NumeroProcesso.Present(),
		"requerente", rec.Requerente.Present(),
		"parentesco", rec.Parentesco.Present(),
		"nome_falecido", rec.NomeFalecido.Present(),
		"local_obito", rec.LocalObito.Present(),
		"data", rec.Data.Present(),
		"id_parecer", rec.IDParecer.Present(),
		"id_declaracao", rec.IDDeclaracao.Present(),
		"id_certidoes", len(rec.IDCertidoes),
	)
	return rec, nil
}

// Assemble resolves every field from already-acquired page texts. headerOCR
// and footers may be nil, in which case classification and footer hunting run
// on vector text only.
func (s *Service) Assemble(ctx context.Context, pages []string, headerOCR classify.RegionOCRFunc, footers fields.FooterSource) fields.Record {
	full := strings.Join(pages, "\n\n")
	rows := docket.Parse(full)

	certPages := s.cls.NegativeCertificatePages(ctx, pages, headerOCR)
	declPages := s.cls.DeathCertificatePages(ctx, pages, headerOCR)
	if len(declPages) == 0 {
		// No page passed the declaration filter; hunt the stamp everywhere
		// rather than dropping the field.
		declPages = make([]int, len(pages))
		for i := range pages {
			declPages[i] = i
		}
	}

	var rec fields.Record
	rec.NumeroProcesso = fields.NumeroProcesso(full)
	rec.Requerente = fields.Requerente(full).Map(textutil.TitleCaseName)
	rec.Parentesco, rec.NomeFalecido = fields.ParentescoNomeFalecido(full)
	rec.NomeFalecido = rec.NomeFalecido.Map(textutil.TitleCaseName)
	rec.LocalObito = fields.LocalObito(full).Map(fields.FixUF)
	rec.Data = fields.DataObito(full)
	rec.IDParecer = fields.IDParecer(rows)
	rec.IDDeclaracao = fields.IDDeclaracao(ctx, pages, declPages, footers)
	rec.IDCertidoes = fields.IDCertidoes(ctx, pages, certPages, footers)
	return rec
}
