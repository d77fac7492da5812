// Package acquire turns a court-case PDF into per-page text. Vector text is
// extracted first; pages too short to be trusted are rasterized and OCR'd.
// Header/footer crops and vector footer clips are available on demand and
// cached for the lifetime of one document.
package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/textutil"
)

// Config holds the acquisition tunables. Zero values are replaced with the
// defaults below by NewAcquirer.
type Config struct {
	Pdftoppm  string // binary name or absolute path
	Tesseract string // binary name or absolute path
	Lang      string // tesseract language, "por" for these documents

	DPI       int // full-page rasterization DPI
	HeaderDPI int // rasterization DPI for header crops
	FooterDPI int // rasterization DPI for footer crops

	HeaderFrac float64 // default top fraction for header OCR
	FooterFrac float64 // default bottom fraction for footer OCR

	OCRWordThreshold int // pages with fewer normalized words go to OCR
	OCRWorkers       int // bound on concurrent page OCR
	PSM              int // tesseract page-segmentation mode, 0 = default
}

const (
	defaultDPI              = 300
	defaultHeaderFrac       = 0.42
	defaultFooterFrac       = 0.22
	defaultOCRWordThreshold = 70
	defaultOCRWorkers       = 2
)

// Acquirer produces Documents and performs every text acquisition step on
// them. Safe for use across documents; per-document state lives in Document.
type Acquirer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewAcquirer(cfg Config, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "por"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = defaultDPI
	}
	if cfg.HeaderDPI <= 0 {
		cfg.HeaderDPI = cfg.DPI
	}
	if cfg.FooterDPI <= 0 {
		cfg.FooterDPI = cfg.DPI
	}
	if cfg.HeaderFrac <= 0 || cfg.HeaderFrac > 1 {
		cfg.HeaderFrac = defaultHeaderFrac
	}
	if cfg.FooterFrac <= 0 || cfg.FooterFrac > 1 {
		cfg.FooterFrac = defaultFooterFrac
	}
	if cfg.OCRWordThreshold <= 0 {
		cfg.OCRWordThreshold = defaultOCRWordThreshold
	}
	if cfg.OCRWorkers <= 0 {
		cfg.OCRWorkers = defaultOCRWorkers
	}
	return &Acquirer{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

type rasterKey struct {
	page int
	dpi  int
}

type regionKey struct {
	page    int
	top     bool
	fracPct int
	dpi     int
}

// Document is the acquisition context for one PDF: the open handle, the
// resolved page texts and the per-page caches. It must be Closed on every
// exit path; Close drops all cached artifacts wholesale.
type Document struct {
	path   string
	tmpDir string
	file   *os.File
	reader *pdf.Reader
	acq    *Acquirer

	// Page access indirection, stubbed by tests. Open points both at the
	// pdf.Reader.
	pageCount  func() int
	vectorText func(page int) string

	pagesOnce sync.Once
	pages     []string

	mu        sync.Mutex
	raster    map[rasterKey]string
	region    map[regionKey]string
	footerVec map[int]*string
}

// Open opens a PDF for acquisition. This is the only fatal failure point of
// the acquisition layer; everything after degrades per page.
func (a *Acquirer) Open(path string) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}

	tmpDir, err := os.MkdirTemp("", "suprimento-doc-*")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	d := &Document{
		path:      path,
		tmpDir:    tmpDir,
		file:      f,
		reader:    reader,
		acq:       a,
		raster:    make(map[rasterKey]string),
		region:    make(map[regionKey]string),
		footerVec: make(map[int]*string),
	}
	d.pageCount = reader.NumPage
	d.vectorText = d.vectorPageText
	return d, nil
}

// Close releases the PDF handle and removes all cached raster artifacts.
func (d *Document) Close() error {
	err := d.file.Close()
	if rmErr := os.RemoveAll(d.tmpDir); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// NumPages returns the page count of the open document.
func (d *Document) NumPages() int {
	return d.pageCount()
}

// PagesText resolves every page's text: vector text when the page carries
// enough of it, OCR output otherwise. A page's entry is never nil; it is the
// empty string when both sources fail. The result is computed once per
// document.
func (d *Document) PagesText(ctx context.Context) []string {
	d.pagesOnce.Do(func() {
		d.pages = d.acquirePages(ctx)
	})
	return d.pages
}

func (d *Document) acquirePages(ctx context.Context) []string {
	n := d.pageCount()
	pages := make([]string, n)
	for i := 0; i < n; i++ {
		pages[i] = d.vectorText(i)
	}

	var candidates []int
	for i, text := range pages {
		if d.acq.needsOCR(text) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return pages
	}
	d.acq.logger.Debug("ocr candidate pages selected",
		"path", d.path, "candidates", len(candidates), "pages", n)

	// Each candidate writes only its own slot, so the fan-out needs no
	// coordination beyond the shared raster/region caches.
	sem := make(chan struct{}, d.acq.cfg.OCRWorkers)
	var wg sync.WaitGroup
	for _, i := range candidates {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			ocrText := d.ocrFullPage(ctx, page)
			// OCR never overwrites a page that already had sufficient
			// vector text, and empty OCR output keeps the vector text.
			if strings.TrimSpace(ocrText) == "" {
				return
			}
			if d.acq.needsOCR(pages[page]) {
				pages[page] = ocrText
			}
		}(i)
	}
	wg.Wait()

	return pages
}

// vectorPageText extracts a page's embedded text, degrading to empty on any
// extraction error or parser panic.
func (d *Document) vectorPageText(page int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			d.acq.logger.Warn("vector text extraction panicked", "page", page+1, "panic", r)
			text = ""
		}
	}()

	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return ""
	}
	content, err := p.GetPlainText(nil)
	if err != nil {
		d.acq.logger.Warn("vector text extraction failed", "page", page+1, "error", err)
		return ""
	}
	return content
}

func (d *Document) ocrFullPage(ctx context.Context, page int) string {
	imgPath, err := d.rasterPage(ctx, page, d.acq.cfg.DPI)
	if err != nil {
		d.acq.logger.Warn("page raster degraded to empty text", "page", page+1, "error", err)
		return ""
	}
	text, err := d.acq.tesseractOCR(ctx, imgPath)
	if err != nil {
		d.acq.logger.Warn("page ocr degraded to empty text", "page", page+1, "error", err)
		return ""
	}
	return text
}

// HeaderOCR OCRs the top frac of a page (0-based index). frac <= 0 selects
// the configured default.
func (d *Document) HeaderOCR(ctx context.Context, page int, frac float64) string {
	if frac <= 0 {
		frac = d.acq.cfg.HeaderFrac
	}
	return d.regionOCR(ctx, page, true, frac, d.acq.cfg.HeaderDPI)
}

// FooterOCR OCRs the bottom frac of a page (0-based index). frac <= 0
// selects the configured default.
func (d *Document) FooterOCR(ctx context.Context, page int, frac float64) string {
	if frac <= 0 {
		frac = d.acq.cfg.FooterFrac
	}
	return d.regionOCR(ctx, page, false, frac, d.acq.cfg.FooterDPI)
}

// needsOCR reports whether a page's vector text falls below the word-count
// threshold that marks it as an OCR candidate.
func (a *Acquirer) needsOCR(text string) bool {
	return wordCount(text) < a.cfg.OCRWordThreshold
}

func wordCount(s string) int {
	return len(strings.Fields(textutil.NormalizeSpaces(s)))
}
