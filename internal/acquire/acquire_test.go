package acquire

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeRunner simulates pdftoppm and tesseract. pdftoppm calls create the
// expected PNG; tesseract calls return canned text.
type fakeRunner struct {
	mu            sync.Mutex
	rasterCalls   int
	ocrCalls      int
	ocrText       string
	failRaster    bool
	failTesseract bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.Contains(name, "pdftoppm") {
		f.rasterCalls++
		if f.failRaster {
			return nil, []byte("raster boom"), os.ErrNotExist
		}
		prefix := args[len(args)-1]
		return nil, nil, writeTestPNG(prefix+".png", 100, 200)
	}

	f.ocrCalls++
	if f.failTesseract {
		return nil, []byte("ocr boom"), os.ErrInvalid
	}
	return []byte(f.ocrText), nil, nil
}

func writeTestPNG(path string, w, h int) error {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}

func newTestDocument(t *testing.T, runner Runner) *Document {
	t.Helper()
	a := NewAcquirer(Config{}, nil)
	a.runner = runner
	return &Document{
		path:      "/nonexistent/case.pdf",
		tmpDir:    t.TempDir(),
		acq:       a,
		raster:    make(map[rasterKey]string),
		region:    make(map[regionKey]string),
		footerVec: make(map[int]*string),
	}
}

// stubPages points the document's page access at an in-memory slice.
func stubPages(d *Document, texts []string) {
	d.pageCount = func() int { return len(texts) }
	d.vectorText = func(page int) string { return texts[page] }
}

func TestPagesText_OCROnlyReplacesInsufficientPages(t *testing.T) {
	runner := &fakeRunner{ocrText: "texto reconhecido pelo ocr"}
	d := newTestDocument(t, runner)

	longPage := strings.Repeat("palavra ", 80)
	stubPages(d, []string{longPage, "poucas palavras"})

	pages := d.PagesText(context.Background())

	if pages[0] != longPage {
		t.Errorf("sufficient page was overwritten: %q", pages[0])
	}
	if pages[1] != "texto reconhecido pelo ocr" {
		t.Errorf("insufficient page = %q, want OCR text", pages[1])
	}
	// Only the insufficient page was rasterized and OCR'd.
	if runner.rasterCalls != 1 || runner.ocrCalls != 1 {
		t.Errorf("raster/ocr calls = %d/%d, want 1/1", runner.rasterCalls, runner.ocrCalls)
	}
}

func TestPagesText_EmptyOCRKeepsVectorText(t *testing.T) {
	runner := &fakeRunner{ocrText: "   "}
	d := newTestDocument(t, runner)
	stubPages(d, []string{"pagina curta porem com texto vetorial"})

	pages := d.PagesText(context.Background())

	if pages[0] != "pagina curta porem com texto vetorial" {
		t.Errorf("page = %q, want original vector text kept", pages[0])
	}
}

func TestPagesText_OCRFailureDegradesToVectorText(t *testing.T) {
	runner := &fakeRunner{failTesseract: true}
	d := newTestDocument(t, runner)
	stubPages(d, []string{"so isto"})

	pages := d.PagesText(context.Background())

	if pages[0] != "so isto" {
		t.Errorf("page = %q, want vector text after OCR failure", pages[0])
	}
}

func TestNeedsOCR(t *testing.T) {
	a := NewAcquirer(Config{OCRWordThreshold: 70}, nil)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty page", "", true},
		{"short page", "poucas palavras apenas", true},
		{"long page", strings.Repeat("palavra ", 70), false},
		{"exactly at threshold", strings.Repeat("x ", 70), false},
		{"one below threshold", strings.Repeat("x ", 69), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.needsOCR(tt.text); got != tt.want {
				t.Errorf("needsOCR = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCropRegion(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page.png")
	if err := writeTestPNG(src, 100, 200); err != nil {
		t.Fatal(err)
	}

	headerPath, err := cropRegion(src, true, 0.42)
	if err != nil {
		t.Fatalf("header crop: %v", err)
	}
	footerPath, err := cropRegion(src, false, 0.22)
	if err != nil {
		t.Fatalf("footer crop: %v", err)
	}

	assertPNGHeight(t, headerPath, 84) // 42% of 200
	assertPNGHeight(t, footerPath, 44) // 22% of 200

	if _, err := cropRegion(src, true, 0); err == nil {
		t.Error("expected error for zero fraction")
	}
	if _, err := cropRegion(src, true, 1.5); err == nil {
		t.Error("expected error for fraction above 1")
	}
}

func assertPNGHeight(t *testing.T, path string, want int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Dy(); got != want {
		t.Errorf("crop height = %d, want %d", got, want)
	}
}

func TestRegionOCR_CachesPerRegion(t *testing.T) {
	runner := &fakeRunner{ocrText: "Num. 123456 - Pág. 7"}
	d := newTestDocument(t, runner)
	ctx := context.Background()

	first := d.FooterOCR(ctx, 0, 0)
	second := d.FooterOCR(ctx, 0, 0)

	if first != "Num. 123456 - Pág. 7" || second != first {
		t.Fatalf("footer OCR = %q / %q", first, second)
	}
	if runner.ocrCalls != 1 {
		t.Errorf("ocr calls = %d, want 1 (cached)", runner.ocrCalls)
	}
	if runner.rasterCalls != 1 {
		t.Errorf("raster calls = %d, want 1 (cached)", runner.rasterCalls)
	}

	// A different region of the same page re-uses the raster but OCRs again.
	d.HeaderOCR(ctx, 0, 0)
	if runner.rasterCalls != 1 {
		t.Errorf("raster calls after header = %d, want 1", runner.rasterCalls)
	}
	if runner.ocrCalls != 2 {
		t.Errorf("ocr calls after header = %d, want 2", runner.ocrCalls)
	}
}

func TestRegionOCR_FailureDegradesToEmpty(t *testing.T) {
	runner := &fakeRunner{failRaster: true}
	d := newTestDocument(t, runner)

	if got := d.FooterOCR(context.Background(), 3, 0); got != "" {
		t.Errorf("expected empty text on raster failure, got %q", got)
	}

	// Failure result is cached as empty; no retry storm.
	d.FooterOCR(context.Background(), 3, 0)
	if runner.rasterCalls != 1 {
		t.Errorf("raster calls = %d, want 1", runner.rasterCalls)
	}
}

func TestRegionOCR_TesseractFailureDegradesToEmpty(t *testing.T) {
	runner := &fakeRunner{failTesseract: true}
	d := newTestDocument(t, runner)

	if got := d.HeaderOCR(context.Background(), 0, 0.55); got != "" {
		t.Errorf("expected empty text on tesseract failure, got %q", got)
	}
}

func TestNewAcquirerDefaults(t *testing.T) {
	a := NewAcquirer(Config{}, nil)

	if a.cfg.Lang != "por" {
		t.Errorf("lang = %q, want por", a.cfg.Lang)
	}
	if a.cfg.DPI != defaultDPI {
		t.Errorf("dpi = %d", a.cfg.DPI)
	}
	if a.cfg.HeaderFrac != defaultHeaderFrac || a.cfg.FooterFrac != defaultFooterFrac {
		t.Errorf("fracs = %v/%v", a.cfg.HeaderFrac, a.cfg.FooterFrac)
	}
	if a.cfg.OCRWordThreshold != defaultOCRWordThreshold {
		t.Errorf("threshold = %d", a.cfg.OCRWordThreshold)
	}
	if a.cfg.HeaderDPI != defaultDPI || a.cfg.FooterDPI != defaultDPI {
		t.Errorf("region dpi = %d/%d", a.cfg.HeaderDPI, a.cfg.FooterDPI)
	}
}

func TestOpen_MissingFileIsFatal(t *testing.T) {
	a := NewAcquirer(Config{}, nil)
	if _, err := a.Open(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error opening a missing PDF")
	}
}
