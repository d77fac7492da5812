package acquire

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// rasterPage renders a single page to PNG with pdftoppm and returns the
// image path inside the document's scratch directory. Renders are cached per
// (page, dpi) for the lifetime of the document.
func (d *Document) rasterPage(ctx context.Context, page, dpi int) (string, error) {
	key := rasterKey{page: page, dpi: dpi}

	d.mu.Lock()
	if path, ok := d.raster[key]; ok {
		d.mu.Unlock()
		return path, nil
	}
	d.mu.Unlock()

	prefix := filepath.Join(d.tmpDir, fmt.Sprintf("page_%d_%d", page+1, dpi))
	pageArg := fmt.Sprintf("%d", page+1)

	// pdftoppm -png -r <dpi> -f N -l N -singlefile <pdf> <prefix>
	_, _, err := d.acq.runner.Run(ctx, d.acq.cfg.Pdftoppm,
		"-png",
		"-r", fmt.Sprintf("%d", dpi),
		"-f", pageArg,
		"-l", pageArg,
		"-singlefile",
		d.path,
		prefix,
	)
	if err != nil {
		return "", fmt.Errorf("pdftoppm page %d: %w", page+1, err)
	}

	imgPath := prefix + ".png"
	if _, err := os.Stat(imgPath); err != nil {
		return "", fmt.Errorf("pdftoppm produced no image for page %d: %w", page+1, err)
	}

	d.mu.Lock()
	if existing, ok := d.raster[key]; ok {
		imgPath = existing
	} else {
		d.raster[key] = imgPath
	}
	d.mu.Unlock()

	return imgPath, nil
}

// cropRegion cuts the top or bottom fraction out of a rendered page image
// and writes the crop next to the source image. frac must be in (0, 1].
func cropRegion(imgPath string, top bool, frac float64) (string, error) {
	if frac <= 0 || frac > 1 {
		return "", fmt.Errorf("invalid crop fraction %v", frac)
	}

	data, err := os.ReadFile(imgPath)
	if err != nil {
		return "", fmt.Errorf("read raster: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode raster: %w", err)
	}

	bounds := img.Bounds()
	cut := int(float64(bounds.Dy()) * frac)
	if cut < 1 {
		cut = 1
	}
	var rect image.Rectangle
	if top {
		rect = image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+cut)
	} else {
		rect = image.Rect(bounds.Min.X, bounds.Max.Y-cut, bounds.Max.X, bounds.Max.Y)
	}

	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return "", fmt.Errorf("raster image type %T does not support cropping", img)
	}

	region := "footer"
	if top {
		region = "header"
	}
	cropPath := fmt.Sprintf("%s_%s_%03d.png", imgPath[:len(imgPath)-len(".png")], region, int(frac*100))

	out, err := os.Create(cropPath)
	if err != nil {
		return "", fmt.Errorf("create crop: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, sub.SubImage(rect)); err != nil {
		return "", fmt.Errorf("encode crop: %w", err)
	}
	return cropPath, nil
}

// regionOCR rasterizes a page, crops the requested fraction and OCRs only the
// crop. Results are cached per (page, region, frac, dpi); any failure is
// degraded to empty text and logged, never propagated.
func (d *Document) regionOCR(ctx context.Context, page int, top bool, frac float64, dpi int) string {
	key := regionKey{page: page, top: top, fracPct: int(frac * 100), dpi: dpi}

	d.mu.Lock()
	if text, ok := d.region[key]; ok {
		d.mu.Unlock()
		return text
	}
	d.mu.Unlock()

	text := ""
	if t, err := d.regionOCROnce(ctx, page, top, frac, dpi); err != nil {
		d.acq.logger.Warn("region ocr degraded to empty text",
			"page", page+1, "top", top, "frac", frac, "error", err)
	} else {
		text = t
	}

	d.mu.Lock()
	if existing, ok := d.region[key]; ok {
		text = existing
	} else {
		d.region[key] = text
	}
	d.mu.Unlock()

	return text
}

func (d *Document) regionOCROnce(ctx context.Context, page int, top bool, frac float64, dpi int) (string, error) {
	imgPath, err := d.rasterPage(ctx, page, dpi)
	if err != nil {
		return "", err
	}
	cropPath, err := cropRegion(imgPath, top, frac)
	if err != nil {
		return "", err
	}
	return d.acq.tesseractOCR(ctx, cropPath)
}
