package acquire

import (
	"context"
	"fmt"
)

// tesseractOCR runs tesseract on an image file and returns the recognized
// text. Language and page-segmentation mode come from the acquirer config.
func (a *Acquirer) tesseractOCR(ctx context.Context, imgPath string) (string, error) {
	args := []string{imgPath, "stdout", "-l", a.cfg.Lang}
	if a.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", a.cfg.PSM))
	}

	// tesseract <img> stdout -l <lang>
	out, _, err := a.runner.Run(ctx, a.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}
