package acquire

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FooterVectorText returns the vector text of the bottom fraction of a page
// (0-based index), clipped against the page's MediaBox. Much cheaper than a
// footer OCR when the page has embedded text. Cached per page; empty string
// when the page has no usable vector text.
func (d *Document) FooterVectorText(page int) string {
	d.mu.Lock()
	if cached, ok := d.footerVec[page]; ok {
		d.mu.Unlock()
		return *cached
	}
	d.mu.Unlock()

	text := d.footerVectorTextOnce(page)

	d.mu.Lock()
	if existing, ok := d.footerVec[page]; ok {
		text = *existing
	} else {
		d.footerVec[page] = &text
	}
	d.mu.Unlock()

	return text
}

func (d *Document) footerVectorTextOnce(page int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			d.acq.logger.Warn("footer vector extraction panicked", "page", page+1, "panic", r)
			text = ""
		}
	}()

	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return ""
	}

	cut := pageHeight(p) * d.acq.cfg.FooterFrac

	// Contiguous row extraction first: rows come back top-first with their
	// baseline Y position, so the footer is the rows below the cut line.
	if rows, err := p.GetTextByRow(); err == nil {
		var parts []string
		for _, row := range rows {
			if float64(row.Position) > cut {
				continue
			}
			var line []string
			for _, t := range row.Content {
				if t.S != "" {
					line = append(line, t.S)
				}
			}
			if len(line) > 0 {
				parts = append(parts, strings.Join(line, ""))
			}
		}
		if out := strings.TrimSpace(strings.Join(parts, "\n")); out != "" {
			return out
		}
	}

	// Word-level reconstruction fallback for pages whose content streams do
	// not group into rows.
	return strings.TrimSpace(d.footerWords(p, cut))
}

func (d *Document) footerWords(p pdf.Page, cut float64) string {
	texts := p.Content().Text
	var footer []pdf.Text
	for _, t := range texts {
		if t.Y <= cut {
			footer = append(footer, t)
		}
	}
	if len(footer) == 0 {
		return ""
	}

	// Top-to-bottom, then left-to-right within a line.
	sort.SliceStable(footer, func(i, j int) bool {
		if footer[i].Y != footer[j].Y {
			return footer[i].Y > footer[j].Y
		}
		return footer[i].X < footer[j].X
	})

	var b strings.Builder
	lastY := footer[0].Y
	for i, t := range footer {
		if t.Y != lastY {
			b.WriteString("\n")
			lastY = t.Y
		} else if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(t.S)
	}
	return b.String()
}

// pageHeight reads the MediaBox height, walking the page tree for inherited
// boxes. Falls back to US Letter when the box is missing or malformed.
func pageHeight(p pdf.Page) float64 {
	const letterHeight = 792.0

	box := pdf.Value{}
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if b := v.Key("MediaBox"); !b.IsNull() {
			box = b
			break
		}
	}
	if box.IsNull() || box.Len() < 4 {
		return letterHeight
	}

	y0 := box.Index(1).Float64()
	y1 := box.Index(3).Float64()
	if h := y1 - y0; h > 0 {
		return h
	}
	return letterHeight
}
