package viewer

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/muesli/reflow/wordwrap"
)

const canvasBaseWidth = 78

// CanvasDocument is a locally rasterized document: pages are extracted
// up front so paging through the viewer never touches the file again.
type CanvasDocument struct {
	Path  string
	Pages []string
}

// PageCount reports the number of extracted pages.
func (d *CanvasDocument) PageCount() int { return len(d.Pages) }

// RenderPage returns the text of a 1-based page wrapped for the given
// zoom scale. Larger scales wrap narrower, mimicking zoomed-in pages.
func (d *CanvasDocument) RenderPage(page int, scale float64) string {
	if page < 1 || page > len(d.Pages) {
		return ""
	}
	width := canvasWidth(scale)
	return wordwrap.String(d.Pages[page-1], width)
}

func canvasWidth(scale float64) int {
	if scale <= 0 {
		scale = 1.0
	}
	width := int(float64(canvasBaseWidth) / scale)
	if width < 20 {
		width = 20
	}
	return width
}

// OpenCanvasDocument parses a cached PDF and extracts per-page text.
func OpenCanvasDocument(path string) (*CanvasDocument, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	total := reader.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("pdf has no pages: %s", path)
	}

	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single corrupt page should not sink the document.
			pages = append(pages, fmt.Sprintf("[page %d could not be rendered]", i))
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return &CanvasDocument{Path: path, Pages: pages}, nil
}
