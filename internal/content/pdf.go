package content

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	rpdf "rsc.io/pdf"
)

// PDFExtractor extracts page text with rsc.io/pdf.
type PDFExtractor struct{}

func (PDFExtractor) ExtractPages(data []byte) (pages []string, err error) {
	// rsc.io/pdf panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	doc, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	n := doc.NumPage()
	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		pages[i-1] = pageText(doc.Page(i))
	}

	return pages, nil
}

// wordGap is the horizontal gap, as a fraction of the font size, past which two
// glyphs on one baseline belong to different words. rsc.io/pdf drops space
// glyphs, so spaces are recovered from glyph positions.
const wordGap = 0.15

// pageText returns "" for pages without extractable text, including pages
// whose content stream cannot be interpreted.
func pageText(page rpdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	if page.V.IsNull() {
		return ""
	}

	var b strings.Builder
	var prev *rpdf.Text
	glyphs := page.Content().Text
	for i := range glyphs {
		t := &glyphs[i]
		if prev != nil {
			switch {
			case math.Abs(t.Y-prev.Y) > t.FontSize/2:
				b.WriteByte('\n')
			case t.X-(prev.X+prev.W) > t.FontSize*wordGap:
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		prev = t
	}

	return b.String()
}
