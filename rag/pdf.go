package rag

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the extracted text of one PDF page.
type Page struct {
	Source string
	Number int
	Text   string
}

// LoadPDF extracts the text of every non-empty page of the PDF at path.
// Rows of a page are joined by newlines.
func LoadPDF(path string) ([]Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var pages []Page

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read page %d of %s: %w", i, path, err)
		}

		var sb strings.Builder
		for idx, row := range rows {
			if idx > 0 {
				sb.WriteByte('\n')
			}
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
		}

		if text := strings.TrimSpace(sb.String()); text != "" {
			pages = append(pages, Page{Source: path, Number: i, Text: text})
		}
	}

	return pages, nil
}
