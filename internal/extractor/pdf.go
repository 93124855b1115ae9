package extractor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"docrag/internal/errs"
)

// PDFExtractor renders each page of a PDF as plain text, 1-based page
// numbers, in document order.
type PDFExtractor struct{}

func (PDFExtractor) Extract(data []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errs.BadRequest("corrupt or unreadable pdf", err.Error())
	}

	var pages []Page
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := pageText(p)
		if err != nil && err != io.EOF {
			return nil, errs.BadRequest(fmt.Sprintf("failed to extract pdf page %d", i), err.Error())
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}

func pageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, row := range rows {
		for _, word := range row.Content {
			buf.WriteString(word.S)
		}
		buf.WriteString("\n")
	}
	return buf.String(), nil
}
