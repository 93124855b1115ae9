package extractor

import (
	"bytes"
	"strings"

	"github.com/fumiama/go-docx"

	"docrag/internal/errs"
)

// DOCXExtractor renders paragraphs in document order, then table rows as
// " | "-joined cells, one page total.
type DOCXExtractor struct{}

func (DOCXExtractor) Extract(data []byte) ([]Page, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errs.BadRequest("corrupt or unreadable docx", err.Error())
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		switch el := item.(type) {
		case *docx.Paragraph:
			lines = append(lines, paragraphText(el))
		case *docx.Table:
			for _, row := range el.TableRows {
				var cells []string
				for _, cell := range row.TableCells {
					var cellText strings.Builder
					for _, p := range cell.Paragraphs {
						cellText.WriteString(paragraphText(p))
					}
					cells = append(cells, cellText.String())
				}
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}
	return []Page{{Number: 1, Text: strings.Join(lines, "\n")}}, nil
}

func paragraphText(p *docx.Paragraph) string {
	var b strings.Builder
	for _, child := range p.Children {
		if run, ok := child.(*docx.Run); ok {
			for _, rc := range run.Children {
				if t, ok := rc.(*docx.Text); ok {
					b.WriteString(t.Text)
				}
			}
		}
	}
	return b.String()
}
