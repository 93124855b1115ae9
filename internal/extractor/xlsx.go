package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"docrag/internal/errs"
)

// XLSXExtractor emits one logical section per sheet, prefixed by
// "[Sheet: <title>]", cell values tab-joined per row.
type XLSXExtractor struct{}

func (XLSXExtractor) Extract(data []byte) ([]Page, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.BadRequest("corrupt or unreadable xlsx", err.Error())
	}
	defer f.Close()

	var sections []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, errs.BadRequest(fmt.Sprintf("failed to read sheet %q", sheet), err.Error())
		}
		var lines []string
		for _, row := range rows {
			lines = append(lines, strings.Join(row, "\t"))
		}
		sections = append(sections, fmt.Sprintf("[Sheet: %s]\n%s", sheet, strings.Join(lines, "\n")))
	}
	return []Page{{Number: 1, Text: strings.Join(sections, "\n\n")}}, nil
}
