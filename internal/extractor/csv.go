package extractor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"docrag/internal/errs"
)

// CSVExtractor flattens each row into a comma-joined line, one page total.
type CSVExtractor struct{}

func (CSVExtractor) Extract(data []byte) ([]Page, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var lines []string
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errs.BadRequest("malformed csv file", err.Error())
		}
		lines = append(lines, strings.Join(record, ", "))
	}
	return []Page{{Number: 1, Text: strings.Join(lines, "\n")}}, nil
}
