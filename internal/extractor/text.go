package extractor

import "strings"

// TextExtractor treats the payload as UTF-8 text, lossily decoding any
// invalid byte sequences rather than failing the upload.
type TextExtractor struct{}

func (TextExtractor) Extract(data []byte) ([]Page, error) {
	return []Page{{Number: 1, Text: strings.ToValidUTF8(string(data), "�")}}, nil
}
