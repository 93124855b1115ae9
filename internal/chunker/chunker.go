// Package chunker splits cleaned document text into overlapping windows
// suitable for embedding, using the same recursive-separator strategy as
// LangChain's RecursiveCharacterTextSplitter.
package chunker

import (
	"regexp"
	"strings"
)

const (
	MinChunkSize    = 200
	MaxChunkSize    = 4000
	MaxChunkOverlap = 1000

	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var (
	blankLineRun = regexp.MustCompile(`\n\s*\n+`)
	hspaceRun    = regexp.MustCompile(`[ \t]+`)

	separators = []string{"\n\n", "\n", ". ", " ", ""}
)

// Chunk is one (content, start, end) window over the cleaned source text.
type Chunk struct {
	Content string
	Start   int
	End     int
}

// Clean normalizes raw text the way the chunker expects to receive it:
// every \r replaced by \n (so a CRLF pair becomes a blank line), runs of
// blank lines collapsed to one,
// horizontal whitespace runs collapsed to a single space, ends trimmed.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	text = hspaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Split cleans text and splits it into overlapping windows. chunkSize and
// chunkOverlap must already satisfy MinChunkSize<=chunkSize<=MaxChunkSize,
// 0<=chunkOverlap<=MaxChunkOverlap, chunkOverlap<chunkSize — callers
// validate bounds before calling (see ingestion.Pipeline).
func Split(text string, chunkSize, chunkOverlap int) []Chunk {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil
	}

	pieces := recursiveSplit(cleaned, chunkSize, separators)
	windows := coalesce(pieces, chunkSize, chunkOverlap)

	chunks := make([]Chunk, 0, len(windows))
	cursor := 0
	for _, w := range windows {
		start := strings.Index(cleaned[cursor:], w)
		if start == -1 {
			start = 0
		}
		start += cursor
		end := start + len(w)
		chunks = append(chunks, Chunk{Content: w, Start: start, End: end})
		// The next window carries at most chunkOverlap characters of this
		// one, so it starts no earlier than end-chunkOverlap and strictly
		// after start.
		cursor = end - chunkOverlap
		if cursor <= start {
			cursor = start + 1
		}
	}
	return chunks
}

// recursiveSplit tries the first separator in seps; any resulting piece
// still over chunkSize is recursively split with the remaining separators.
// The empty-string separator is the base case: it always fits.
func recursiveSplit(text string, chunkSize int, seps []string) []string {
	if len(text) <= chunkSize || len(seps) == 0 {
		return []string{text}
	}
	sep := seps[0]
	var parts []string
	if sep == "" {
		parts = splitEvery(text, chunkSize)
	} else {
		parts = splitKeepSep(text, sep)
	}

	var out []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len(p) > chunkSize && len(seps) > 1 {
			out = append(out, recursiveSplit(p, chunkSize, seps[1:])...)
		} else {
			out = append(out, p)
		}
	}
	return out
}

// splitKeepSep splits on sep but reattaches the separator to the end of
// each piece (so that rejoining pieces reconstructs the original text),
// matching RecursiveCharacterTextSplitter's keep_separator default.
func splitKeepSep(text, sep string) []string {
	raw := strings.Split(text, sep)
	out := make([]string, 0, len(raw))
	for i, r := range raw {
		if i < len(raw)-1 {
			out = append(out, r+sep)
		} else if r != "" {
			out = append(out, r)
		}
	}
	return out
}

func splitEvery(text string, n int) []string {
	if n <= 0 {
		return []string{text}
	}
	var out []string
	for len(text) > n {
		out = append(out, text[:n])
		text = text[n:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// coalesce greedily concatenates consecutive leaf pieces into windows of at
// most chunkSize, mirroring RecursiveCharacterTextSplitter's merge_splits.
// Each piece already carries its own trailing separator (see splitKeepSep),
// so pieces are joined with no separator of their own. The next window's
// overlap is seeded by carrying whole trailing pieces of the current window
// forward rather than slicing into the middle of one, so a window boundary
// never falls mid-word or mid-sentence.
func coalesce(pieces []string, chunkSize, chunkOverlap int) []string {
	if len(pieces) == 0 {
		return nil
	}

	var windows []string
	var current []string
	total := 0

	for _, piece := range pieces {
		plen := len(piece)
		if len(current) > 0 && total+plen > chunkSize {
			windows = append(windows, strings.Join(current, ""))

			for len(current) > 0 && (total > chunkOverlap || total+plen > chunkSize) {
				total -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += plen
	}
	if len(current) > 0 {
		windows = append(windows, strings.Join(current, ""))
	}
	return windows
}
