package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanCollapsesWhitespace(t *testing.T) {
	in := "line one\r\n\r\n\r\nline   two\t\tthree  \n"
	out := Clean(in)
	assert.Equal(t, "line one\n\nline two three", out)
}

func TestSplitRespectsBounds(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := Split(text, MinChunkSize, 50)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), MaxChunkSize)
	}
}

func TestSplitOffsetsAreMonotonicAndIncreasing(t *testing.T) {
	text := strings.Repeat("repeat repeat repeat. ", 200)
	chunks := Split(text, 300, 50)
	require.Greater(t, len(chunks), 1)
	prevEnd := -1
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.Start, prevEnd-50) // overlap allowed to rewind
		assert.Greater(t, c.End, c.Start)
		prevEnd = c.End
	}
}

func TestSplitEmptyText(t *testing.T) {
	assert.Nil(t, Split("   \n\n  ", 300, 50))
}

// TestCoalesceAlignsOnWholePieces guards against coalesce sliding a raw
// character window over the joined text: every chunk boundary must fall on
// a separator, never mid-word.
func TestCoalesceAlignsOnWholePieces(t *testing.T) {
	words := make([]string, 0, 400)
	for i := 0; i < 400; i++ {
		words = append(words, "alpha")
	}
	text := strings.Join(words, " ")

	chunks := Split(text, 300, 60)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		trimmed := strings.TrimSpace(c.Content)
		require.NotEmpty(t, trimmed)
		for _, word := range strings.Fields(trimmed) {
			assert.Equal(t, "alpha", word, "chunk boundary split a word in half: %q", c.Content)
		}
	}
}

func TestCoalesceCarriesWholeOverlapPieces(t *testing.T) {
	pieces := []string{"aaaa ", "bbbb ", "cccc ", "dddd ", "eeee "}
	windows := coalesce(pieces, 12, 6)
	require.Greater(t, len(windows), 1)
	// the overlap between consecutive windows must be one of the original
	// pieces verbatim, not an arbitrary character-count slice.
	for i := 1; i < len(windows); i++ {
		found := false
		for _, p := range pieces {
			if strings.HasPrefix(windows[i], p) && strings.Contains(windows[i-1], p) {
				found = true
				break
			}
		}
		assert.True(t, found, "window %d does not start on a whole piece carried from window %d: %q", i, i-1, windows[i])
	}
}
