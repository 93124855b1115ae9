package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/retrieval"
)

func TestTruncateContextsStopsBeforeExceeding(t *testing.T) {
	hits := []retrieval.Hit{
		{Text: "12345"},
		{Text: "1234567890"},
		{Text: "x"},
	}
	out := truncateContexts(hits, 10)
	require.Len(t, out, 1)
	assert.Equal(t, "12345", out[0].Text)
}

func TestTruncateContextsEmptyWhenFirstTooLarge(t *testing.T) {
	hits := []retrieval.Hit{{Text: "this is definitely too long"}}
	out := truncateContexts(hits, 5)
	assert.Empty(t, out)
}

func TestRenderContextBlockEmpty(t *testing.T) {
	assert.Equal(t, "No context available.", renderContextBlock(nil))
}

func TestBuildPromptMessagesIncludesQuestion(t *testing.T) {
	msgs := buildPromptMessages("what is X?", nil, nil)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "what is X?")
}
