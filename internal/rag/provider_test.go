package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveProviderByPrefix(t *testing.T) {
	p, model := resolveProvider("anthropic:claude-3-opus")
	assert.Equal(t, ProviderAnthropic, p)
	assert.Equal(t, "claude-3-opus", model)
}

func TestResolveProviderBySubstring(t *testing.T) {
	cases := map[string]Provider{
		"claude-3-sonnet": ProviderAnthropic,
		"gpt-4o":          ProviderOpenAI,
		"gemini-1.5-pro":  ProviderGemini,
		"some-unknown":    ProviderOpenAI,
	}
	for model, want := range cases {
		p, _ := resolveProvider(model)
		assert.Equal(t, want, p, model)
	}
}

func TestIsDocumentNameQuestion(t *testing.T) {
	assert.True(t, isDocumentNameQuestion("What is the document name?"))
	assert.True(t, isDocumentNameQuestion("Tài liệu này tên gì?"))
	assert.False(t, isDocumentNameQuestion("What is the capital of France?"))
}
