package rag

import "strings"

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

var providerAliases = map[string]Provider{
	"openai":    ProviderOpenAI,
	"oai":       ProviderOpenAI,
	"anthropic": ProviderAnthropic,
	"claude":    ProviderAnthropic,
	"gemini":    ProviderGemini,
	"google":    ProviderGemini,
}

// normalizeModelName returns the configured default when model is empty,
// blank, or begins with "auto" (case-insensitive).
func normalizeModelName(model, defaultModel string) string {
	trimmed := strings.TrimSpace(model)
	if trimmed == "" || strings.HasPrefix(strings.ToLower(trimmed), "auto") {
		return defaultModel
	}
	return trimmed
}

// resolveProvider picks a provider for modelName: an explicit "provider:"
// or "provider/" prefix wins; otherwise a substring match on known
// provider names; otherwise OpenAI.
func resolveProvider(modelName string) (Provider, string) {
	if idx := strings.Index(modelName, ":"); idx >= 0 {
		prefix, rest := modelName[:idx], modelName[idx+1:]
		if p, ok := providerAliases[strings.ToLower(strings.TrimSpace(prefix))]; ok {
			cleaned := strings.TrimSpace(rest)
			if cleaned == "" {
				cleaned = modelName
			}
			return p, cleaned
		}
	}
	if idx := strings.Index(modelName, "/"); idx >= 0 {
		prefix, rest := modelName[:idx], modelName[idx+1:]
		if p, ok := providerAliases[strings.ToLower(strings.TrimSpace(prefix))]; ok {
			cleaned := strings.TrimSpace(rest)
			if cleaned == "" {
				cleaned = modelName
			}
			return p, cleaned
		}
	}

	lower := strings.ToLower(modelName)
	switch {
	case strings.Contains(lower, "claude"), strings.Contains(lower, "anthropic"):
		return ProviderAnthropic, modelName
	case strings.Contains(lower, "gemini"):
		return ProviderGemini, modelName
	default:
		return ProviderOpenAI, modelName
	}
}
