package rag

import (
	"context"

	"go.uber.org/zap"

	"docrag/internal/models"
	"docrag/internal/observability"
	"docrag/internal/retrieval"
	"docrag/internal/retry"
)

const (
	DefaultMaxContextChars = 6000
	MinMaxContextChars     = 500
	MaxMaxContextChars     = 20000
	DefaultMaxHistory      = 10
)

// Params configures one answer/stream call.
type Params struct {
	Model           string
	TopK            int
	FetchK          int
	ScoreThreshold  *float32
	UseMMR          bool
	MMRLambda       *float64
	MaxContextChars int
	MaxHistoryMsgs  *int
	Filter          map[string]any
}

// Answer is the result of a non-streaming question.
type Answer struct {
	Text      string
	HitsUsed  []retrieval.Hit
	ModelName string
}

// DocumentStore is the narrow slice of the document store the answerer needs
// to resolve a document's name when retrieval itself returns no hits for a
// pinned document_id filter.
type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (*models.Document, error)
}

// Answerer ties retrieval (C7) to one of three LLM providers (C8).
type Answerer struct {
	retrieval    *retrieval.Engine
	documents    DocumentStore
	defaultModel string
	openai       *openAIClient
	anthropic    *anthropicClient
	gemini       *geminiClient
	log          *zap.Logger
}

type Config struct {
	DefaultModel string
	OpenAIAPIKey string
	AnthropicAPIKey string
	GeminiAPIKey string
	Retry        retry.Policy
}

func New(ctx context.Context, retrievalEngine *retrieval.Engine, documents DocumentStore, cfg Config, log *zap.Logger) (*Answerer, error) {
	a := &Answerer{
		retrieval:    retrievalEngine,
		documents:    documents,
		defaultModel: cfg.DefaultModel,
		log:          log,
	}
	if cfg.OpenAIAPIKey != "" {
		a.openai = newOpenAIClient(cfg.OpenAIAPIKey, cfg.Retry)
	}
	if cfg.AnthropicAPIKey != "" {
		a.anthropic = newAnthropicClient(cfg.AnthropicAPIKey, cfg.Retry)
	}
	if cfg.GeminiAPIKey != "" {
		gc, err := newGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Retry)
		if err != nil {
			log.Warn("gemini client unavailable", zap.Error(err))
		} else {
			a.gemini = gc
		}
	}
	return a, nil
}

func clampMaxContextChars(n int) int {
	if n <= 0 {
		return DefaultMaxContextChars
	}
	if n < MinMaxContextChars {
		return MinMaxContextChars
	}
	if n > MaxMaxContextChars {
		return MaxMaxContextChars
	}
	return n
}

// retrieveAndBudget runs retrieval then trims contexts to the character
// budget, returning only the hits that fit.
func (a *Answerer) retrieveAndBudget(ctx context.Context, question string, p Params) ([]retrieval.Hit, int, error) {
	result, err := a.retrieval.Search(ctx, question, retrieval.Params{
		TopK:           p.TopK,
		FetchK:         p.FetchK,
		ScoreThreshold: p.ScoreThreshold,
		UseMMR:         p.UseMMR,
		MMRLambda:      p.MMRLambda,
		Filter:         p.Filter,
	})
	if err != nil {
		return nil, 0, err
	}
	budgeted := truncateContexts(result.Hits, clampMaxContextChars(p.MaxContextChars))
	return budgeted, result.TotalCandidates, nil
}

// recentHistory keeps the most recent max messages. max==0 means no history
// at all, distinct from resolveMaxHistory's nil-pointer default.
func recentHistory(history []models.ChatMessage, max int) []models.ChatMessage {
	if max <= 0 {
		return nil
	}
	if len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}

// resolveMaxHistory applies DefaultMaxHistory only when the caller left
// MaxHistoryMsgs unset; an explicit 0 (meaning "no history") is preserved.
func resolveMaxHistory(n *int) int {
	if n == nil {
		return DefaultMaxHistory
	}
	return *n
}

// pinnedDocumentID reports the document_id a search filter pins to, if any.
func pinnedDocumentID(filter map[string]any) (string, bool) {
	v, ok := filter["document_id"]
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// resolveDocumentName falls back to the document store when retrieval
// yielded no hits (and so no payload names) but the search was pinned to a
// specific document_id.
func (a *Answerer) resolveDocumentName(ctx context.Context, p Params) (string, bool) {
	docID, ok := pinnedDocumentID(p.Filter)
	if !ok || a.documents == nil {
		return "", false
	}
	doc, err := a.documents.GetDocument(ctx, docID)
	if err != nil || doc == nil || doc.Name == "" {
		return "", false
	}
	return doc.Name, true
}

// dispatch routes a fully-assembled message list to the resolved provider.
func (a *Answerer) dispatch(ctx context.Context, modelName string, msgs []Message) (string, error) {
	provider, resolvedModel := resolveProvider(modelName)
	text, err := a.dispatchTo(ctx, provider, resolvedModel, msgs)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.LLMProviderCallsTotal.WithLabelValues(string(provider), outcome).Inc()
	return text, err
}

func (a *Answerer) dispatchTo(ctx context.Context, provider Provider, resolvedModel string, msgs []Message) (string, error) {
	switch provider {
	case ProviderAnthropic:
		if a.anthropic == nil {
			return "", dependencyMissing("anthropic")
		}
		return a.anthropic.chat(ctx, resolvedModel, msgs)
	case ProviderGemini:
		if a.gemini == nil {
			return "", dependencyMissing("gemini")
		}
		return a.gemini.chat(ctx, resolvedModel, msgs)
	default:
		if a.openai == nil {
			return "", dependencyMissing("openai")
		}
		return a.openai.chat(ctx, resolvedModel, msgs)
	}
}

// Answer runs retrieval, assembles a prompt, and calls the resolved
// provider once, non-streaming. The document-name short-circuit skips the
// LLM call entirely when the question matches that fixed intent.
func (a *Answerer) Answer(ctx context.Context, question string, history []models.ChatMessage, p Params) (*Answer, error) {
	modelName := normalizeModelName(p.Model, a.defaultModel)

	hits, _, err := a.retrieveAndBudget(ctx, question, p)
	if err != nil {
		return nil, err
	}

	if isDocumentNameQuestion(question) {
		if names := collectDocNames(hits); len(names) > 0 {
			return &Answer{Text: formatDocumentNames(names), HitsUsed: hits, ModelName: modelName}, nil
		}
		if name, ok := a.resolveDocumentName(ctx, p); ok {
			return &Answer{Text: formatDocumentNames([]string{name}), HitsUsed: hits, ModelName: modelName}, nil
		}
	}

	msgs := buildPromptMessages(question, hits, recentHistory(history, resolveMaxHistory(p.MaxHistoryMsgs)))
	text, err := a.dispatch(ctx, modelName, msgs)
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, HitsUsed: hits, ModelName: modelName}, nil
}

// Stream runs retrieval and streams provider tokens to emit. Only OpenAI
// streams incrementally; other providers fall back to emitting the full
// answer as a single token. Returns the complete text once the provider
// call finishes; a document-name short-circuit answer is emitted as a
// single token and returned without calling a provider.
func (a *Answerer) Stream(ctx context.Context, question string, history []models.ChatMessage, p Params, emit func(token string)) (*Answer, error) {
	modelName := normalizeModelName(p.Model, a.defaultModel)

	hits, _, err := a.retrieveAndBudget(ctx, question, p)
	if err != nil {
		return nil, err
	}

	if isDocumentNameQuestion(question) {
		if names := collectDocNames(hits); len(names) > 0 {
			text := formatDocumentNames(names)
			emit(text)
			return &Answer{Text: text, HitsUsed: hits, ModelName: modelName}, nil
		}
		if name, ok := a.resolveDocumentName(ctx, p); ok {
			text := formatDocumentNames([]string{name})
			emit(text)
			return &Answer{Text: text, HitsUsed: hits, ModelName: modelName}, nil
		}
	}

	msgs := buildPromptMessages(question, hits, recentHistory(history, resolveMaxHistory(p.MaxHistoryMsgs)))

	provider, resolvedModel := resolveProvider(modelName)
	if provider == ProviderOpenAI {
		if a.openai == nil {
			return nil, dependencyMissing("openai")
		}
		text, err := a.openai.stream(ctx, resolvedModel, msgs, emit)
		if err != nil {
			return nil, err
		}
		return &Answer{Text: text, HitsUsed: hits, ModelName: modelName}, nil
	}

	text, err := a.dispatch(ctx, modelName, msgs)
	if err != nil {
		return nil, err
	}
	emit(text)
	return &Answer{Text: text, HitsUsed: hits, ModelName: modelName}, nil
}
