// Package embedclient embeds text through a provider, memoizing results in
// the embedding cache so identical inputs never pay twice.
package embedclient

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"docrag/internal/embedcache"
	"docrag/internal/errs"
	"docrag/internal/retry"
)

// Client embeds text via OpenAI, consulting the cache first.
type Client struct {
	oa      openai.Client
	model   string
	cache   *embedcache.Cache
	log     *zap.Logger
	retry   retry.Policy
	limiter *rate.Limiter
}

// New builds an embedding client. rps/burst bound the sustained and
// instantaneous request rate against the provider; a non-positive rps
// disables limiting.
func New(apiKey, model string, cache *embedcache.Cache, log *zap.Logger, retryPolicy retry.Policy, rps float64, burst int) *Client {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Client{
		oa:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		cache:   cache,
		log:     log,
		retry:   retryPolicy,
		limiter: limiter,
	}
}

// Embed returns vectors aligned position-for-position with texts. Cache
// hits are returned verbatim; misses are embedded in a single provider
// request (in order) and written back to the cache with a 24h TTL.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	cached := c.cache.Get(ctx, c.model, texts)

	var missingIdx []int
	var missingTexts []string
	for i, v := range cached {
		if v == nil {
			missingIdx = append(missingIdx, i)
			missingTexts = append(missingTexts, texts[i])
		}
	}

	if len(missingTexts) > 0 {
		fresh, err := c.createEmbeddings(ctx, missingTexts)
		if err != nil {
			return nil, err
		}
		for j, idx := range missingIdx {
			cached[idx] = fresh[j]
		}
		c.cache.Set(ctx, c.model, missingTexts, fresh)
	}

	return cached, nil
}

func (c *Client) createEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var result [][]float32
	err := retry.Do(ctx, c.log, c.retry, func() error {
		resp, err := c.oa.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model: c.model,
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		})
		if err != nil {
			return err
		}
		result = make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			vec := make([]float32, len(d.Embedding))
			for j, f := range d.Embedding {
				vec[j] = float32(f)
			}
			result[i] = vec
		}
		return nil
	})
	if err != nil {
		return nil, errs.UpstreamError("failed to create embeddings", err,
			map[string]any{"provider": "openai", "model": c.model})
	}
	return result, nil
}
