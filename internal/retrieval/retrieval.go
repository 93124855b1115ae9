// Package retrieval embeds a query, searches the vector store, and
// optionally reranks candidates for diversity via MMR.
package retrieval

import (
	"context"

	"docrag/internal/embedclient"
	"docrag/internal/observability"
	"docrag/internal/vectorstore"
)

// Hit is one retrieved chunk, carrying its vector-store id, raw score, text,
// and full payload.
type Hit struct {
	ID      string
	Score   float32
	Text    string
	Payload map[string]any
}

// Result is the outcome of one search call.
type Result struct {
	Hits            []Hit
	UsedMMR         bool
	TotalCandidates int
}

// Params configures one search call; zero values take the engine's
// defaults (TopK still required). MMRLambda is a pointer so an explicit
// 0 (maximum diversity) is distinguishable from "unset".
type Params struct {
	TopK           int
	FetchK         int
	ScoreThreshold *float32
	UseMMR         bool
	MMRLambda      *float64
	Filter         map[string]any
}

const DefaultMMRLambda = 0.5

// Engine implements semantic_search over a vector store and embedding
// client pairing.
type Engine struct {
	embed   *embedclient.Client
	vectors *vectorstore.Store
}

func New(embed *embedclient.Client, vectors *vectorstore.Store) *Engine {
	return &Engine{embed: embed, vectors: vectors}
}

func (e *Engine) Search(ctx context.Context, query string, p Params) (*Result, error) {
	vecs, err := e.embed.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	queryVec := vecs[0]

	candidateLimit := p.FetchK
	if candidateLimit <= 0 {
		candidateLimit = p.TopK * 3
		if candidateLimit < p.TopK {
			candidateLimit = p.TopK
		}
	}

	points, err := e.vectors.Search(ctx, vectorstore.SearchParams{
		Vector:         queryVec,
		Limit:          uint64(candidateLimit),
		Filter:         p.Filter,
		ScoreThreshold: p.ScoreThreshold,
		WithVectors:    p.UseMMR,
	})
	if err != nil {
		return nil, err
	}

	if p.ScoreThreshold != nil {
		filtered := points[:0]
		for _, pt := range points {
			if pt.Score >= *p.ScoreThreshold {
				filtered = append(filtered, pt)
			}
		}
		points = filtered
	}

	totalCandidates := len(points)
	observability.RetrievalCandidates.Observe(float64(totalCandidates))

	var selectedIdx []int
	if p.UseMMR {
		lambda := DefaultMMRLambda
		if p.MMRLambda != nil {
			lambda = *p.MMRLambda
		}
		vectorsOnly := make([][]float32, len(points))
		for i, pt := range points {
			vectorsOnly[i] = pt.Vector
		}
		selectedIdx = MMRRerank(queryVec, vectorsOnly, p.TopK, lambda)
	} else {
		limit := p.TopK
		if limit > len(points) {
			limit = len(points)
		}
		selectedIdx = make([]int, limit)
		for i := range selectedIdx {
			selectedIdx[i] = i
		}
	}

	hits := make([]Hit, 0, len(selectedIdx))
	for _, idx := range selectedIdx {
		pt := points[idx]
		text, _ := pt.Payload["text"].(string)
		hits = append(hits, Hit{ID: pt.LogicalID, Score: pt.Score, Text: text, Payload: pt.Payload})
	}

	return &Result{Hits: hits, UsedMMR: p.UseMMR, TotalCandidates: totalCandidates}, nil
}
