package retrieval

import "math"

// CosineSimilarity returns 0 when either vector has zero norm, matching the
// degenerate case the reranker must tolerate rather than dividing by zero.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// mmrCandidate is a retrieval-order-indexed candidate carried through the
// rerank loop so tie-breaks can fall back to raw score then insertion order.
type mmrCandidate struct {
	idx       int
	vector    []float32
	querySim  float64
}

// MMRRerank selects up to topK candidates maximizing
// lambda*sim(query,c) - (1-lambda)*max(sim(c,selected)), starting from the
// single highest-similarity candidate. Ties break by descending raw score
// (the caller's candidate order, assumed pre-sorted by score) then by
// insertion order.
func MMRRerank(queryVec []float32, candidateVectors [][]float32, topK int, lambda float64) []int {
	n := len(candidateVectors)
	if topK > n {
		topK = n
	}
	pool := make([]mmrCandidate, n)
	for i, v := range candidateVectors {
		pool[i] = mmrCandidate{idx: i, vector: v, querySim: CosineSimilarity(queryVec, v)}
	}

	var selected []int
	var selectedVecs [][]float32

	for len(selected) < topK && len(pool) > 0 {
		bestPos := -1
		var bestScore float64
		for pos, cand := range pool {
			maxSimToSelected := 0.0
			for _, sv := range selectedVecs {
				if sim := CosineSimilarity(cand.vector, sv); sim > maxSimToSelected {
					maxSimToSelected = sim
				}
			}
			score := lambda*cand.querySim - (1-lambda)*maxSimToSelected
			if bestPos == -1 || score > bestScore ||
				(score == bestScore && cand.querySim > pool[bestPos].querySim) {
				bestPos = pos
				bestScore = score
			}
		}
		chosen := pool[bestPos]
		selected = append(selected, chosen.idx)
		selectedVecs = append(selectedVecs, chosen.vector)
		pool = append(pool[:bestPos], pool[bestPos+1:]...)
	}
	return selected
}
