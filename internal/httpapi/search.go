package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docrag/internal/errs"
	"docrag/internal/retrieval"
	"docrag/internal/vectorstore"
)

type searchFilters struct {
	DocumentID  *string  `json:"document_id"`
	OwnerID     *string  `json:"owner_id"`
	ContentType *string  `json:"content_type"`
	CreatedFrom *float64 `json:"created_from"`
	CreatedTo   *float64 `json:"created_to"`
}

type searchRequest struct {
	Query          string         `json:"query"`
	TopK           int            `json:"top_k"`
	FetchK         int            `json:"fetch_k"`
	ScoreThreshold *float32       `json:"score_threshold"`
	UseMMR         bool           `json:"use_mmr"`
	MMRLambda      *float64       `json:"mmr_lambda"`
	Filters        *searchFilters `json:"filters"`
}

type searchHit struct {
	ID      string         `json:"id"`
	Score   float32        `json:"score"`
	Text    string          `json:"text,omitempty"`
	Payload map[string]any `json:"payload"`
}

type searchResponse struct {
	Results         []searchHit `json:"results"`
	UsedMMR         bool        `json:"used_mmr"`
	TotalCandidates int         `json:"total_candidates"`
}

func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, errs.Validation("invalid request body",
			errs.FieldDetail{Type: "malformed", Loc: "body", Msg: err.Error()}))
		return
	}

	var fields []errs.FieldDetail
	if req.Query == "" {
		fields = append(fields, errs.FieldDetail{Type: "missing", Loc: "query", Msg: "query must not be empty"})
	}
	if req.FetchK > 0 && req.TopK > 0 && req.FetchK < req.TopK {
		fields = append(fields, errs.FieldDetail{Type: "value_error", Loc: "fetch_k", Msg: "fetch_k must be >= top_k when both are set"})
	}
	if req.Filters != nil && req.Filters.CreatedFrom != nil && req.Filters.CreatedTo != nil && *req.Filters.CreatedFrom > *req.Filters.CreatedTo {
		fields = append(fields, errs.FieldDetail{Type: "value_error", Loc: "filters.created_from", Msg: "created_from must be <= created_to"})
	}
	if len(fields) > 0 {
		respondError(c, s.log, errs.Validation("search request failed validation", fields...))
		return
	}

	filter := map[string]any{}
	if req.Filters != nil {
		if req.Filters.DocumentID != nil {
			filter["document_id"] = *req.Filters.DocumentID
		}
		if req.Filters.OwnerID != nil {
			filter["document_owner_id"] = *req.Filters.OwnerID
		}
		if req.Filters.ContentType != nil {
			filter["content_type"] = *req.Filters.ContentType
		}
		if req.Filters.CreatedFrom != nil || req.Filters.CreatedTo != nil {
			filter["document_created_at_ts"] = vectorstore.RangeFilter{
				Gte: req.Filters.CreatedFrom,
				Lte: req.Filters.CreatedTo,
			}
		}
	}

	result, err := s.retrieval.Search(c.Request.Context(), req.Query, retrieval.Params{
		TopK:           req.TopK,
		FetchK:         req.FetchK,
		ScoreThreshold: req.ScoreThreshold,
		UseMMR:         req.UseMMR,
		MMRLambda:      req.MMRLambda,
		Filter:         filter,
	})
	if err != nil {
		respondError(c, s.log, err)
		return
	}

	hits := make([]searchHit, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = searchHit{ID: h.ID, Score: h.Score, Text: h.Text, Payload: h.Payload}
	}

	c.JSON(http.StatusOK, searchResponse{
		Results:         hits,
		UsedMMR:         result.UsedMMR,
		TotalCandidates: result.TotalCandidates,
	})
}
