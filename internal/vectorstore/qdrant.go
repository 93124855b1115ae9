// Package vectorstore adapts a Qdrant collection to the upsert/search/
// delete contract the retrieval engine and ingestion pipeline depend on.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"docrag/internal/errs"
)

// SearchParams configures one similarity search call.
type SearchParams struct {
	Vector        []float32
	Limit         uint64
	Filter        map[string]any
	ScoreThreshold *float32
	WithVectors   bool
}

// Point is a result row, or an upsert input row, depending on call site.
type Point struct {
	LogicalID string
	Vector    []float32
	Payload   map[string]any
	Score     float32
}

// Store wraps a Qdrant gRPC client scoped to one collection.
type Store struct {
	client     *qdrant.Client
	collection string
	dim        uint64
	ensured    bool
}

func New(client *qdrant.Client, collection string) *Store {
	return &Store{client: client, collection: collection}
}

// EnsureCollection creates the collection with the given dimension and
// cosine distance if it does not already exist. Idempotent.
func (s *Store) EnsureCollection(ctx context.Context, dim uint64) error {
	if s.ensured && s.dim == dim {
		return nil
	}
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return errs.UpstreamError("failed to check vector collection", err, map[string]any{"provider": "vector"})
	}
	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return errs.UpstreamError("failed to create vector collection", err, map[string]any{"provider": "vector"})
		}
	}
	s.ensured = true
	s.dim = dim
	return nil
}

// Upsert stores one point per (id, vector, payload) triple. Each point gets
// a fresh random storage id; the caller's logical id is preserved in the
// payload under "logical_id" so it survives the random-id indirection.
func (s *Store) Upsert(ctx context.Context, ids []string, vectors [][]float32, payloads []map[string]any) error {
	if len(ids) != len(vectors) || len(ids) != len(payloads) {
		return errs.Internal("upsert: ids, vectors, and payloads must have equal length", nil)
	}

	points := make([]*qdrant.PointStruct, 0, len(ids))
	for i, id := range ids {
		payload := make(map[string]any, len(payloads[i])+1)
		for k, v := range payloads[i] {
			payload[k] = v
		}
		payload["logical_id"] = id

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.New().String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return errs.UpstreamError("vector upsert failed", err, map[string]any{"provider": "vector"})
	}
	return nil
}

// Search returns up to params.Limit points ordered by descending cosine
// similarity, filtered by conjunction over the given fields.
func (s *Store) Search(ctx context.Context, params SearchParams) ([]Point, error) {
	limit := params.Limit
	query := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(params.Vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(params.Filter),
	}
	if params.WithVectors {
		query.WithVectors = qdrant.NewWithVectors(true)
	}
	if params.ScoreThreshold != nil {
		query.ScoreThreshold = params.ScoreThreshold
	}

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, errs.UpstreamError("vector search failed", err, map[string]any{"provider": "vector"})
	}

	points := make([]Point, 0, len(results))
	for _, r := range results {
		payload := make(map[string]any, len(r.Payload))
		var logicalID string
		for k, v := range r.Payload {
			decoded := decodeValue(v)
			payload[k] = decoded
			if k == "logical_id" {
				if s, ok := decoded.(string); ok {
					logicalID = s
				}
			}
		}
		pt := Point{LogicalID: logicalID, Payload: payload, Score: r.Score}
		if params.WithVectors && r.Vectors != nil {
			if dense := r.Vectors.GetVector(); dense != nil {
				pt.Vector = dense.Data
			}
		}
		points = append(points, pt)
	}
	return points, nil
}

// DeleteByLogicalIDs deletes every point whose payload logical_id is in ids.
// A no-op against a missing collection.
func (s *Store) DeleteByLogicalIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	should := make([]*qdrant.Condition, len(ids))
	for i, id := range ids {
		should[i] = qdrant.NewMatch("logical_id", id)
	}
	return s.delete(ctx, &qdrant.Filter{Should: should})
}

// DeleteByDocumentID deletes every point whose payload document_id matches.
func (s *Store) DeleteByDocumentID(ctx context.Context, documentID string) error {
	return s.delete(ctx, &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("document_id", documentID)},
	})
}

func (s *Store) delete(ctx context.Context, filter *qdrant.Filter) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return errs.UpstreamError("failed to check vector collection", err, map[string]any{"provider": "vector"})
	}
	if !exists {
		return nil
	}
	wait := true
	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
		Wait:           &wait,
	})
	if err != nil {
		return errs.UpstreamError("vector delete failed", err, map[string]any{"provider": "vector"})
	}
	return nil
}

// buildFilter composes an AND filter over exact-match fields (document_id,
// document_owner_id, content_type) and an inclusive range on document_created_at_ts.
func buildFilter(fields map[string]any) *qdrant.Filter {
	if len(fields) == 0 {
		return nil
	}
	var must []*qdrant.Condition
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			must = append(must, qdrant.NewMatch(k, val))
		case int:
			must = append(must, qdrant.NewMatchInt(k, int64(val)))
		case int64:
			must = append(must, qdrant.NewMatchInt(k, val))
		case rangeFilter:
			r := &qdrant.Range{}
			if val.Gte != nil {
				r.Gte = val.Gte
			}
			if val.Lte != nil {
				r.Lte = val.Lte
			}
			must = append(must, qdrant.NewRange(k, r))
		default:
			must = append(must, qdrant.NewMatch(k, fmt.Sprintf("%v", val)))
		}
	}
	return &qdrant.Filter{Must: must}
}

// RangeFilter expresses an inclusive [Gte, Lte] bound for a numeric field,
// used for document_created_at_ts.
type rangeFilter = RangeFilter

type RangeFilter struct {
	Gte *float64
	Lte *float64
}

func decodeValue(v *qdrant.Value) any {
	switch {
	case v == nil:
		return nil
	case v.GetStringValue() != "":
		return v.GetStringValue()
	case v.GetIntegerValue() != 0:
		return v.GetIntegerValue()
	case v.GetDoubleValue() != 0:
		return v.GetDoubleValue()
	case v.GetBoolValue():
		return true
	default:
		return v.String()
	}
}
