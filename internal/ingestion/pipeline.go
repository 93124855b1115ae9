// Package ingestion drives a single document through extraction, chunking,
// and vector indexing, committing a progress transition at each stage and
// rolling back on failure.
package ingestion

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"docrag/internal/chunker"
	"docrag/internal/embedclient"
	"docrag/internal/errs"
	"docrag/internal/extractor"
	"docrag/internal/models"
	"docrag/internal/observability"
	"docrag/internal/store/postgres"
	"docrag/internal/vectorstore"
)

var tracer = otel.Tracer("docrag/ingestion")

// StepReport records one stage's elapsed time and a short human-readable
// detail, e.g. "14 chunks created".
type StepReport struct {
	Name       string
	DurationMs int64
	Detail     string
}

// Result is returned once a pipeline run reaches a terminal state.
type Result struct {
	Document      *models.Document
	Steps         []StepReport
	ChunksIndexed int
	TotalDurationMs int64
}

// RawFile is the input the caller already has in hand: extraction starts
// from these bytes, not from a re-fetch of document storage.
type RawFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Pipeline wires C1 (extraction), C2 (chunking), C4 (embedding), and C5
// (vector upsert) into the document state machine.
type Pipeline struct {
	store      *postgres.Store
	extractors *extractor.Registry
	embed      *embedclient.Client
	vectors    *vectorstore.Store
	log        *zap.Logger

	inFlight sync.Map // documentID -> struct{}
}

func New(store *postgres.Store, extractors *extractor.Registry, embed *embedclient.Client, vectors *vectorstore.Store, log *zap.Logger) *Pipeline {
	return &Pipeline{store: store, extractors: extractors, embed: embed, vectors: vectors, log: log}
}

// Run executes the full ingestion state machine for one document. At most
// one run per document may be in flight at a time; a second concurrent
// call for the same document returns a Conflict error immediately.
func (p *Pipeline) Run(ctx context.Context, documentID string, file RawFile, chunkSize, chunkOverlap int) (*Result, error) {
	if chunkSize < chunker.MinChunkSize || chunkSize > chunker.MaxChunkSize ||
		chunkOverlap < 0 || chunkOverlap > chunker.MaxChunkOverlap || chunkOverlap >= chunkSize {
		return nil, errs.Validation("chunk_size/chunk_overlap out of bounds",
			errs.FieldDetail{Type: "value_error", Loc: "chunk_size", Msg: fmt.Sprintf("chunk_size must be in [%d, %d]", chunker.MinChunkSize, chunker.MaxChunkSize)},
			errs.FieldDetail{Type: "value_error", Loc: "chunk_overlap", Msg: fmt.Sprintf("chunk_overlap must be in [0, %d] and below chunk_size", chunker.MaxChunkOverlap)})
	}
	if _, already := p.inFlight.LoadOrStore(documentID, struct{}{}); already {
		return nil, errs.Conflict("ingestion already in progress for this document", documentID)
	}
	defer p.inFlight.Delete(documentID)

	ctx, span := tracer.Start(ctx, "ingestion.run", trace.WithAttributes(attribute.String("document_id", documentID)))
	defer span.End()

	runStart := time.Now()
	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := p.store.MarkStarted(ctx, documentID); err != nil {
		return nil, err
	}
	doc.Status = models.DocumentStatusProcessing

	var steps []StepReport
	var loggedIDs []string

	fail := func(cause error) (*Result, error) {
		span.RecordError(cause)
		p.log.Error("ingestion failed, rolling back", zap.String("document_id", documentID), zap.Error(cause))

		if err := p.store.DeleteChunks(context.Background(), documentID); err != nil {
			p.log.Warn("failed to rollback chunks", zap.String("document_id", documentID), zap.Error(err))
		}
		if len(loggedIDs) > 0 {
			if err := p.vectors.DeleteByLogicalIDs(context.Background(), loggedIDs); err != nil {
				p.log.Warn("failed to rollback vectors", zap.String("document_id", documentID), zap.Error(err))
			}
		}

		elapsed := time.Since(runStart).Milliseconds()
		if err := p.store.MarkFailed(context.Background(), documentID, elapsed, cause.Error()); err != nil {
			p.log.Error("failed to record ingestion failure", zap.Error(err))
		}
		observability.IngestionRunsTotal.WithLabelValues("error").Inc()
		return nil, cause
	}

	// --- OCR / extraction ---
	stepStart := time.Now()
	text, err := p.extractors.Extract(file.Filename, file.ContentType, file.Data)
	if err != nil {
		return fail(err)
	}
	if err := p.store.SetTextContent(ctx, documentID, text); err != nil {
		return fail(err)
	}
	if err := p.store.UpdateProgress(ctx, documentID, "ocr", 35); err != nil {
		return fail(err)
	}
	steps = append(steps, StepReport{Name: "ocr", DurationMs: time.Since(stepStart).Milliseconds(), Detail: fmt.Sprintf("%d characters extracted", len(text))})
	observability.IngestionStageDuration.WithLabelValues("ocr").Observe(time.Since(stepStart).Seconds())

	// --- Chunk ---
	stepStart = time.Now()
	if err := p.store.DeleteChunks(ctx, documentID); err != nil {
		return fail(err)
	}
	rawChunks := chunker.Split(text, chunkSize, chunkOverlap)
	toInsert := make([]models.Chunk, len(rawChunks))
	for i, c := range rawChunks {
		toInsert[i] = models.Chunk{
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    c.Content,
			CharStart:  c.Start,
			CharEnd:    c.End,
			CharCount:  len(c.Content),
		}
	}
	persisted, err := p.store.InsertChunks(ctx, toInsert)
	if err != nil {
		return fail(err)
	}
	if err := p.store.UpdateProgress(ctx, documentID, "chunk", 70); err != nil {
		return fail(err)
	}
	steps = append(steps, StepReport{Name: "chunk", DurationMs: time.Since(stepStart).Milliseconds(), Detail: fmt.Sprintf("%d chunks created", len(persisted))})
	observability.IngestionStageDuration.WithLabelValues("chunk").Observe(time.Since(stepStart).Seconds())

	// --- Embed + store ---
	stepStart = time.Now()
	if len(persisted) == 0 {
		if err := p.store.UpdateProgress(ctx, documentID, "embed_store", 100); err != nil {
			return fail(err)
		}
		steps = append(steps, StepReport{Name: "embed_store", DurationMs: time.Since(stepStart).Milliseconds(), Detail: "0 vectors indexed"})
		observability.IngestionStageDuration.WithLabelValues("embed_store").Observe(time.Since(stepStart).Seconds())
		totalMs := time.Since(runStart).Milliseconds()
		if err := p.store.MarkCompleted(ctx, documentID, totalMs); err != nil {
			return nil, err
		}
		doc.Status = models.DocumentStatusCompleted
		doc.ProcessingProgress = 100
		observability.IngestionRunsTotal.WithLabelValues("completed").Inc()
		return &Result{Document: doc, Steps: steps, ChunksIndexed: 0, TotalDurationMs: totalMs}, nil
	}

	texts := make([]string, len(persisted))
	for i, c := range persisted {
		texts[i] = c.Content
	}
	vectors, err := p.embed.Embed(ctx, texts)
	if err != nil {
		return fail(err)
	}

	ids := make([]string, len(persisted))
	payloads := make([]map[string]any, len(persisted))
	for i, c := range persisted {
		logicalID := documentID + "_" + strconv.Itoa(c.ChunkIndex)
		ids[i] = logicalID
		payloads[i] = map[string]any{
			"text":                   c.Content,
			"chunk_index":            c.ChunkIndex,
			"document_id":            documentID,
			"document_name":          doc.Name,
			"content_type":           doc.ContentType,
			"document_owner_id":      doc.OwnerID,
			"document_created_at_ts": doc.CreatedAt.Unix(),
		}
	}
	loggedIDs = ids

	if err := p.vectors.EnsureCollection(ctx, uint64(len(vectors[0]))); err != nil {
		return fail(err)
	}
	if err := p.vectors.Upsert(ctx, ids, vectors, payloads); err != nil {
		return fail(err)
	}
	if err := p.store.UpdateProgress(ctx, documentID, "embed_store", 100); err != nil {
		return fail(err)
	}
	steps = append(steps, StepReport{Name: "embed_store", DurationMs: time.Since(stepStart).Milliseconds(), Detail: fmt.Sprintf("%d vectors indexed", len(ids))})
	observability.IngestionStageDuration.WithLabelValues("embed_store").Observe(time.Since(stepStart).Seconds())

	totalMs := time.Since(runStart).Milliseconds()
	if err := p.store.MarkCompleted(ctx, documentID, totalMs); err != nil {
		return nil, err
	}

	doc.Status = models.DocumentStatusCompleted
	doc.ProcessingProgress = 100
	observability.IngestionRunsTotal.WithLabelValues("completed").Inc()
	return &Result{Document: doc, Steps: steps, ChunksIndexed: len(ids), TotalDurationMs: totalMs}, nil
}
