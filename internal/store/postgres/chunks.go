package postgres

import (
	"context"

	"docrag/internal/errs"
	"docrag/internal/models"
)

// DeleteChunks removes every chunk row for a document, used both before a
// fresh chunking pass and during ingestion rollback.
func (s *Store) DeleteChunks(ctx context.Context, documentID string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return errs.Internal("failed to delete chunks", err)
	}
	return nil
}

// InsertChunks persists a batch of chunks for one document, assigning each
// a fresh id.
func (s *Store) InsertChunks(ctx context.Context, chunks []models.Chunk) ([]models.Chunk, error) {
	out := make([]models.Chunk, len(chunks))
	for i, c := range chunks {
		row := s.Pool.QueryRow(ctx, `
			INSERT INTO document_chunks
				(document_id, chunk_index, content, char_start, char_end, char_count, page_number, token_count, embedding_model)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at`,
			c.DocumentID, c.ChunkIndex, c.Content, c.CharStart, c.CharEnd, c.CharCount, c.PageNumber, c.TokenCount, c.EmbeddingModel)
		if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
			return nil, errs.Internal("failed to insert chunk", err)
		}
		out[i] = c
	}
	return out, nil
}
