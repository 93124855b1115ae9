package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"docrag/internal/errs"
	"docrag/internal/models"
)

// GetDocument fetches a document by id, returning a NotFound AppError when
// absent or soft-deleted.
func (s *Store) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, owner_id, name, original_filename, content_type, file_size,
		       status, processing_step, processing_progress,
		       processing_started_at, processing_completed_at, processing_duration_ms,
		       error_count, last_error, text_content, is_deleted, created_at, updated_at
		FROM documents WHERE id = $1 AND NOT is_deleted`, id)

	var d models.Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &d.OriginalFilename, &d.ContentType, &d.FileSize,
		&d.Status, &d.ProcessingStep, &d.ProcessingProgress,
		&d.ProcessingStartedAt, &d.ProcessingCompletedAt, &d.ProcessingDurationMs,
		&d.ErrorCount, &d.LastError, &d.TextContent, &d.IsDeleted, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errs.NotFound("document not found", id)
		}
		return nil, errs.Internal("failed to load document", err)
	}
	return &d, nil
}

// SoftDeleteDocument marks a document as deleted without removing its row,
// excluding it from every user-facing query from then on. Returns NotFound
// if the document does not exist or was already deleted.
func (s *Store) SoftDeleteDocument(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE documents SET is_deleted = true, updated_at = now()
		WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return errs.Internal("failed to delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("document not found", id)
	}
	return nil
}

// CreateDocument inserts a new document row in pending status.
func (s *Store) CreateDocument(ctx context.Context, d *models.Document) error {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO documents (owner_id, name, original_filename, content_type, file_size, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING id, created_at, updated_at`,
		d.OwnerID, d.Name, d.OriginalFilename, d.ContentType, d.FileSize)
	if err := row.Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return errs.Internal("failed to create document", err)
	}
	d.Status = models.DocumentStatusPending
	return nil
}

// SetTextContent records the extracted text for a document (the OCR step).
func (s *Store) SetTextContent(ctx context.Context, id, text string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE documents SET text_content = $2, updated_at = now() WHERE id = $1`, id, text)
	if err != nil {
		return errs.Internal("failed to store extracted text", err)
	}
	return nil
}

// MarkStarted transitions a document into processing[upload], clearing any
// prior terminal-state bookkeeping.
func (s *Store) MarkStarted(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE documents SET
			status = 'processing', processing_step = 'upload', processing_progress = 5,
			processing_started_at = now(), processing_completed_at = NULL,
			processing_duration_ms = NULL, last_error = NULL, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return errs.Internal("failed to mark ingestion started", err)
	}
	return nil
}

// UpdateProgress commits one stage transition.
func (s *Store) UpdateProgress(ctx context.Context, id, step string, progress int) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE documents SET processing_step = $2, processing_progress = $3, updated_at = now()
		WHERE id = $1`, id, step, progress)
	if err != nil {
		return errs.Internal("failed to update ingestion progress", err)
	}
	return nil
}

// MarkCompleted transitions a document into its terminal completed state.
func (s *Store) MarkCompleted(ctx context.Context, id string, durationMs int64) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE documents SET
			status = 'completed', processing_step = 'ingest', processing_progress = 100,
			processing_completed_at = now(), processing_duration_ms = $2, updated_at = now()
		WHERE id = $1`, id, durationMs)
	if err != nil {
		return errs.Internal("failed to mark ingestion completed", err)
	}
	return nil
}

// MarkFailed transitions a document into error, freezing progress at its
// last committed value rather than resetting it to zero.
func (s *Store) MarkFailed(ctx context.Context, id string, durationMs int64, reason string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE documents SET
			status = 'error', processing_step = 'error',
			processing_completed_at = now(), processing_duration_ms = $2,
			error_count = error_count + 1, last_error = $3, updated_at = now()
		WHERE id = $1`, id, durationMs, reason)
	if err != nil {
		return errs.Internal("failed to mark ingestion failed", err)
	}
	return nil
}
