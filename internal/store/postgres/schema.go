// Package postgres persists Document, Chunk, ChatSession, and ChatMessage
// rows via pgx, bootstrapping its own schema with inline DDL on startup.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pooled Postgres connection shared by all repositories.
type Store struct {
	Pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

// InitializeSchema creates every table this service owns if absent.
func (s *Store) InitializeSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id TEXT,
			name TEXT NOT NULL,
			original_filename TEXT,
			content_type TEXT,
			file_size BIGINT,
			status TEXT NOT NULL DEFAULT 'pending',
			processing_step TEXT,
			processing_progress INT NOT NULL DEFAULT 0,
			processing_started_at TIMESTAMPTZ,
			processing_completed_at TIMESTAMPTZ,
			processing_duration_ms BIGINT,
			error_count INT NOT NULL DEFAULT 0,
			last_error TEXT,
			text_content TEXT,
			is_deleted BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_owner_id ON documents(owner_id) WHERE NOT is_deleted`,
		`CREATE TABLE IF NOT EXISTS document_chunks (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			char_start INT NOT NULL,
			char_end INT NOT NULL,
			char_count INT NOT NULL,
			page_number INT,
			token_count INT NOT NULL DEFAULT 0,
			embedding_model TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE(document_id, chunk_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id ON document_chunks(document_id)`,
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_key TEXT UNIQUE NOT NULL,
			name TEXT,
			created_by_user_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_session_id ON chat_messages(session_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
