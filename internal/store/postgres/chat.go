package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/google/uuid"

	"docrag/internal/errs"
	"docrag/internal/models"
)

// CreateSession assigns a fresh session_key and inserts a new chat session.
func (s *Store) CreateSession(ctx context.Context, name, createdByUser string) (*models.ChatSession, error) {
	sess := &models.ChatSession{
		SessionKey:    uuid.New().String(),
		Name:          name,
		CreatedByUser: createdByUser,
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO chat_sessions (session_key, name, created_by_user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		sess.SessionKey, sess.Name, sess.CreatedByUser)
	if err := row.Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, errs.Internal("failed to create chat session", err)
	}
	return sess, nil
}

func (s *Store) GetSessionByID(ctx context.Context, id string) (*models.ChatSession, error) {
	return s.scanSession(ctx, `SELECT id, session_key, name, created_by_user_id, created_at, updated_at
		FROM chat_sessions WHERE id = $1`, id)
}

func (s *Store) GetSessionByKey(ctx context.Context, key string) (*models.ChatSession, error) {
	return s.scanSession(ctx, `SELECT id, session_key, name, created_by_user_id, created_at, updated_at
		FROM chat_sessions WHERE session_key = $1`, key)
}

func (s *Store) scanSession(ctx context.Context, query, arg string) (*models.ChatSession, error) {
	row := s.Pool.QueryRow(ctx, query, arg)
	var sess models.ChatSession
	err := row.Scan(&sess.ID, &sess.SessionKey, &sess.Name, &sess.CreatedByUser, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errs.NotFound("chat session not found", arg)
		}
		return nil, errs.Internal("failed to load chat session", err)
	}
	return &sess, nil
}

// AddMessage appends one message to a session's history.
func (s *Store) AddMessage(ctx context.Context, sessionID string, role models.ChatRole, content string) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{SessionID: sessionID, Role: role, Content: content}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO chat_messages (session_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, sessionID, role, content)
	if err := row.Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, errs.Internal("failed to append chat message", err)
	}
	return msg, nil
}

// GetMessages returns the most recent limit messages for a session in
// ascending chronological order.
func (s *Store) GetMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, session_id, role, content, created_at FROM (
			SELECT id, session_id, role, content, created_at
			FROM chat_messages WHERE session_id = $1
			ORDER BY created_at DESC LIMIT $2
		) recent ORDER BY created_at ASC`, sessionID, limit)
	if err != nil {
		return nil, errs.Internal("failed to load chat messages", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, errs.Internal("failed to scan chat message", err)
		}
		out = append(out, m)
	}
	return out, nil
}
