// Package chatmemory exposes chat session and message persistence,
// validating message roles before they reach storage.
package chatmemory

import (
	"context"

	"docrag/internal/errs"
	"docrag/internal/models"
	"docrag/internal/store/postgres"
)

var allowedRoles = map[models.ChatRole]bool{
	models.ChatRoleUser:      true,
	models.ChatRoleAssistant: true,
}

// Memory wraps the chat session/message repository with role validation.
type Memory struct {
	store *postgres.Store
}

func New(store *postgres.Store) *Memory {
	return &Memory{store: store}
}

func (m *Memory) CreateSession(ctx context.Context, name, userID string) (*models.ChatSession, error) {
	return m.store.CreateSession(ctx, name, userID)
}

func (m *Memory) GetSessionByID(ctx context.Context, id string) (*models.ChatSession, error) {
	return m.store.GetSessionByID(ctx, id)
}

func (m *Memory) GetSessionByKey(ctx context.Context, key string) (*models.ChatSession, error) {
	return m.store.GetSessionByKey(ctx, key)
}

func (m *Memory) AddMessage(ctx context.Context, sessionID string, role models.ChatRole, content string) (*models.ChatMessage, error) {
	if !allowedRoles[role] {
		return nil, errs.BadRequest("invalid chat message role", string(role))
	}
	return m.store.AddMessage(ctx, sessionID, role, content)
}

// GetMessages returns the most recent limit messages in ascending
// chronological order.
func (m *Memory) GetMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	return m.store.GetMessages(ctx, sessionID, limit)
}
