// Package models holds the plain data types shared across every component.
// None of these carry persistence or transport concerns of their own.
package models

import "time"

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusError      DocumentStatus = "error"
	DocumentStatusDeleted    DocumentStatus = "deleted"
)

// Document is one uploaded file and its ingestion state. IsDeleted is the
// soft-delete flag: once true the document is excluded from every
// user-facing query regardless of Status, which is left at whatever
// terminal value it held at delete time for audit purposes.
type Document struct {
	ID                    string         `json:"id"`
	OwnerID               string         `json:"owner_id"`
	Name                  string         `json:"name"`
	OriginalFilename      string         `json:"original_filename"`
	ContentType           string         `json:"content_type"`
	FileSize              int64          `json:"file_size"`
	Status                DocumentStatus `json:"status"`
	ProcessingStep        string         `json:"processing_step"`
	ProcessingProgress    int            `json:"processing_progress"`
	ProcessingStartedAt   *time.Time     `json:"processing_started_at"`
	ProcessingCompletedAt *time.Time     `json:"processing_completed_at"`
	ProcessingDurationMs  *int64         `json:"processing_duration_ms"`
	ErrorCount            int            `json:"error_count"`
	LastError             string         `json:"last_error"`
	TextContent           string         `json:"text_content"`
	IsDeleted             bool           `json:"is_deleted"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// Chunk is one span of a document's extracted text.
type Chunk struct {
	ID            string
	DocumentID    string
	ChunkIndex    int
	Content       string
	CharStart     int
	CharEnd       int
	CharCount     int
	PageNumber    *int
	TokenCount    int
	EmbeddingModel string
	CreatedAt     time.Time
}

// LogicalID is the stable identifier carried in a vector point's payload,
// distinct from the point's own random storage id.
func (c Chunk) LogicalID() string {
	return c.DocumentID + "_" + itoa(c.ChunkIndex)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// VectorPoint is what the vector store adapter upserts and returns from a
// similarity search.
type VectorPoint struct {
	LogicalID string
	Vector    []float32
	Payload   map[string]any
	Score     float32
}

// ChatSession groups a sequence of chat turns under one stable key.
type ChatSession struct {
	ID            string
	SessionKey    string
	Name          string
	CreatedByUser string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn in a chat session's history.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      ChatRole
	Content   string
	CreatedAt time.Time
}
