package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docrag/internal/errs"
	"docrag/internal/models"
	"docrag/internal/rag"
)

type createSessionRequest struct {
	Name   string `json:"name"`
	UserID string `json:"user_id"`
}

type sessionResponse struct {
	ID         string `json:"id"`
	SessionKey string `json:"session_key"`
	Name       string `json:"name"`
}

func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	_ = c.ShouldBindJSON(&req)

	session, err := s.memory.CreateSession(c.Request.Context(), req.Name, req.UserID)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: session.ID, SessionKey: session.SessionKey, Name: session.Name})
}

type messageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) sessionMessages(c *gin.Context) {
	sessionID := c.Param("id")
	limit := queryInt(c, "limit", 50)

	messages, err := s.memory.GetMessages(c.Request.Context(), sessionID, limit)
	if err != nil {
		respondError(c, s.log, err)
		return
	}

	out := make([]messageResponse, len(messages))
	for i, m := range messages {
		out[i] = messageResponse{ID: m.ID, Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt.Format(httpTimeLayout)}
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

const httpTimeLayout = "2006-01-02T15:04:05Z07:00"

type chatAskFilters struct {
	DocumentID  *string `json:"document_id"`
	OwnerID     *string `json:"owner_id"`
	ContentType *string `json:"content_type"`
}

type chatAskRequest struct {
	Question           string          `json:"question"`
	TopK               int             `json:"top_k"`
	ScoreThreshold     *float32        `json:"score_threshold"`
	UseMMR             bool            `json:"use_mmr"`
	MMRLambda          *float64        `json:"mmr_lambda"`
	MaxContextChars    int             `json:"max_context_chars"`
	Model              string          `json:"model"`
	Filters            *chatAskFilters `json:"filters"`
	SessionID          string          `json:"session_id"`
	Stream             bool            `json:"stream"`
	MaxHistoryMessages *int            `json:"max_history_messages"`
}

type contextResponse struct {
	Text     string         `json:"text"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type chatAskResponse struct {
	Answer     string            `json:"answer"`
	Model      string            `json:"model"`
	Contexts   []contextResponse `json:"contexts"`
	SessionID  string            `json:"session_id"`
	SessionKey string            `json:"session_key"`
}

func (s *Server) chatAsk(c *gin.Context) {
	var req chatAskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, s.log, errs.Validation("invalid request body",
			errs.FieldDetail{Type: "malformed", Loc: "body", Msg: err.Error()}))
		return
	}
	if req.Question == "" {
		respondError(c, s.log, errs.Validation("chat ask request failed validation",
			errs.FieldDetail{Type: "missing", Loc: "question", Msg: "question must not be empty"}))
		return
	}

	ctx := c.Request.Context()

	session, history, err := s.resolveSessionAndHistory(ctx, req.SessionID)
	if err != nil {
		respondError(c, s.log, err)
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
	}

	params := rag.Params{
		Model:           req.Model,
		TopK:            req.TopK,
		ScoreThreshold:  req.ScoreThreshold,
		UseMMR:          req.UseMMR,
		MMRLambda:       req.MMRLambda,
		MaxContextChars: req.MaxContextChars,
		MaxHistoryMsgs:  req.MaxHistoryMessages,
		Filter:          filter,
	}

	if _, err := s.memory.AddMessage(ctx, session.ID, models.ChatRoleUser, req.Question); err != nil {
		respondError(c, s.log, err)
		return
	}

	if req.Stream {
		s.streamAsk(c, session, history, req.Question, params)
		return
	}

	answer, err := s.answerer.Answer(ctx, req.Question, history, params)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	if _, err := s.memory.AddMessage(ctx, session.ID, models.ChatRoleAssistant, answer.Text); err != nil {
		respondError(c, s.log, err)
		return
	}

	contexts := make([]contextResponse, len(answer.HitsUsed))
	for i, h := range answer.HitsUsed {
		contexts[i] = contextResponse{Text: h.Text, Score: h.Score, Metadata: h.Payload}
	}

	c.JSON(http.StatusOK, chatAskResponse{
		Answer:     answer.Text,
		Model:      answer.ModelName,
		Contexts:   contexts,
		SessionID:  session.ID,
		SessionKey: session.SessionKey,
	})
}

// streamAsk writes the answer as a concatenated token stream with content
// type text/plain. The assistant turn is persisted only if the stream
// completes without error; a client disconnect or provider failure discards
// the partial text entirely.
func (s *Server) streamAsk(c *gin.Context, session *models.ChatSession, history []models.ChatMessage, question string, params rag.Params) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)

	flusher, canFlush := c.Writer.(http.Flusher)

	answer, err := s.answerer.Stream(c.Request.Context(), question, history, params, func(token string) {
		_, _ = c.Writer.Write([]byte(token))
		if canFlush {
			flusher.Flush()
		}
	})
	if err != nil {
		s.log.Warn("stream answer failed, discarding partial turn", zap.Error(err))
		return
	}

	if _, err := s.memory.AddMessage(c.Request.Context(), session.ID, models.ChatRoleAssistant, answer.Text); err != nil {
		s.log.Error("failed to persist streamed assistant turn", zap.Error(err))
	}
}

// maxStoredHistoryFetch bounds how much history is pulled from storage
// before the answerer applies its own max_history_messages trim.
const maxStoredHistoryFetch = 200

// resolveSessionAndHistory looks up an existing session by id, or creates a
// fresh one when none is given; history is the stored log (bounded) so the
// answerer can apply its own recency trim on top.
func (s *Server) resolveSessionAndHistory(ctx context.Context, sessionID string) (*models.ChatSession, []models.ChatMessage, error) {
	var session *models.ChatSession
	if sessionID != "" {
		existing, err := s.memory.GetSessionByID(ctx, sessionID)
		if err != nil {
			return nil, nil, err
		}
		session = existing
	} else {
		created, err := s.memory.CreateSession(ctx, "", "")
		if err != nil {
			return nil, nil, err
		}
		session = created
	}

	history, err := s.memory.GetMessages(ctx, session.ID, maxStoredHistoryFetch)
	if err != nil {
		return nil, nil, err
	}
	return session, history, nil
}
