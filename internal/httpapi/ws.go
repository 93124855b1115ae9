package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docrag/internal/models"
	"docrag/internal/rag"
)

// chatWS upgrades to a websocket and treats each inbound text frame as one
// question; answer tokens are written back as individual text frames. The
// session (resolved once per connection) accumulates history across turns
// for the lifetime of the socket.
func (s *Server) chatWS(c *gin.Context) {
	sessionID := c.Query("session_id")

	ctx := c.Request.Context()
	session, history, err := s.resolveSessionAndHistory(ctx, sessionID)
	if err != nil {
		respondError(c, s.log, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.log.Info("websocket chat client connected", zap.String("session_id", session.ID))

	for {
		var req struct {
			Question string `json:"question"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			s.log.Info("websocket read closed", zap.String("session_id", session.ID), zap.Error(err))
			break
		}
		if req.Question == "" {
			_ = conn.WriteJSON(map[string]any{"success": false, "error": "question must not be empty"})
			continue
		}

		if _, err := s.memory.AddMessage(ctx, session.ID, models.ChatRoleUser, req.Question); err != nil {
			_ = conn.WriteJSON(map[string]any{"success": false, "error": err.Error()})
			continue
		}
		history = append(history, models.ChatMessage{Role: models.ChatRoleUser, Content: req.Question})

		answer, err := s.answerer.Stream(ctx, req.Question, history, rag.Params{}, func(token string) {
			_ = conn.WriteJSON(map[string]any{"success": true, "token": token})
		})
		if err != nil {
			s.log.Warn("websocket stream failed, discarding partial turn", zap.Error(err))
			_ = conn.WriteJSON(map[string]any{"success": false, "error": err.Error()})
			continue
		}

		if _, err := s.memory.AddMessage(ctx, session.ID, models.ChatRoleAssistant, answer.Text); err != nil {
			s.log.Error("failed to persist websocket assistant turn", zap.Error(err))
			continue
		}
		history = append(history, models.ChatMessage{Role: models.ChatRoleAssistant, Content: answer.Text})

		_ = conn.WriteJSON(map[string]any{"success": true, "done": true})
	}
}
