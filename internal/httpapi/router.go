package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"docrag/internal/chatmemory"
	"docrag/internal/ingestion"
	"docrag/internal/models"
	"docrag/internal/observability"
	"docrag/internal/rag"
	"docrag/internal/retrieval"
)

// documentStore is the slice of the Postgres document repository the HTTP
// layer needs directly, independent of the ingestion pipeline.
type documentStore interface {
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	SoftDeleteDocument(ctx context.Context, id string) error
}

// Server holds every collaborator the HTTP layer dispatches to. It carries
// no state of its own beyond what gin needs to register routes.
type Server struct {
	log       *zap.Logger
	pipeline  *ingestion.Pipeline
	retrieval *retrieval.Engine
	answerer  *rag.Answerer
	memory    *chatmemory.Memory
	store     documentStore
	upgrader  websocket.Upgrader
}

func NewServer(log *zap.Logger, pipeline *ingestion.Pipeline, retrievalEngine *retrieval.Engine, answerer *rag.Answerer, memory *chatmemory.Memory, store documentStore) *Server {
	return &Server{
		log:       log,
		pipeline:  pipeline,
		retrieval: retrievalEngine,
		answerer:  answerer,
		memory:    memory,
		store:     store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine with middleware and every registered route.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors(), requestID(), metrics())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/documents/:id/ingest", s.ingestDocument)
		api.GET("/documents/:id", s.getDocument)
		api.DELETE("/documents/:id", s.deleteDocument)
		api.POST("/search", s.search)
		api.POST("/chat/sessions", s.createSession)
		api.GET("/chat/sessions/:id/messages", s.sessionMessages)
		api.POST("/chat/ask", s.chatAsk)
		api.GET("/chat/ws", s.chatWS)
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
