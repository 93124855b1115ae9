package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docrag/internal/chunker"
	"docrag/internal/errs"
	"docrag/internal/ingestion"
)

type stepResponse struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Detail     string `json:"detail"`
}

type ingestionResponse struct {
	Document      any            `json:"document"`
	TotalDurationMs int64        `json:"total_duration_ms"`
	ChunksIndexed int            `json:"chunks_indexed"`
	Steps         []stepResponse `json:"steps"`
}

// ingestDocument drives one document through the pipeline. The file bytes
// come from a multipart "file" field; chunk_size/chunk_overlap are optional
// query parameters defaulting to the chunker's own defaults.
func (s *Server) ingestDocument(c *gin.Context) {
	documentID := c.Param("id")

	chunkSize := queryInt(c, "chunk_size", chunker.DefaultChunkSize)
	chunkOverlap := queryInt(c, "chunk_overlap", chunker.DefaultChunkOverlap)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, s.log, errs.BadRequest("multipart file field \"file\" is required", err.Error()))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, s.log, errs.BadRequest("could not open uploaded file", err.Error()))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, s.log, errs.BadRequest("could not read uploaded file", err.Error()))
		return
	}

	result, err := s.pipeline.Run(c.Request.Context(), documentID, ingestion.RawFile{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, chunkSize, chunkOverlap)
	if err != nil {
		respondError(c, s.log, err)
		return
	}

	steps := make([]stepResponse, len(result.Steps))
	for i, st := range result.Steps {
		steps[i] = stepResponse{Name: st.Name, DurationMs: st.DurationMs, Detail: st.Detail}
	}

	c.JSON(http.StatusOK, ingestionResponse{
		Document:        result.Document,
		TotalDurationMs: result.TotalDurationMs,
		ChunksIndexed:   result.ChunksIndexed,
		Steps:           steps,
	})
}

// deleteDocument soft-deletes a document: is_deleted is set true, the row
// stays for audit purposes, and the document is excluded from every
// user-facing query from then on. Its vectors and chunk rows are not
// purged; nothing in the service removes them after a soft delete.
func (s *Server) deleteDocument(c *gin.Context) {
	documentID := c.Param("id")
	if err := s.store.SoftDeleteDocument(c.Request.Context(), documentID); err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": documentID, "is_deleted": true})
}

func (s *Server) getDocument(c *gin.Context) {
	doc, err := s.store.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
