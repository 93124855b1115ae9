package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSearchEmptyQueryReturnsValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &Server{log: zap.NewNop()}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")
	body, _ := json.Marshal(searchRequest{Query: "", TopK: 5})
	c.Request = httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	s.search(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestSearchFetchKLessThanTopKReturnsValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &Server{log: zap.NewNop()}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-2")
	body, _ := json.Marshal(searchRequest{Query: "hello", TopK: 10, FetchK: 5})
	c.Request = httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	s.search(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
