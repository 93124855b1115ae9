package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docrag/internal/errs"
)

// errorEnvelope is the one shape every failure response takes.
type errorEnvelope struct {
	Success   bool        `json:"success"`
	Error     errorBody   `json:"error"`
	RequestID string      `json:"request_id"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
}

// respondError is the sole site where an error becomes an HTTP response.
// Anything that isn't an *errs.AppError is folded into internal_error with
// a generic message so internals never leak to clients.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var ae *errs.AppError
	if !errors.As(err, &ae) {
		log.Error("unhandled error", zap.Error(err), zap.String("request_id", requestIDFrom(c)))
		ae = errs.Internal("internal server error", err)
	}
	if ae.Code == errs.CodeInternal {
		log.Error("internal error", zap.Error(ae), zap.String("request_id", requestIDFrom(c)))
	}

	status := ae.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, errorEnvelope{
		Success: false,
		Error: errorBody{
			Code:    string(ae.Code),
			Message: ae.Message,
			Details: ae.Details,
		},
		RequestID: requestIDFrom(c),
	})
}
