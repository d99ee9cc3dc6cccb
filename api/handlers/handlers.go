package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pcubed/gradeboard/internal/aggregator"
	"github.com/pcubed/gradeboard/internal/authz"
	"github.com/pcubed/gradeboard/pkg/logger"
)

// Handlers bundles the HTTP handlers behind the router.
type Handlers struct {
	Documents *DocumentHandler
	Profile   *ProfileHandler
}

func NewHandlers(docs *DocumentHandler, profile *ProfileHandler) *Handlers {
	return &Handlers{Documents: docs, Profile: profile}
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// writeError logs the failure and maps it to a status code. Authorization
// denials stay opaque to the caller.
func writeError(c *gin.Context, log logger.Logger, message string, err error) {
	log.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	status := http.StatusInternalServerError
	body := ErrorResponse{Message: message}
	switch {
	case errors.Is(err, authz.ErrPermissionDenied):
		status = http.StatusForbidden
		body.Message = "permission denied"
	case errors.Is(err, aggregator.ErrFormattingInFlight):
		status = http.StatusConflict
		body.Message = "formatting already in progress"
	case errors.Is(err, aggregator.ErrFormatFailed):
		status = http.StatusBadGateway
		body.Error = err.Error()
	default:
		if err != nil {
			body.Error = err.Error()
		}
	}

	c.JSON(status, body)
}
