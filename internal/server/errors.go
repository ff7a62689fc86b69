package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskapi/internal/auth"
	"taskapi/internal/models"
	"taskapi/internal/storage"
)

const (
	forbiddenDetail = "Access denied: You can only access your own resources"
	internalDetail  = "Internal server error"
)

type errorResponse struct {
	Detail     string `json:"detail"`
	StatusCode int    `json:"status_code"`
}

type validationResponse struct {
	Detail string              `json:"detail"`
	Errors []models.FieldError `json:"errors"`
}

// respondError maps err onto the response envelope and aborts the chain.
// Only unexpected errors are logged at error level; their cause is never
// sent to the client.
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		tokenErr *auth.TokenError
		notFound *storage.NotFoundError
		invalid  *models.ValidationError
	)

	switch {
	case errors.As(err, &invalid):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, validationResponse{
			Detail: "Validation error",
			Errors: invalid.Errors,
		})
	case errors.As(err, &tokenErr):
		c.Header("WWW-Authenticate", "Bearer")
		abortWithDetail(c, http.StatusUnauthorized, tokenErr.Reason)
	case errors.Is(err, auth.ErrForbidden):
		abortWithDetail(c, http.StatusForbidden, forbiddenDetail)
	case errors.As(err, &notFound):
		abortWithDetail(c, http.StatusNotFound, notFound.Error())
	default:
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.String("error", err.Error()))
		abortWithDetail(c, http.StatusInternalServerError, internalDetail)
		return
	}

	s.logger.Debug("request rejected",
		slog.String("path", c.FullPath()),
		slog.String("request_id", c.GetString(requestIDKey)),
		slog.String("error", err.Error()))
}

func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, errorResponse{Detail: detail, StatusCode: status})
}

// recoverPanic turns a panic in any handler into the generic 500 envelope.
func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.respondError(c, fmt.Errorf("panic: %v", recovered))
}
