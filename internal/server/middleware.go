package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskapi/internal/auth"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID tags every request with an id, reusing one sent by the client.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger writes one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("request_id", c.GetString(requestIDKey)),
		}
		if identity, ok := auth.FromContext(c.Request.Context()); ok {
			attrs = append(attrs, slog.String("subject", identity.Subject))
		}
		s.logger.Info("request", attrs...)
	}
}

// authorizeOwner verifies the bearer token and checks that its subject owns
// the resource named by owner. It runs before any handler touches storage.
func (s *Server) authorizeOwner(owner func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			s.respondError(c, err)
			return
		}

		identity, err := s.verifier.Verify(token)
		if err != nil {
			s.respondError(c, err)
			return
		}

		identity, err = auth.RequireOwner(owner(c))(identity)
		if err != nil {
			s.respondError(c, err)
			return
		}

		c.Request = c.Request.WithContext(auth.NewContext(c.Request.Context(), identity))
		c.Next()
	}
}
