package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const serviceName = "todo-api"

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type databaseHealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// handleHealth reports that the process is up.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "healthy", Service: serviceName})
}

// handleHealthDB runs one trivial query. A database failure is reported in
// the body, never as a 5xx.
func (s *Server) handleHealthDB(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Warn("database health check failed", "error", err)
		c.JSON(http.StatusOK, databaseHealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, databaseHealthResponse{Status: "healthy", Database: "connected"})
}
