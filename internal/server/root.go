package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the info endpoint.
const Version = "1.0.0"

type infoResponse struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Health      string `json:"health"`
}

// handleRoot returns basic API information.
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, infoResponse{
		Name:        "Todo API",
		Version:     Version,
		Description: "Multi-user task tracking API",
		Health:      "/health",
	})
}

// handleNoRoute keeps unknown paths inside the JSON error envelope.
func (s *Server) handleNoRoute(c *gin.Context) {
	abortWithDetail(c, http.StatusNotFound, "Not Found")
}

func (s *Server) handleNoMethod(c *gin.Context) {
	abortWithDetail(c, http.StatusMethodNotAllowed, "Method Not Allowed")
}
